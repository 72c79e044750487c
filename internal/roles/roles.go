package roles

import "fmt"

type Role int

const (
	TradeBureau Role = iota + 1
	SubCityOffice
	WoredaOffice
	RetailerCooperative
	RetailerCooperativeShop
)

var names = map[Role]string{
	TradeBureau:             "TradeBureau",
	SubCityOffice:           "SubCityOffice",
	WoredaOffice:            "WoredaOffice",
	RetailerCooperative:     "RetailerCooperative",
	RetailerCooperativeShop: "RetailerCooperativeShop",
}

func (r Role) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Valid() bool {
	_, ok := names[r]
	return ok
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Parse maps the backend role name onto the closed set of roles.
func Parse(name string) (Role, error) {
	for r, n := range names {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

func All() []Role {
	return []Role{TradeBureau, SubCityOffice, WoredaOffice, RetailerCooperative, RetailerCooperativeShop}
}

// Viewer is the authenticated caller as seen by every component.
// WorksAt is the shop, cooperative or office the user is assigned to.
type Viewer struct {
	Role    Role   `json:"role"`
	WorksAt string `json:"works_at"`
}
