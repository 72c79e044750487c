package models

type Commodity struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit,omitempty"`
}

type Availability struct {
	ID        string    `json:"_id"`
	Commodity Commodity `json:"commodity"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
}

type Shop struct {
	ID                 string          `json:"_id"`
	Name               string          `json:"name"`
	Cooperative        *CooperativeRef `json:"retailerCooperative,omitempty"`
	AvailableCommodity []Availability  `json:"availableCommodity,omitempty"`
}

func (s Shop) CooperativeID() string {
	if s.Cooperative == nil {
		return ""
	}
	return s.Cooperative.ID
}

type Cooperative struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	WoredaOffice *WoredaRef `json:"woredaOffice,omitempty"`
}

func (c Cooperative) WoredaID() string {
	if c.WoredaOffice == nil {
		return ""
	}
	return c.WoredaOffice.ID
}

type Woreda struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Customer struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	HouseNumber string     `json:"house_no"`
	Woreda      *WoredaRef `json:"woreda,omitempty"`
}

func (c Customer) WoredaName() string {
	if c.Woreda == nil {
		return ""
	}
	return c.Woreda.Name
}

type User struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	WorksAt string   `json:"worksAt"`
	Role    *RoleRef `json:"role,omitempty"`
}

type RoleRef struct {
	Name string `json:"name"`
}
