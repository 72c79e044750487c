package roles

import "testing"

func TestParse(t *testing.T) {
	for _, r := range All() {
		got, err := Parse(r.String())
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", r.String(), err)
		}
		if got != r {
			t.Errorf("Parse(%q) = %v, want %v", r.String(), got, r)
		}
	}

	invalid := []string{"", "admin", "retailercooperative", "Role(3)"}
	for _, name := range invalid {
		if _, err := Parse(name); err == nil {
			t.Errorf("Parse(%q) should fail", name)
		}
	}
}

func TestRole_UnmarshalText(t *testing.T) {
	var r Role
	if err := r.UnmarshalText([]byte("WoredaOffice")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if r != WoredaOffice {
		t.Errorf("got %v, want WoredaOffice", r)
	}

	if _, err := Role(99).MarshalText(); err == nil {
		t.Error("MarshalText should reject an invalid role")
	}
}

func TestFor(t *testing.T) {
	tests := []struct {
		role    Role
		search  SearchTarget
		scope   Scope
		summary bool
		create  bool
		group   bool
	}{
		{TradeBureau, SearchCooperativeName, ScopeAll, false, false, true},
		{SubCityOffice, SearchCooperativeName, ScopeAll, false, false, true},
		{WoredaOffice, SearchCooperativeName, ScopeAll, false, false, true},
		{RetailerCooperative, SearchShopName, ScopeOwnCooperative, true, false, false},
		{RetailerCooperativeShop, SearchCustomerName, ScopeOwnShop, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			c := For(tt.role)
			if c.Search != tt.search {
				t.Errorf("Search = %v, want %v", c.Search, tt.search)
			}
			if c.Scope != tt.scope {
				t.Errorf("Scope = %v, want %v", c.Scope, tt.scope)
			}
			if c.Summary != tt.summary {
				t.Errorf("Summary = %v, want %v", c.Summary, tt.summary)
			}
			if c.CreateTransaction != tt.create {
				t.Errorf("CreateTransaction = %v, want %v", c.CreateTransaction, tt.create)
			}
			if c.GroupByCooperative != tt.group {
				t.Errorf("GroupByCooperative = %v, want %v", c.GroupByCooperative, tt.group)
			}
		})
	}

	if c := For(Role(0)); c != (Capabilities{}) {
		t.Errorf("unknown role should get no capabilities, got %+v", c)
	}
}

func TestFor_WoredaFilterOnlyForTopTiers(t *testing.T) {
	for _, r := range All() {
		want := r == TradeBureau || r == SubCityOffice
		if got := For(r).WoredaFilter; got != want {
			t.Errorf("%v WoredaFilter = %v, want %v", r, got, want)
		}
	}
	if !For(WoredaOffice).OwnWoredaOnly {
		t.Error("WoredaOffice should be limited to its own woreda")
	}
}
