package backendtest

import (
	"time"

	"retail-dashboard/internal/models"
)

// Seed fills the fake with two woredas, two cooperatives, three shops and a
// handful of sugar and oil transactions.
func (f *Fake) Seed() {
	woredaA := &models.WoredaRef{ID: "w1", Name: "Woreda 01"}
	woredaB := &models.WoredaRef{ID: "w2", Name: "Woreda 02"}
	coopA := &models.CooperativeRef{ID: "c1", Name: "Abebe Cooperative", WoredaOffice: woredaA}
	coopB := &models.CooperativeRef{ID: "c2", Name: "Kebede Cooperative", WoredaOffice: woredaB}
	sugar := models.Commodity{ID: "sugar-id", Name: "sugar", Price: 5, Unit: "kg"}
	oil := models.Commodity{ID: "oil-id", Name: "oil", Price: 20, Unit: "liter"}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Woredas = []models.Woreda{{ID: "w1", Name: "Woreda 01"}, {ID: "w2", Name: "Woreda 02"}}
	f.Cooperatives = []models.Cooperative{
		{ID: "c1", Name: "Abebe Cooperative", WoredaOffice: woredaA},
		{ID: "c2", Name: "Kebede Cooperative", WoredaOffice: woredaB},
	}
	f.Shops = []models.Shop{
		{ID: "s1", Name: "Shop One", Cooperative: coopA, AvailableCommodity: []models.Availability{
			{ID: "a1", Commodity: sugar, Quantity: 500, Unit: "kg"},
			{ID: "a2", Commodity: oil, Quantity: 200, Unit: "liter"},
		}},
		{ID: "s2", Name: "Shop Two", Cooperative: coopA},
		{ID: "s3", Name: "Shop Three", Cooperative: coopB},
	}
	f.Customers["FAYDA-1"] = models.Customer{ID: "cust1", Name: "Almaz Tesfaye", HouseNumber: "123", Woreda: woredaA}

	ref := func(c models.Commodity) *models.CommodityRef {
		return &models.CommodityRef{ID: c.ID, Name: c.Name, Price: c.Price, Unit: c.Unit}
	}
	shop := func(id, name string, coop *models.CooperativeRef) *models.ShopRef {
		return &models.ShopRef{ID: id, Name: name, Cooperative: coop}
	}
	day := func(d, h int) time.Time { return time.Date(2024, 1, d, h, 0, 0, 0, time.UTC) }

	f.Transactions = []models.Transaction{
		{ID: "t1", Amount: 10, Commodity: ref(sugar), Shop: shop("s1", "Shop One", coopA), Customer: &models.CustomerRef{ID: "cust1", Name: "Almaz Tesfaye"}, CreatedAt: day(5, 9), Status: models.StatusSuccess},
		{ID: "t2", Amount: 2, Commodity: ref(oil), Shop: shop("s1", "Shop One", coopA), Customer: &models.CustomerRef{ID: "cust2", Name: "Bekele Girma"}, CreatedAt: day(10, 9), Status: models.StatusSuccess},
		{ID: "t3", Amount: 4, Commodity: ref(sugar), Shop: shop("s2", "Shop Two", coopA), Customer: &models.CustomerRef{ID: "cust3", Name: "Chaltu Abdi"}, CreatedAt: day(15, 9), Status: models.StatusPending},
		{ID: "t4", Amount: 1, Commodity: ref(oil), Shop: shop("s3", "Shop Three", coopB), Customer: &models.CustomerRef{ID: "cust4", Name: "Dawit Haile"}, CreatedAt: day(20, 9), Status: models.StatusFailed},
	}
}
