package models

import (
	"strings"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

func (s Status) Normalize() Status {
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}

// Transaction mirrors the backend record with its populated references.
// Any reference may be missing and consumers must tolerate nil.
type Transaction struct {
	ID        string        `json:"_id"`
	Amount    float64       `json:"amount"`
	Commodity *CommodityRef `json:"commodity,omitempty"`
	Shop      *ShopRef      `json:"shopId,omitempty"`
	Customer  *CustomerRef  `json:"customerId,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Status    Status        `json:"status"`
}

type CommodityRef struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit,omitempty"`
}

type ShopRef struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Cooperative *CooperativeRef `json:"retailerCooperative,omitempty"`
}

type CooperativeRef struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	WoredaOffice *WoredaRef `json:"woredaOffice,omitempty"`
}

type WoredaRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type CustomerRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func (t Transaction) CommodityName() string {
	if t.Commodity == nil {
		return ""
	}
	return t.Commodity.Name
}

func (t Transaction) UnitPrice() float64 {
	if t.Commodity == nil {
		return 0
	}
	return t.Commodity.Price
}

func (t Transaction) ShopID() string {
	if t.Shop == nil {
		return ""
	}
	return t.Shop.ID
}

func (t Transaction) ShopName() string {
	if t.Shop == nil {
		return ""
	}
	return t.Shop.Name
}

func (t Transaction) CustomerName() string {
	if t.Customer == nil {
		return ""
	}
	return t.Customer.Name
}

func (t Transaction) cooperative() *CooperativeRef {
	if t.Shop == nil {
		return nil
	}
	return t.Shop.Cooperative
}

func (t Transaction) CooperativeID() string {
	if c := t.cooperative(); c != nil {
		return c.ID
	}
	return ""
}

func (t Transaction) CooperativeName() string {
	if c := t.cooperative(); c != nil {
		return c.Name
	}
	return ""
}

func (t Transaction) WoredaID() string {
	c := t.cooperative()
	if c == nil || c.WoredaOffice == nil {
		return ""
	}
	return c.WoredaOffice.ID
}

// NewTransaction is the creation payload accepted by the backend.
type NewTransaction struct {
	ShopID      string  `json:"shopId"`
	CustomerID  string  `json:"customerId"`
	CommodityID string  `json:"commodity"`
	Amount      float64 `json:"amount"`
	Fayda       string  `json:"fayda"`
}

type Summary struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalQuantity     float64 `json:"total_quantity"`
	TotalRevenue      float64 `json:"total_revenue"`
}

type CooperativeGroup struct {
	Cooperative  CooperativeRef `json:"cooperative"`
	Transactions []Transaction  `json:"transactions"`
}

type ShopGroup struct {
	Cooperative Cooperative `json:"cooperative"`
	Shops       []Shop      `json:"shops"`
}
