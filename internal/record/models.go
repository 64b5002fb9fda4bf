// Package record defines the persisted, typed rows produced by the upload
// normalizer. One table per source keeps queries and indexes simple.
package record

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Source identifies where uploaded rows come from.
type Source string

const (
	SourceAds      Source = "ads"
	SourceShipping Source = "shipping"
	SourceCommerce Source = "commerce"
)

// Valid reports whether s names a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceAds, SourceShipping, SourceCommerce:
		return true
	}
	return false
}

// AdRecord is one normalized advertising row.
type AdRecord struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID        snowflake.ID `json:"org_id" gorm:"index;not null"`
	UploadID     snowflake.ID `json:"upload_id" gorm:"index;not null"`
	Date         string       `json:"date" gorm:"index;size:10"`
	DateFallback bool         `json:"date_fallback"`
	Campaign     string       `json:"campaign"`
	Platform     string       `json:"platform"`
	Impressions  float64      `json:"impressions"`
	Clicks       float64      `json:"clicks"`
	Spend        float64      `json:"spend"`
	Conversions  float64      `json:"conversions"`
	Revenue      float64      `json:"revenue"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (AdRecord) TableName() string { return "ad_records" }

// ShipmentRecord is one normalized shipping row.
type ShipmentRecord struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID              snowflake.ID `json:"org_id" gorm:"index;not null"`
	UploadID           snowflake.ID `json:"upload_id" gorm:"index;not null"`
	Date               string       `json:"date" gorm:"index;size:10"`
	DateFallback       bool         `json:"date_fallback"`
	TrackingID         string       `json:"tracking_id"`
	HasTrackingID      bool         `json:"has_tracking_id"`
	Courier            string       `json:"courier"`
	Status             string       `json:"status"`
	CODAmount          float64      `json:"cod_amount"`
	CODCollectedAmount float64      `json:"cod_collected_amount"`
	DeclaredWeight     float64      `json:"declared_weight"`
	ChargedWeight      float64      `json:"charged_weight"`
	ShippingFee        float64      `json:"shipping_fee"`
	CreatedAt          time.Time    `json:"created_at"`
}

func (ShipmentRecord) TableName() string { return "shipment_records" }

// OrderRecord is one normalized commerce order row.
type OrderRecord struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID         snowflake.ID `json:"org_id" gorm:"index;not null"`
	UploadID      snowflake.ID `json:"upload_id" gorm:"index;not null"`
	Date          string       `json:"date" gorm:"index;size:10"`
	DateFallback  bool         `json:"date_fallback"`
	OrderID       string       `json:"order_id"`
	HasOrderID    bool         `json:"has_order_id"`
	CustomerEmail string       `json:"customer_email"`
	Status        string       `json:"status"`
	ProductName   string       `json:"product_name"`
	Quantity      float64      `json:"quantity"`
	Total         float64      `json:"total"`
	Discount      float64      `json:"discount"`
	PaymentMethod string       `json:"payment_method"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (OrderRecord) TableName() string { return "order_records" }
