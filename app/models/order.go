package models

import "time"

type OrderStatus string

const (
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every accepted status.
var OrderStatuses = []OrderStatus{
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of OrderStatuses.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	FullName     string `bson:"full_name" json:"full_name" validate:"required"`
	AddressLine1 string `bson:"address_line1" json:"address_line1" validate:"required"`
	AddressLine2 string `bson:"address_line2" json:"address_line2"`
	City         string `bson:"city" json:"city" validate:"required"`
	State        string `bson:"state" json:"state" validate:"required"`
	PostalCode   string `bson:"postal_code" json:"postal_code" validate:"required"`
	Country      string `bson:"country" json:"country" validate:"required"`
	Phone        string `bson:"phone" json:"phone" validate:"required"`
}

// OrderLine is a snapshot taken at checkout; later catalogue changes do
// not touch it.
type OrderLine struct {
	ProductID    string  `bson:"product_id" json:"product_id"`
	ProductName  string  `bson:"product_name" json:"product_name"`
	ProductImage string  `bson:"product_image" json:"product_image"`
	Price        float64 `bson:"price" json:"price"`
	Quantity     int     `bson:"quantity" json:"quantity"`
	Size         string  `bson:"size" json:"size"`
	Color        string  `bson:"color" json:"color"`
	Subtotal     float64 `bson:"subtotal" json:"subtotal"`
}

type Order struct {
	ID              string          `gorm:"primaryKey;size:36" bson:"id" json:"id"`
	UserID          string          `gorm:"size:36;not null;index" bson:"user_id" json:"user_id"`
	Items           []OrderLine     `gorm:"serializer:json" bson:"items" json:"items"`
	ShippingAddress ShippingAddress `gorm:"serializer:json" bson:"shipping_address" json:"shipping_address"`
	Total           float64         `gorm:"not null" bson:"total" json:"total"`
	Status          OrderStatus     `gorm:"size:20;not null;index" bson:"status" json:"status"`
	CreatedAt       time.Time       `gorm:"not null;index" bson:"created_at" json:"created_at"`
}
