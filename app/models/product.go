package models

import "time"

// Default variant lists and stock applied when a product is created
// without them.
var (
	DefaultSizes  = []string{"XS", "S", "M", "L", "XL"}
	DefaultColors = []string{"Black", "White"}
)

const DefaultStock = 100

// Product represents a product in the catalogue.
type Product struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"id" json:"id"`
	Name        string    `gorm:"size:255;not null;index" bson:"name" json:"name"`
	Description string    `gorm:"type:text" bson:"description" json:"description"`
	Price       float64   `gorm:"not null;default:0;index" bson:"price" json:"price"`
	Category    string    `gorm:"size:100;not null;index" bson:"category" json:"category"`
	Sizes       []string  `gorm:"serializer:json" bson:"sizes" json:"sizes"`
	Colors      []string  `gorm:"serializer:json" bson:"colors" json:"colors"`
	ImageURL    string    `gorm:"size:1024" bson:"image_url" json:"image_url"`
	Stock       int       `gorm:"not null;default:0" bson:"stock" json:"stock"`
	Featured    bool      `gorm:"not null;default:false;index" bson:"featured" json:"featured"`
	CreatedAt   time.Time `gorm:"not null" bson:"created_at" json:"created_at"`
}

// ProductFilter narrows a catalogue listing. Nil pointers and empty strings
// mean "no constraint".
type ProductFilter struct {
	Category string
	Featured *bool
	Search   string // case-insensitive substring of Name
	MinPrice *float64
	MaxPrice *float64
	Limit    int
}

// ProductPatch is a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,min=1"`
	Sizes       *[]string `json:"sizes,omitempty"`
	Colors      *[]string `json:"colors,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Stock       *int      `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Featured    *bool     `json:"featured,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.Sizes == nil && p.Colors == nil &&
		p.ImageURL == nil && p.Stock == nil && p.Featured == nil
}

// Apply copies the set fields onto prod.
func (p ProductPatch) Apply(prod *Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Sizes != nil {
		prod.Sizes = append([]string(nil), (*p.Sizes)...)
	}
	if p.Colors != nil {
		prod.Colors = append([]string(nil), (*p.Colors)...)
	}
	if p.ImageURL != nil {
		prod.ImageURL = *p.ImageURL
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
	if p.Featured != nil {
		prod.Featured = *p.Featured
	}
}
