package models

import "time"

// CartLine is one stored entry. Price is never stored; it is read from the
// product every time the cart is shown.
type CartLine struct {
	ID        string `bson:"id" json:"id"`
	ProductID string `bson:"product_id" json:"product_id"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	Size      string `bson:"size" json:"size"`
	Color     string `bson:"color" json:"color"`
}

// SameVariant reports whether l and o are the same product, size and color.
func (l CartLine) SameVariant(o CartLine) bool {
	return l.ProductID == o.ProductID && l.Size == o.Size && l.Color == o.Color
}

// Cart belongs to exactly one user.
type Cart struct {
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartLine `bson:"items" json:"items"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItemView is a cart line joined with its live product.
type CartItemView struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Size         string  `json:"size"`
	Color        string  `json:"color"`
	Subtotal     float64 `json:"subtotal"`
}

// CartView is what every cart endpoint answers with. ItemCount is the
// number of lines, not the sum of quantities.
type CartView struct {
	Items     []CartItemView `json:"items"`
	Total     float64        `json:"total"`
	ItemCount int            `json:"item_count"`
}
