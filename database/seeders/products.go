package seeders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atelier/storefront/app/models"
)

func init() {
	Register("products", seedProducts)
}

type fixture struct {
	name        string
	description string
	price       float64
	category    string
	sizes       []string
	colors      []string
	image       string
	stock       int
	featured    bool
}

var catalogue = []fixture{
	{
		name:        "Classic White Shirt",
		description: "A timeless white cotton shirt with a modern fit. Perfect for any occasion.",
		price:       89.00,
		category:    "Shirts",
		sizes:       []string{"XS", "S", "M", "L", "XL"},
		colors:      []string{"White", "Off-White"},
		image:       "https://images.unsplash.com/photo-1620799139652-715e4d5b232d?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       50,
		featured:    true,
	},
	{
		name:        "Essential Cotton Tee",
		description: "Premium organic cotton t-shirt with a relaxed silhouette.",
		price:       45.00,
		category:    "T-Shirts",
		sizes:       []string{"XS", "S", "M", "L", "XL", "XXL"},
		colors:      []string{"Black", "White", "Gray", "Navy"},
		image:       "https://images.unsplash.com/photo-1564316800929-be17a69d6966?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       100,
		featured:    true,
	},
	{
		name:        "Navy Polo",
		description: "Classic polo shirt in premium pique cotton. Understated elegance.",
		price:       65.00,
		category:    "Polos",
		sizes:       []string{"S", "M", "L", "XL"},
		colors:      []string{"Navy", "Black", "White"},
		image:       "https://images.unsplash.com/photo-1587375027707-6aeb5230fe3b?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       75,
		featured:    true,
	},
	{
		name:        "Structured Wool Coat",
		description: "Luxurious wool blend coat with clean lines and minimal details.",
		price:       295.00,
		category:    "Outerwear",
		sizes:       []string{"XS", "S", "M", "L"},
		colors:      []string{"Camel", "Black", "Gray"},
		image:       "https://images.pexels.com/photos/3400764/pexels-photo-3400764.jpeg",
		stock:       30,
		featured:    true,
	},
	{
		name:        "Slim Fit Chinos",
		description: "Tailored chino trousers in stretch cotton. Modern slim fit.",
		price:       95.00,
		category:    "Trousers",
		sizes:       []string{"28", "30", "32", "34", "36"},
		colors:      []string{"Khaki", "Navy", "Black", "Olive"},
		image:       "https://images.unsplash.com/photo-1624378439575-d8705ad7ae80?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       60,
	},
	{
		name:        "Cashmere Sweater",
		description: "Pure cashmere crew neck sweater. Incredibly soft and warm.",
		price:       245.00,
		category:    "Knitwear",
		sizes:       []string{"XS", "S", "M", "L", "XL"},
		colors:      []string{"Cream", "Navy", "Gray", "Black"},
		image:       "https://images.unsplash.com/photo-1620799139834-6b8f844fbe61?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       40,
		featured:    true,
	},
	{
		name:        "Linen Blazer",
		description: "Lightweight linen blazer for warm weather sophistication.",
		price:       185.00,
		category:    "Blazers",
		sizes:       []string{"S", "M", "L", "XL"},
		colors:      []string{"Beige", "Navy", "Light Gray"},
		image:       "https://images.unsplash.com/photo-1594938298603-c8148c4dae35?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       35,
	},
	{
		name:        "Denim Jacket",
		description: "Classic denim jacket with a vintage wash. A wardrobe essential.",
		price:       125.00,
		category:    "Outerwear",
		sizes:       []string{"XS", "S", "M", "L", "XL"},
		colors:      []string{"Light Blue", "Dark Blue", "Black"},
		image:       "https://images.unsplash.com/photo-1576995853123-5a10305d93c0?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       45,
	},
	{
		name:        "Oxford Button-Down",
		description: "Timeless oxford cloth button-down shirt. Smart casual perfection.",
		price:       79.00,
		category:    "Shirts",
		sizes:       []string{"S", "M", "L", "XL"},
		colors:      []string{"Blue", "White", "Pink"},
		image:       "https://images.unsplash.com/photo-1598033129183-c4f50c736f10?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       55,
	},
	{
		name:        "Merino Wool Cardigan",
		description: "Versatile merino wool cardigan with horn buttons.",
		price:       155.00,
		category:    "Knitwear",
		sizes:       []string{"S", "M", "L", "XL"},
		colors:      []string{"Charcoal", "Navy", "Burgundy"},
		image:       "https://images.unsplash.com/photo-1638643391904-9b551ba91eaa?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       42,
	},
	{
		name:        "Silk Scarf",
		description: "Luxurious silk scarf with abstract print. Add elegance to any outfit.",
		price:       85.00,
		category:    "Accessories",
		sizes:       []string{"One Size"},
		colors:      []string{"Multicolor", "Blue", "Red"},
		image:       "https://images.unsplash.com/photo-1601924994987-69e26d50dc26?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       25,
	},
	{
		name:        "Leather Belt",
		description: "Full-grain leather belt with brushed silver buckle.",
		price:       75.00,
		category:    "Accessories",
		sizes:       []string{"S", "M", "L", "XL"},
		colors:      []string{"Brown", "Black"},
		image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?crop=entropy&cs=srgb&fm=jpg&q=85",
		stock:       50,
	},
}

// CatalogueSize is the number of products seedProducts inserts.
var CatalogueSize = len(catalogue)

// Products builds fresh product records for the demo catalogue. Creation
// times step by a millisecond so listings keep the fixture order.
func Products(now time.Time) []models.Product {
	out := make([]models.Product, len(catalogue))
	for i, f := range catalogue {
		out[i] = models.Product{
			ID:          uuid.NewString(),
			Name:        f.name,
			Description: f.description,
			Price:       f.price,
			Category:    f.category,
			Sizes:       append([]string(nil), f.sizes...),
			Colors:      append([]string(nil), f.colors...),
			ImageURL:    f.image,
			Stock:       f.stock,
			Featured:    f.featured,
			CreatedAt:   now.Add(time.Duration(i) * time.Millisecond),
		}
	}
	return out
}

func seedProducts(ctx context.Context, env Env) error {
	return env.Store.Products.CreateMany(ctx, Products(time.Now().UTC()))
}
