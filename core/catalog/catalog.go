package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an item id is not part of the catalog.
var ErrNotFound = errors.New("item not found")

type Item struct {
	ID            int    `json:"id" db:"item_id"`
	Name          string `json:"name" db:"name"`
	Price         int    `json:"price" db:"price"`
	OriginalPrice int    `json:"originalPrice" db:"original_price"`
	Discount      string `json:"discount" db:"discount"`
	Image         string `json:"image" db:"image_url"`
	Weight        string `json:"weight,omitempty" db:"weight"`
	Rewards       int    `json:"rewards,omitempty" db:"rewards"`
	Recommended   bool   `json:"-" db:"recommended"`
}

// Storer is the read-only catalog collaborator. In a larger system this
// would sit in front of a product-search service.
type Storer interface {
	Fetch(ctx context.Context, id int) (Item, error)
	Recommended(ctx context.Context) ([]Item, error)
	Starter(ctx context.Context) ([]Item, error)
}

// Seed is the fixed demo catalog. Items 1 and 2 make up the starter
// basket, the rest are the recommended upsell items.
func Seed() []Item {
	return []Item{
		{
			ID:            1,
			Name:          "Amul Pure Ghee Ghee 1 L Tetrapack",
			Price:         594,
			OriginalPrice: 635,
			Discount:      "6% off",
			Image:         "/api/placeholder/80/80",
			Rewards:       30,
		},
		{
			ID:            2,
			Name:          "Let's Try Lite Multigrain Mix, Made with 100% Gro...",
			Price:         90,
			OriginalPrice: 100,
			Discount:      "10% off",
			Image:         "/api/placeholder/80/80",
			Weight:        "200 g",
			Rewards:       5,
		},
		{
			ID:            3,
			Name:          "Let's Try Namkeen Combo(Aloo,Garlic&...",
			Price:         81,
			OriginalPrice: 90,
			Discount:      "10% off",
			Image:         "/api/placeholder/120/120",
			Weight:        "6 x 32 g",
			Recommended:   true,
		},
		{
			ID:            4,
			Name:          "Let's Try Gathiya,Made with 100% Groundnu...",
			Price:         90,
			OriginalPrice: 100,
			Discount:      "10% off",
			Image:         "/api/placeholder/120/120",
			Weight:        "180 g",
			Recommended:   true,
		},
		{
			ID:            5,
			Name:          "Let's Try Garlic Bhujia,Made with 10...",
			Price:         85,
			OriginalPrice: 100,
			Discount:      "15% off",
			Image:         "/api/placeholder/120/120",
			Weight:        "200 g",
			Recommended:   true,
		},
	}
}
