package cart

import (
	"github.com/quickbasket/storefront/core/catalog"
)

type LineItem struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Price         int    `json:"price"`
	OriginalPrice int    `json:"originalPrice"`
	Discount      string `json:"discount"`
	Image         string `json:"image"`
	Weight        string `json:"weight,omitempty"`
	Rewards       int    `json:"rewards,omitempty"`
	Quantity      int    `json:"quantity"`
}

// Cart holds the line items of one session. Items keep display order and
// never stay in the collection at quantity zero. Prices are integer minor
// units so totals never touch floating point.
type Cart struct {
	Items    []LineItem `json:"items"`
	expanded map[int]bool
}

func New(seed ...catalog.Item) *Cart {
	c := &Cart{expanded: make(map[int]bool)}
	for _, it := range seed {
		c.AddOrIncrement(it)
	}
	return c
}

// AddOrIncrement bumps the quantity of an existing line item or appends a
// new one at quantity 1. An existing line keeps its own display fields, the
// catalog item only contributes on first add.
func (c *Cart) AddOrIncrement(it catalog.Item) {
	for i := range c.Items {
		if c.Items[i].ID == it.ID {
			c.Items[i].Quantity++
			return
		}
	}

	c.Items = append(c.Items, LineItem{
		ID:            it.ID,
		Name:          it.Name,
		Price:         it.Price,
		OriginalPrice: it.OriginalPrice,
		Discount:      it.Discount,
		Image:         it.Image,
		Weight:        it.Weight,
		Rewards:       it.Rewards,
		Quantity:      1,
	})
}

// ChangeQuantity adjusts a line item by delta. A result of zero or below
// removes the line entirely. Unknown ids are a no-op, so a decremented-away
// item cannot be brought back without AddOrIncrement.
func (c *Cart) ChangeQuantity(id int, delta int) {
	for i := range c.Items {
		if c.Items[i].ID != id {
			continue
		}

		c.Items[i].Quantity += delta
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return
	}
}

// Total is the sum of price times quantity over all line items. Discount
// and rewards fields are informational and never enter the total.
func (c *Cart) Total() int {
	var tot int
	for _, it := range c.Items {
		tot += it.Price * it.Quantity
	}
	return tot
}

// ToggleSimilar flips the similar-items panel for a line item and reports
// the new visibility. It never touches quantities or the total.
func (c *Cart) ToggleSimilar(id int) bool {
	c.expanded[id] = !c.expanded[id]
	return c.expanded[id]
}

func (c *Cart) SimilarVisible(id int) bool {
	return c.expanded[id]
}
