package cart

import (
	"sync"

	"github.com/quickbasket/storefront/core/catalog"
)

// View is the cart as rendered to clients: line items plus derived total.
type View struct {
	Items []LineItem `json:"items"`
	Total int        `json:"total"`
}

// Store keeps one cart per session token, in memory only. Carts are seeded
// on first touch and disappear with the process, there is no persistence.
// All mutations go through the store mutex so concurrent requests on the
// same session cannot break the uniqueness and positive-quantity rules.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
	seed  []catalog.Item
}

func NewStore(seed []catalog.Item) *Store {
	return &Store{
		carts: make(map[string]*Cart),
		seed:  seed,
	}
}

func (s *Store) cart(sessionID string) *Cart {
	c, ok := s.carts[sessionID]
	if !ok {
		c = New(s.seed...)
		s.carts[sessionID] = c
	}
	return c
}

// view copies the items so callers can render outside the lock.
func view(c *Cart) View {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return View{Items: items, Total: c.Total()}
}

func (s *Store) View(sessionID string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return view(s.cart(sessionID))
}

func (s *Store) AddOrIncrement(sessionID string, it catalog.Item) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(sessionID)
	c.AddOrIncrement(it)
	return view(c)
}

func (s *Store) ChangeQuantity(sessionID string, id int, delta int) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(sessionID)
	c.ChangeQuantity(id, delta)
	return view(c)
}

func (s *Store) ToggleSimilar(sessionID string, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart(sessionID).ToggleSimilar(id)
}
