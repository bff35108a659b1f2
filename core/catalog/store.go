package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Memory serves the fixed seed catalog without a database.
type Memory struct {
	items []Item
}

func NewMemory() *Memory {
	return &Memory{items: Seed()}
}

func (m *Memory) Fetch(ctx context.Context, id int) (Item, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

func (m *Memory) Recommended(ctx context.Context) ([]Item, error) {
	return m.filter(true), nil
}

func (m *Memory) Starter(ctx context.Context) ([]Item, error) {
	return m.filter(false), nil
}

func (m *Memory) filter(recommended bool) []Item {
	items := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		if it.Recommended == recommended {
			items = append(items, it)
		}
	}
	return items
}

// Postgres serves the catalog from the catalog_items table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Fetch(ctx context.Context, id int) (Item, error) {
	const q = `SELECT * FROM catalog_items WHERE item_id = $1`

	var it Item
	if err := p.db.GetContext(ctx, &it, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("fetching item[%d]: %w", id, err)
	}
	return it, nil
}

func (p *Postgres) Recommended(ctx context.Context) ([]Item, error) {
	return p.list(ctx, true)
}

func (p *Postgres) Starter(ctx context.Context) ([]Item, error) {
	return p.list(ctx, false)
}

func (p *Postgres) list(ctx context.Context, recommended bool) ([]Item, error) {
	const q = `SELECT * FROM catalog_items WHERE recommended = $1 ORDER BY item_id`

	items := []Item{}
	if err := p.db.SelectContext(ctx, &items, q, recommended); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}
