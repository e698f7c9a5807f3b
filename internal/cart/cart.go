// Package cart holds the items a shopper intends to buy. State lives in a
// kv.Store under a fixed key so it survives restarts.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hamperland/storefront/internal/kv"
	"github.com/hamperland/storefront/internal/orders"
	"github.com/hamperland/storefront/internal/products"
	"github.com/shopspring/decimal"
)

// StoreKey is the key the cart is persisted under.
const StoreKey = "hamperland-cart"

// ErrOutOfStock is returned when adding a product whose stock count is zero.
var ErrOutOfStock = errors.New("cart: product is out of stock")

// Item is a product line in the cart. Qty is always at least one and never
// above the product's stock count when stock is tracked.
type Item struct {
	products.Product
	Qty int `json:"qty"`
}

// OrderItem returns the denormalized snapshot sent with an order.
func (i Item) OrderItem() orders.Item {
	return orders.Item{
		ID:    i.ID,
		Name:  i.Name,
		Qty:   i.Qty,
		Price: i.Price,
		Image: i.Image,
	}
}

type persisted struct {
	State struct {
		Items []Item `json:"items"`
	} `json:"state"`
	Version int `json:"version"`
}

type Cart struct {
	mu    sync.Mutex
	store kv.Store
	items []Item
}

// Load reads the cart from store, starting empty when nothing was saved yet.
func Load(ctx context.Context, store kv.Store) (*Cart, error) {
	c := &Cart{store: store, items: []Item{}}

	data, err := store.Get(ctx, StoreKey)
	if errors.Is(err, kv.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load cart: %w", err)
	}

	var saved persisted
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("could not decode cart: %w", err)
	}
	c.items = sanitize(saved.State.Items)
	return c, nil
}

// sanitize restores the line invariants on persisted state: lines with no
// units or no stock are dropped, quantities are clamped to stock and repeated
// product ids keep only their first line.
func sanitize(items []Item) []Item {
	clean := make([]Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Qty < 1 || seen[item.ID] {
			continue
		}
		if limit, ok := item.StockLimit(); ok && limit <= 0 {
			continue
		}
		seen[item.ID] = true
		item.Qty = clamp(item.Qty, item.Product)
		clean = append(clean, item)
	}
	return clean
}

// commit persists next and only then makes it the current state, so a failed
// save leaves the cart as it was.
func (c *Cart) commit(ctx context.Context, next []Item) error {
	var state persisted
	state.State.Items = next

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not encode cart: %w", err)
	}
	if err := c.store.Set(ctx, StoreKey, data); err != nil {
		return fmt.Errorf("could not save cart: %w", err)
	}

	c.items = next
	return nil
}

func (c *Cart) index(id string) int {
	for i, item := range c.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func clamp(qty int, p products.Product) int {
	if limit, ok := p.StockLimit(); ok && qty > limit {
		return limit
	}
	return qty
}

// AddItem adds qty units of p, merging with an existing line for the same
// product. The resulting quantity is clamped to p's stock count.
func (c *Cart) AddItem(ctx context.Context, p products.Product, qty int) error {
	if qty <= 0 {
		return nil
	}
	if limit, ok := p.StockLimit(); ok && limit <= 0 {
		return ErrOutOfStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	if i := c.index(p.ID); i >= 0 {
		next[i].Qty = clamp(next[i].Qty+qty, p)
	} else {
		next = append(next, Item{Product: p, Qty: clamp(qty, p)})
	}
	return c.commit(ctx, next)
}

// RemoveItem deletes the line for id. Unknown ids are ignored.
func (c *Cart) RemoveItem(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil
	}

	next := make([]Item, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)
	return c.commit(ctx, next)
}

// UpdateQty sets the quantity of the line for id, clamped to the stock count
// recorded on the line. Non-positive quantities are ignored.
func (c *Cart) UpdateQty(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil
	}

	next := c.snapshot()
	next[i].Qty = clamp(qty, next[i].Product)
	return c.commit(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.commit(ctx, []Item{})
}

func (c *Cart) snapshot() []Item {
	return append([]Item{}, c.items...)
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, item := range c.items {
		total += item.Qty
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return total
}
