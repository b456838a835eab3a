package services

import (
	"context"
	"log"
	"sync"

	"dinein-telegram/models"
)

// MenuSource yields the normalized menu list; backend.Client implements it.
type MenuSource interface {
	GetMenu(ctx context.Context) ([]models.MenuItem, error)
}

// MenuCache is an optional short-TTL cache in front of the source.
type MenuCache interface {
	GetMenu(ctx context.Context) ([]models.MenuItem, bool)
	SetMenu(ctx context.Context, items []models.MenuItem)
}

// Catalog holds the menu for the session. It keeps the raw normalized
// sequence, unavailable items included; display grouping is a pure
// projection over it.
type Catalog struct {
	source MenuSource
	cache  MenuCache // nil when no cache is configured

	mu    sync.RWMutex
	items []models.MenuItem
}

func NewCatalog(source MenuSource, cache MenuCache) *Catalog {
	return &Catalog{source: source, cache: cache}
}

// Refresh reloads the menu. Load failures are swallowed: they are
// logged and the catalog keeps whatever it had (an empty catalog when
// nothing was ever loaded). An empty menu is indistinguishable from a
// failed load for callers.
func (c *Catalog) Refresh(ctx context.Context) {
	if c.cache != nil {
		if items, ok := c.cache.GetMenu(ctx); ok {
			c.set(items)
			return
		}
	}
	items, err := c.source.GetMenu(ctx)
	if err != nil {
		log.Printf("menu load: %v", err)
		return
	}
	if c.cache != nil {
		c.cache.SetMenu(ctx, items)
	}
	c.set(items)
}

func (c *Catalog) set(items []models.MenuItem) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// Items returns the raw normalized sequence, unavailable items included.
func (c *Catalog) Items() []models.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item looks up one menu item by its canonical id.
func (c *Catalog) Item(id string) (models.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.MenuItem{}, false
}

// CategoryGroup is one display section of the menu.
type CategoryGroup struct {
	Name  string
	Items []models.MenuItem
}

// GroupByCategory projects items into display groups. Category order
// follows first appearance in the source sequence, item order follows
// source order, missing categories land in the default group, and items
// flagged unavailable are left out. The input is not mutated.
func GroupByCategory(items []models.MenuItem) []CategoryGroup {
	var groups []CategoryGroup
	index := map[string]int{}
	for _, it := range items {
		if !it.Available {
			continue
		}
		name := it.Category
		if name == "" {
			name = models.DefaultCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, CategoryGroup{Name: name})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}
