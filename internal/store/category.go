// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"catadmin/internal/metrics"
	"catadmin/internal/models"
	"catadmin/internal/slot"
)

// CategoriesSlot is the storage slot holding the JSON array of categories.
const CategoriesSlot = "categories"

// CategoryStore manages the category collection. The whole collection is
// one JSON array in a single slot: every mutation reads it, transforms it
// in memory and writes it back. Mutations from this process are
// serialized; writers in other processes win or lose as a whole.
type CategoryStore struct {
	slots slot.Store
	mu    sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(slots slot.Store) *CategoryStore {
	return &CategoryStore{
		slots: slots,
		now:   func() time.Time { return time.Now().UTC() },
		newID: generateID,
	}
}

// generateID returns a UUIDv7: a millisecond timestamp followed by random
// bits. Falls back to a fully random UUID if the clock source fails.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// load reads and decodes the collection. An empty slot is an empty list.
func (s *CategoryStore) load(ctx context.Context) ([]models.Category, error) {
	data, ok, err := s.slots.Get(ctx, CategoriesSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: read categories: %w", ErrUnavailable, err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var items []models.Category
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode categories: %v", ErrCorrupt, err)
	}
	return items, nil
}

// save encodes and writes the whole collection.
func (s *CategoryStore) save(ctx context.Context, items []models.Category) error {
	if items == nil {
		items = []models.Category{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.slots.Set(ctx, CategoriesSlot, data); err != nil {
		return fmt.Errorf("%w: write categories: %w", ErrUnavailable, err)
	}
	metrics.Categories.Set(float64(len(items)))
	return nil
}

// filter returns the records matching keep, in storage order.
func (s *CategoryStore) filter(ctx context.Context, op string, keep func(*models.Category) bool) ([]models.Category, error) {
	items, err := s.load(ctx)
	metrics.ObserveStore(op, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []models.Category
	for i := range items {
		if keep(&items[i]) {
			result = append(result, items[i])
		}
	}
	return result, nil
}

// Create appends a new category built from in and returns it. The store
// assigns the identifier and both timestamps; no field validation happens
// here.
func (s *CategoryStore) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		metrics.ObserveStore("create", err)
		return nil, fmt.Errorf("create category: %w", err)
	}

	now := s.now()
	c := models.Category{
		ID:           s.newID(),
		Name:         in.Name,
		Slug:         in.Slug,
		Description:  in.Description,
		ParentID:     in.ParentID,
		Status:       in.Status,
		DisplayOrder: in.DisplayOrder,
		IsFeatured:   in.IsFeatured,
		ImageURL:     in.ImageURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.save(ctx, append(items, c))
	metrics.ObserveStore("create", err)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// List returns every category in storage (append) order.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	return s.filter(ctx, "list", func(*models.Category) bool { return true })
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	items, err := s.filter(ctx, "find_by_id", func(c *models.Category) bool { return c.ID == id })
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// ListByParent returns the categories whose parent is exactly parentID.
func (s *CategoryStore) ListByParent(ctx context.Context, parentID string) ([]models.Category, error) {
	return s.filter(ctx, "list_by_parent", func(c *models.Category) bool { return c.ParentID == parentID })
}

// ListTopLevel returns the categories without a parent.
func (s *CategoryStore) ListTopLevel(ctx context.Context) ([]models.Category, error) {
	return s.filter(ctx, "list_top_level", func(c *models.Category) bool { return c.IsTopLevel() })
}

// ListFeatured returns the categories that are both featured and active.
func (s *CategoryStore) ListFeatured(ctx context.Context) ([]models.Category, error) {
	return s.filter(ctx, "list_featured", func(c *models.Category) bool { return c.IsFeaturedActive() })
}

// ListActive returns the categories with status active.
func (s *CategoryStore) ListActive(ctx context.Context) ([]models.Category, error) {
	return s.filter(ctx, "list_active", func(c *models.Category) bool {
		return c.Status == models.CategoryStatusActive
	})
}

// Search returns the categories whose name or description contains term,
// ignoring case. An empty term matches everything; callers that want
// "blank means show all" semantics get them for free, callers that want
// something else must check before calling.
func (s *CategoryStore) Search(ctx context.Context, term string) ([]models.Category, error) {
	needle := strings.ToLower(term)
	return s.filter(ctx, "search", func(c *models.Category) bool {
		return strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Description), needle)
	})
}

// Update merges patch into the category with the given ID, refreshes its
// UpdatedAt and persists the collection. Returns nil if not found.
func (s *CategoryStore) Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		metrics.ObserveStore("update", err)
		return nil, fmt.Errorf("update category: %w", err)
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		metrics.ObserveStore("update", nil)
		return nil, nil
	}

	patch.Apply(&items[idx])
	items[idx].UpdatedAt = s.now()

	err = s.save(ctx, items)
	metrics.ObserveStore("update", err)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	updated := items[idx]
	return &updated, nil
}

// Delete removes a category by ID and reports whether anything was
// removed. Children keep their (now dangling) parent reference.
func (s *CategoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		metrics.ObserveStore("delete", err)
		return false, fmt.Errorf("delete category: %w", err)
	}

	kept := items[:0]
	for _, c := range items {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(items) {
		metrics.ObserveStore("delete", nil)
		return false, nil
	}

	err = s.save(ctx, kept)
	metrics.ObserveStore("delete", err)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return true, nil
}

// SlugExists reports whether any category other than excludeID uses slug.
// An empty excludeID excludes nothing.
func (s *CategoryStore) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	matches, err := s.filter(ctx, "slug_exists", func(c *models.Category) bool {
		return c.Slug == slug && (excludeID == "" || c.ID != excludeID)
	})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// Clear removes the whole collection.
func (s *CategoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.slots.Remove(ctx, CategoriesSlot)
	metrics.ObserveStore("clear", err)
	if err != nil {
		return fmt.Errorf("clear categories: %w: %w", ErrUnavailable, err)
	}
	metrics.Categories.Set(0)
	return nil
}

// Count summarises the collection for the dashboard.
func (s *CategoryStore) Count(ctx context.Context) (models.CategoryStats, error) {
	items, err := s.List(ctx)
	if err != nil {
		return models.CategoryStats{}, err
	}
	stats := models.CategoryStats{Total: len(items)}
	for i := range items {
		if items[i].Status == models.CategoryStatusActive {
			stats.Active++
		}
		if items[i].IsFeaturedActive() {
			stats.Featured++
		}
		if items[i].IsTopLevel() {
			stats.TopLevel++
		}
	}
	return stats, nil
}

// Tree returns categories as a nested tree ordered by display order, then
// name. Categories whose parent no longer exists are shown as roots.
func (s *CategoryStore) Tree(ctx context.Context) ([]models.Category, error) {
	flat, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildForest(flat), nil
}

// buildForest picks the roots of a flat list and builds a tree under each.
// Members of parent cycles, which no root reaches, become roots too.
func buildForest(flat []models.Category) []models.Category {
	sortForDisplay(flat)

	ids := make(map[string]bool, len(flat))
	for _, c := range flat {
		ids[c.ID] = true
	}

	visited := make(map[string]bool, len(flat))
	var roots []models.Category
	for _, c := range flat {
		if c.IsTopLevel() || !ids[c.ParentID] {
			visited[c.ID] = true
			c.Depth = 0
			c.Children = buildTree(flat, c.ID, 1, visited)
			roots = append(roots, c)
		}
	}
	for _, c := range flat {
		if !visited[c.ID] {
			visited[c.ID] = true
			c.Depth = 0
			c.Children = buildTree(flat, c.ID, 1, visited)
			roots = append(roots, c)
		}
	}
	return roots
}

// buildTree recursively collects the children of parentID.
func buildTree(flat []models.Category, parentID string, depth int, visited map[string]bool) []models.Category {
	var result []models.Category
	for _, c := range flat {
		if c.ParentID == parentID && !visited[c.ID] {
			visited[c.ID] = true
			c.Depth = depth
			c.Children = buildTree(flat, c.ID, depth+1, visited)
			result = append(result, c)
		}
	}
	return result
}

// sortForDisplay orders categories by display order, then name.
func sortForDisplay(items []models.Category) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DisplayOrder != items[j].DisplayOrder {
			return items[i].DisplayOrder < items[j].DisplayOrder
		}
		return items[i].Name < items[j].Name
	})
}

// FlatTree returns categories as a flat list ordered for display,
// with Depth set for indentation. Useful for listing tables.
func (s *CategoryStore) FlatTree(ctx context.Context) ([]models.Category, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.Category
	flattenTree(tree, &result)
	return result, nil
}

// flattenTree walks a category tree depth-first, appending to result.
func flattenTree(cats []models.Category, result *[]models.Category) {
	for _, c := range cats {
		children := c.Children
		c.Children = nil
		*result = append(*result, c)
		if len(children) > 0 {
			flattenTree(children, result)
		}
	}
}

// NextDisplayOrder returns the next display order value among the
// children of parentID ("" for top level).
func (s *CategoryStore) NextDisplayOrder(ctx context.Context, parentID string) (int, error) {
	siblings, err := s.ListByParent(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if len(siblings) == 0 {
		return 0, nil
	}
	maxOrder := siblings[0].DisplayOrder
	for _, c := range siblings[1:] {
		if c.DisplayOrder > maxOrder {
			maxOrder = c.DisplayOrder
		}
	}
	return maxOrder + 1, nil
}
