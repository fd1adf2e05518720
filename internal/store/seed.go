package store

import (
	"context"
	"fmt"
	"log/slog"

	"catadmin/internal/models"
)

// SeedSamples populates an empty category collection with sample data:
// two featured top-level categories and one subcategory. It reports
// whether anything was written.
func (s *CategoryStore) SeedSamples(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return false, fmt.Errorf("seed check categories: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("categories already seeded, skipping")
		return false, nil
	}

	now := s.now()
	electronics := models.Category{
		ID:           s.newID(),
		Name:         "Electronics",
		Slug:         "electronics",
		Description:  "All electronic gadgets and devices",
		Status:       models.CategoryStatusActive,
		DisplayOrder: 1,
		IsFeatured:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	clothing := models.Category{
		ID:           s.newID(),
		Name:         "Clothing",
		Slug:         "clothing",
		Description:  "Fashion and apparel",
		Status:       models.CategoryStatusActive,
		DisplayOrder: 2,
		IsFeatured:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The parent is the record's identifier, not its slug.
	phones := models.Category{
		ID:           s.newID(),
		Name:         "Mobile Phones",
		Slug:         "mobile-phones",
		Description:  "Smartphones and feature phones",
		ParentID:     electronics.ID,
		Status:       models.CategoryStatusActive,
		DisplayOrder: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.save(ctx, []models.Category{electronics, clothing, phones}); err != nil {
		return false, fmt.Errorf("seed insert categories: %w", err)
	}

	slog.Info("categories seeded with sample data", "count", 3)
	return true, nil
}
