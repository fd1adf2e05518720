// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// CategoryStatus is the publication state of a category.
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
	CategoryStatusDraft    CategoryStatus = "draft"
)

// CategoryStatuses lists every accepted status in display order.
var CategoryStatuses = []CategoryStatus{
	CategoryStatusActive,
	CategoryStatusInactive,
	CategoryStatusDraft,
}

// Valid reports whether s is one of the enumerated statuses.
func (s CategoryStatus) Valid() bool {
	switch s {
	case CategoryStatusActive, CategoryStatusInactive, CategoryStatusDraft:
		return true
	}
	return false
}

// Label returns the status with its first letter capitalised.
func (s CategoryStatus) Label() string {
	if s == "" {
		return ""
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// Category is one record of the category catalogue. The JSON field names
// are the persisted slot layout.
type Category struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Description  string         `json:"description,omitempty"`
	ParentID     string         `json:"parentId,omitempty"`
	Status       CategoryStatus `json:"status"`
	DisplayOrder int            `json:"displayOrder"`
	IsFeatured   bool           `json:"isFeatured"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	// Virtual fields populated by tree views, never persisted.
	Children []Category `json:"children,omitempty"`
	Depth    int        `json:"-"`
}

// IsTopLevel returns true when the category has no parent.
func (c *Category) IsTopLevel() bool {
	return c.ParentID == ""
}

// IsFeaturedActive returns true when the category is shown as featured:
// flagged and active at the same time.
func (c *Category) IsFeaturedActive() bool {
	return c.IsFeatured && c.Status == CategoryStatusActive
}

// CategoryInput carries every caller-supplied field of a new category.
// Identifier and timestamps are assigned by the store.
type CategoryInput struct {
	Name         string
	Slug         string
	Description  string
	ParentID     string
	Status       CategoryStatus
	DisplayOrder int
	IsFeatured   bool
	ImageURL     string
}

// CategoryPatch is a partial update. Nil fields are left unchanged.
type CategoryPatch struct {
	Name         *string
	Slug         *string
	Description  *string
	ParentID     *string
	Status       *CategoryStatus
	DisplayOrder *int
	IsFeatured   *bool
	ImageURL     *string
}

// Apply merges the non-nil patch fields into c. Identifier and
// timestamps are never touched.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Slug != nil {
		c.Slug = *p.Slug
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ParentID != nil {
		c.ParentID = *p.ParentID
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.DisplayOrder != nil {
		c.DisplayOrder = *p.DisplayOrder
	}
	if p.IsFeatured != nil {
		c.IsFeatured = *p.IsFeatured
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
}

// PatchFromInput returns a patch that overwrites every editable field
// with the values of in.
func PatchFromInput(in CategoryInput) CategoryPatch {
	return CategoryPatch{
		Name:         &in.Name,
		Slug:         &in.Slug,
		Description:  &in.Description,
		ParentID:     &in.ParentID,
		Status:       &in.Status,
		DisplayOrder: &in.DisplayOrder,
		IsFeatured:   &in.IsFeatured,
		ImageURL:     &in.ImageURL,
	}
}

// CategoryStats summarises the catalogue for the dashboard.
type CategoryStats struct {
	Total    int
	Active   int
	Featured int
	TopLevel int
}
