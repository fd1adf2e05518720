// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor implements the category form controller. An Editor holds
// the state of one create or edit form: field values, the slug
// auto-derivation flag, parent choices and an optional image attachment.
// It validates input, enforces slug uniqueness through the repository and
// persists the result.
//
// An Editor is not safe for concurrent use; HTTP handlers build one per
// request.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"catadmin/internal/models"
	"catadmin/internal/slug"
)

// Validation limits for category fields.
const (
	minNameLen        = 3
	maxNameLen        = 100
	maxDescriptionLen = 500
)

// Repository is the subset of the category store used by the editor.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ListTopLevel(ctx context.Context) ([]models.Category, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error)
}

// ImageUploader turns an accepted attachment into a durable URL.
// DeleteImage takes back a URL returned by UploadImage.
type ImageUploader interface {
	UploadImage(ctx context.Context, name, contentType string, data []byte) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

// Form holds the editable field values.
type Form struct {
	Name         string
	Slug         string
	Description  string
	ParentID     string
	Status       models.CategoryStatus
	DisplayOrder int
	IsFeatured   bool
	// ImageURL is the stored image of the record being edited.
	ImageURL string
}

func defaultForm() Form {
	return Form{Status: models.CategoryStatusActive}
}

// Result describes a successful submission.
type Result struct {
	Category *models.Category
	Message  string
	// Redirect is set after an update; the caller should return to the listing.
	Redirect bool
}

// Editor is the controller behind the category create/edit form.
type Editor struct {
	repo     Repository
	uploader ImageUploader

	id        string
	form      Form
	slugDirty bool
	parents   []models.Category

	image        *Image
	imageRemoved bool
}

// New returns an editor in create mode. uploader may be nil, in which case
// attached images are preview-only.
func New(repo Repository, uploader ImageUploader) *Editor {
	return &Editor{repo: repo, uploader: uploader, form: defaultForm()}
}

// Open prepares the form. A non-empty id switches to edit mode and loads
// the record, returning ErrNotFound if it does not exist. An empty id
// keeps create mode with default values. Parent choices are loaded in
// both modes.
func (e *Editor) Open(ctx context.Context, id string) error {
	e.id = id
	if id != "" {
		if err := e.load(ctx); err != nil {
			return err
		}
	} else {
		e.clear()
	}
	return e.loadParents(ctx)
}

func (e *Editor) load(ctx context.Context) error {
	c, err := e.repo.FindByID(ctx, e.id)
	if err != nil {
		return fmt.Errorf("load category %s: %w", e.id, err)
	}
	if c == nil {
		return ErrNotFound
	}
	e.form = Form{
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ParentID:     c.ParentID,
		Status:       c.Status,
		DisplayOrder: c.DisplayOrder,
		IsFeatured:   c.IsFeatured,
		ImageURL:     c.ImageURL,
	}
	e.slugDirty = false
	e.image = nil
	e.imageRemoved = false
	return nil
}

func (e *Editor) loadParents(ctx context.Context) error {
	top, err := e.repo.ListTopLevel(ctx)
	if err != nil {
		return fmt.Errorf("load parent choices: %w", err)
	}
	parents := make([]models.Category, 0, len(top))
	for _, c := range top {
		if e.id != "" && c.ID == e.id {
			continue
		}
		parents = append(parents, c)
	}
	e.parents = parents
	return nil
}

func (e *Editor) clear() {
	e.form = defaultForm()
	e.slugDirty = false
	e.image = nil
	e.imageRemoved = false
}

// Editing reports whether the editor is in edit mode.
func (e *Editor) Editing() bool { return e.id != "" }

// ID returns the identifier of the record being edited, or "".
func (e *Editor) ID() string { return e.id }

// Form returns a copy of the current field values.
func (e *Editor) Form() Form { return e.form }

// SlugDirty reports whether the slug was set by hand.
func (e *Editor) SlugDirty() bool { return e.slugDirty }

// PageTitle returns the heading for the current mode.
func (e *Editor) PageTitle() string {
	if e.Editing() {
		return "Edit Category"
	}
	return "Create New Category"
}

// ButtonText returns the submit button label for the current mode.
func (e *Editor) ButtonText() string {
	if e.Editing() {
		return "Update Category"
	}
	return "Create Category"
}

// ParentChoices returns the top-level categories a record may be placed
// under, excluding the record being edited.
func (e *Editor) ParentChoices() []models.Category { return e.parents }

// SetName sets the name. In create mode, and until the slug is edited by
// hand, a non-empty name also replaces the slug with its derived form.
func (e *Editor) SetName(name string) {
	e.form.Name = name
	if !e.Editing() && !e.slugDirty && name != "" {
		e.form.Slug = slug.Generate(name)
	}
}

// SetSlug sets the slug by hand and stops auto-derivation.
func (e *Editor) SetSlug(s string) {
	e.form.Slug = s
	e.slugDirty = true
}

func (e *Editor) SetDescription(d string) { e.form.Description = d }
func (e *Editor) SetParentID(id string) { e.form.ParentID = id }
func (e *Editor) SetStatus(s models.CategoryStatus) { e.form.Status = s }
func (e *Editor) SetDisplayOrder(n int) { e.form.DisplayOrder = n }
func (e *Editor) SetFeatured(featured bool) { e.form.IsFeatured = featured }

// Validate checks every field and returns one message per failing field.
// An empty result means the form is valid.
func (e *Editor) Validate() FieldErrors {
	errs := FieldErrors{}
	f := e.form

	switch n := utf8.RuneCountInString(f.Name); {
	case n == 0:
		errs["name"] = "Category name is required."
	case n < minNameLen:
		errs["name"] = "Category name must be at least 3 characters."
	case n > maxNameLen:
		errs["name"] = "Category name cannot exceed 100 characters."
	}

	switch {
	case f.Slug == "":
		errs["slug"] = "Slug is required."
	case !slug.Valid(f.Slug):
		errs["slug"] = "Slug can only contain lowercase letters, numbers, and hyphens."
	}

	if utf8.RuneCountInString(f.Description) > maxDescriptionLen {
		errs["description"] = "Description cannot exceed 500 characters."
	}

	if !f.Status.Valid() {
		errs["status"] = "Status is required."
	}

	if f.DisplayOrder < 0 {
		errs["displayOrder"] = "Display order cannot be negative."
	}

	return errs
}

// AttachImage accepts an image for the category. On error the previous
// attachment is kept.
func (e *Editor) AttachImage(name, contentType string, data []byte) error {
	canonical, err := checkImage(contentType, data)
	if err != nil {
		return err
	}
	e.image = &Image{Name: name, ContentType: canonical, Data: data}
	e.imageRemoved = false
	return nil
}

// Image returns the pending attachment, or nil.
func (e *Editor) Image() *Image { return e.image }

// Preview returns what the image preview should show: the pending
// attachment as a data URL, or the stored image URL.
func (e *Editor) Preview() string {
	if e.image != nil {
		return e.image.DataURL()
	}
	if e.imageRemoved {
		return ""
	}
	return e.form.ImageURL
}

// RemoveImage drops the pending attachment and, on submit, the stored image.
func (e *Editor) RemoveImage() {
	e.image = nil
	e.imageRemoved = true
}

// Submit validates the form, checks slug uniqueness and saves the record.
//
// Errors: *ValidationError when fields are invalid, ErrSlugConflict when
// another record uses the slug, *SaveError when the repository or the
// uploader fails. Nothing is written on error: an image uploaded for a
// save that then fails is deleted again.
//
// After a create the form returns to its defaults and parent choices are
// refreshed. After an update the result asks the caller to redirect.
func (e *Editor) Submit(ctx context.Context) (*Result, error) {
	if errs := e.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	exists, err := e.repo.SlugExists(ctx, e.form.Slug, e.id)
	if err != nil {
		return nil, &SaveError{Message: "Error checking slug availability", Err: err}
	}
	if exists {
		return nil, ErrSlugConflict
	}

	imageURL := e.form.ImageURL
	if e.imageRemoved {
		imageURL = ""
	}
	uploaded := ""
	if e.image != nil && e.uploader != nil {
		url, err := e.uploader.UploadImage(ctx, e.image.Name, e.image.ContentType, e.image.Data)
		if err != nil {
			return nil, &SaveError{Message: "Failed to upload image", Err: err}
		}
		imageURL = url
		uploaded = url
	}

	in := models.CategoryInput{
		Name:         e.form.Name,
		Slug:         e.form.Slug,
		Description:  e.form.Description,
		ParentID:     e.form.ParentID,
		Status:       e.form.Status,
		DisplayOrder: e.form.DisplayOrder,
		IsFeatured:   e.form.IsFeatured,
		ImageURL:     imageURL,
	}

	var res *Result
	if e.Editing() {
		res, err = e.update(ctx, in)
	} else {
		res, err = e.create(ctx, in)
	}
	if err != nil && uploaded != "" {
		e.discardUpload(ctx, uploaded)
	}
	return res, err
}

// discardUpload deletes an object uploaded for a save that did not happen.
// The save error is what the caller reports, so a failed delete is only
// logged.
func (e *Editor) discardUpload(ctx context.Context, url string) {
	if err := e.uploader.DeleteImage(context.WithoutCancel(ctx), url); err != nil {
		slog.Warn("failed to delete orphaned category image", "url", url, "error", err)
	}
}

func (e *Editor) create(ctx context.Context, in models.CategoryInput) (*Result, error) {
	c, err := e.repo.Create(ctx, in)
	if err != nil {
		return nil, &SaveError{Message: "Failed to create category", Err: err}
	}

	e.clear()
	// A failed refresh keeps the previous choices; the record is saved.
	_ = e.loadParents(ctx)

	return &Result{
		Category: c,
		Message:  fmt.Sprintf("Category %q created successfully!", c.Name),
	}, nil
}

func (e *Editor) update(ctx context.Context, in models.CategoryInput) (*Result, error) {
	c, err := e.repo.Update(ctx, e.id, models.PatchFromInput(in))
	if err != nil {
		return nil, &SaveError{Message: "Failed to update category", Err: err}
	}
	if c == nil {
		return nil, &SaveError{Message: "Failed to update category", Err: ErrNotFound}
	}

	e.form.ImageURL = c.ImageURL
	e.image = nil
	e.imageRemoved = false

	return &Result{
		Category: c,
		Message:  fmt.Sprintf("Category %q updated successfully!", c.Name),
		Redirect: true,
	}, nil
}

// Reset discards unsaved changes. In edit mode the record is reloaded; in
// create mode the form returns to its defaults.
func (e *Editor) Reset(ctx context.Context) error {
	if e.Editing() {
		return e.load(ctx)
	}
	e.clear()
	return nil
}
