// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"catadmin/internal/editor"
	"catadmin/internal/models"
	"catadmin/internal/render"
	"catadmin/internal/slug"
)

// MaxFormBytes caps a category form submission: one image plus the text
// fields.
const MaxFormBytes = editor.MaxImageSize + 1<<20

// CategoriesList renders the category listing. A blank ?q= shows the
// whole catalogue as a tree; otherwise the search results are listed.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	flashes := popFlashes(w, r)

	var (
		items []models.Category
		err   error
	)
	if q == "" {
		items, err = a.categories.FlatTree(ctx)
		if err != nil {
			slog.Error("list categories failed", "error", err)
			flashes = append(flashes, render.Flash{Type: "error", Message: "Failed to load categories. Please try again."})
		}
	} else {
		items, err = a.categories.Search(ctx, q)
		if err != nil {
			slog.Error("search categories failed", "error", err, "q", q)
			flashes = append(flashes, render.Flash{Type: "error", Message: "Failed to search categories."})
		}
	}

	a.renderer.Page(w, r, "categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Flashes: flashes,
		Data: map[string]any{
			"Categories": items,
			"Query":      q,
			"Stats":      shownStats(items),
			"Statuses":   models.CategoryStatuses,
		},
	})
}

// shownStats counts the listed categories the way the listing header
// reports them.
func shownStats(items []models.Category) models.CategoryStats {
	stats := models.CategoryStats{Total: len(items)}
	for i := range items {
		if items[i].Status == models.CategoryStatusActive {
			stats.Active++
		}
		if items[i].IsFeatured {
			stats.Featured++
		}
		if items[i].IsTopLevel() {
			stats.TopLevel++
		}
	}
	return stats
}

// CategoryNew renders the create form. ?parent= preselects a parent and
// places the new record after its last sibling.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ed := a.newEditor()

	var loadErr string
	if err := ed.Open(ctx, ""); err != nil {
		slog.Error("open category form failed", "error", err)
		loadErr = "Failed to load parent categories."
	}

	if parent := r.URL.Query().Get("parent"); parent != "" {
		ed.SetParentID(parent)
		next, err := a.categories.NextDisplayOrder(ctx, parent)
		if err != nil {
			slog.Warn("next display order failed", "error", err, "parent", parent)
		} else {
			ed.SetDisplayOrder(next)
		}
	}

	a.renderForm(w, r, http.StatusOK, ed, map[string]any{"Error": loadErr})
}

// CategoryCreate handles the create form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	ed := a.newEditor()
	if err := ed.Open(r.Context(), ""); err != nil {
		// Parent choices are only needed to re-render the form.
		slog.Warn("load parent choices failed", "error", err)
	}
	a.submit(w, r, ed)
}

// CategoryEdit renders the edit form. Unknown ids go back to the listing.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.openExisting(w, r)
	if !ok {
		return
	}
	a.renderForm(w, r, http.StatusOK, ed, nil)
}

// CategoryUpdate handles the edit form submission.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	ed, ok := a.openExisting(w, r)
	if !ok {
		return
	}
	a.submit(w, r, ed)
}

// openExisting loads the category named by the {id} URL parameter into a
// new editor. On failure it redirects to the listing and returns false.
func (a *Admin) openExisting(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	id := chi.URLParam(r, "id")
	ed := a.newEditor()
	if err := ed.Open(r.Context(), id); err != nil {
		if !errors.Is(err, editor.ErrNotFound) {
			slog.Error("open category failed", "error", err, "id", id)
		}
		setFlash(w, "error", editor.Message(err))
		redirect(w, r, "/admin/categories")
		return nil, false
	}
	return ed, true
}

// submit applies the posted form to the editor and saves it. Creates
// re-render an empty form with the success message; updates go back to
// the listing.
func (a *Admin) submit(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
	ctx := r.Context()

	imageErr, ok := applyForm(w, r, ed)
	if !ok {
		return
	}
	if imageErr != "" {
		errs := ed.Validate()
		errs["image"] = imageErr
		a.renderForm(w, r, http.StatusUnprocessableEntity, ed, map[string]any{
			"Errors": errs,
			"Error":  editor.Message(&editor.ValidationError{Fields: errs}),
		})
		return
	}

	previousImage := ed.Form().ImageURL

	res, err := ed.Submit(ctx)
	if err != nil {
		var verr *editor.ValidationError
		switch {
		case errors.As(err, &verr):
			a.renderForm(w, r, http.StatusUnprocessableEntity, ed, map[string]any{
				"Errors": verr.Fields,
				"Error":  editor.Message(err),
			})
		case errors.Is(err, editor.ErrSlugConflict):
			a.renderForm(w, r, http.StatusUnprocessableEntity, ed, map[string]any{
				"Errors": editor.FieldErrors{"slug": editor.MsgSlugConflict},
				"Error":  editor.Message(err),
			})
		default:
			slog.Error("save category failed", "error", err, "id", ed.ID())
			a.renderForm(w, r, http.StatusInternalServerError, ed, map[string]any{
				"Error": editor.Message(err),
			})
		}
		return
	}

	c := res.Category
	action := "create"
	if res.Redirect {
		action = "update"
	}
	a.invalidateCategoryCache(ctx, c.ID, action)
	if previousImage != "" && previousImage != c.ImageURL {
		a.deleteImage(ctx, previousImage)
	}
	slog.Info("category saved", "action", action, "id", c.ID, "slug", c.Slug)

	if res.Redirect {
		setFlash(w, "success", res.Message)
		redirect(w, r, "/admin/categories")
		return
	}
	a.renderForm(w, r, http.StatusOK, ed, map[string]any{"Message": res.Message})
}

// applyForm copies the posted fields into the editor. It returns a
// user-facing message when the attached image was rejected, and false
// when the request could not be parsed (the response is already written).
func applyForm(w http.ResponseWriter, r *http.Request, ed *editor.Editor) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseMultipartForm(MaxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, editor.MsgImageTooLarge, http.StatusRequestEntityTooLarge)
			return "", false
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return "", false
	}

	name := r.FormValue("name")
	ed.SetName(name)

	// A slug equal to the derived one is the untouched auto value; anything
	// else was typed by hand.
	s := r.FormValue("slug")
	if ed.Editing() || r.FormValue("slug_dirty") != "" || (s != "" && s != slug.Generate(name)) {
		ed.SetSlug(s)
	}

	ed.SetDescription(r.FormValue("description"))
	ed.SetParentID(r.FormValue("parent_id"))
	ed.SetStatus(models.CategoryStatus(r.FormValue("status")))
	ed.SetDisplayOrder(parseDisplayOrder(r.FormValue("display_order")))
	ed.SetFeatured(r.FormValue("is_featured") != "")

	if r.FormValue("remove_image") != "" {
		ed.RemoveImage()
	}

	if r.MultipartForm == nil {
		return "", true
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", true
	}
	if err != nil {
		slog.Warn("read uploaded image failed", "error", err)
		return "Failed to read the uploaded image.", true
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, editor.MaxImageSize+1))
	if err != nil {
		slog.Warn("read uploaded image failed", "error", err)
		return "Failed to read the uploaded image.", true
	}
	if err := ed.AttachImage(header.Filename, header.Header.Get("Content-Type"), data); err != nil {
		return editor.Message(err), true
	}
	return "", true
}

// renderForm renders the category form for the editor's current state.
// extra adds or overrides page data keys ("Errors", "Error", "Message").
func (a *Admin) renderForm(w http.ResponseWriter, r *http.Request, status int, ed *editor.Editor, extra map[string]any) {
	data := map[string]any{
		"Editing":    ed.Editing(),
		"ID":         ed.ID(),
		"Form":       ed.Form(),
		"SlugDirty":  ed.SlugDirty(),
		"PageTitle":  ed.PageTitle(),
		"ButtonText": ed.ButtonText(),
		"Parents":    ed.ParentChoices(),
		"Statuses":   models.CategoryStatuses,
		"Preview":    ed.Preview(),
		"Errors":     editor.FieldErrors{},
		"Error":      "",
		"Message":    "",
	}
	for k, v := range extra {
		data[k] = v
	}

	a.renderer.PageStatus(w, r, status, "category_form", &render.PageData{
		Title:   ed.PageTitle(),
		Section: "categories",
		Data:    data,
	})
}

// CategoryDelete removes a category. Its children are kept and show up at
// the top level of the tree. HTMX requests get an empty 200 so the row
// can be swapped out.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	item, err := a.categories.FindByID(ctx, id)
	if err != nil {
		slog.Error("find category failed", "error", err, "id", id)
		setFlash(w, "error", "An error occurred while deleting the category.")
		redirect(w, r, "/admin/categories")
		return
	}

	removed, err := a.categories.Delete(ctx, id)
	switch {
	case err != nil:
		slog.Error("delete category failed", "error", err, "id", id)
		setFlash(w, "error", "An error occurred while deleting the category.")
	case !removed:
		setFlash(w, "error", "Failed to delete category. It might have already been deleted.")
	default:
		a.invalidateCategoryCache(ctx, id, "delete")
		name := id
		if item != nil {
			name = item.Name
			a.deleteImage(ctx, item.ImageURL)
		}
		slog.Info("category deleted", "id", id)
		if isHTMX(r) {
			w.WriteHeader(http.StatusOK)
			return
		}
		setFlash(w, "success", fmt.Sprintf("%q has been deleted successfully.", name))
	}

	redirect(w, r, "/admin/categories")
}

// CategoryStatus changes only the status of a category, from the
// listing's inline selector.
func (a *Admin) CategoryStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	status := models.CategoryStatus(r.FormValue("status"))
	if !status.Valid() {
		setFlash(w, "error", "Invalid status.")
		redirect(w, r, "/admin/categories")
		return
	}

	updated, err := a.categories.Update(ctx, id, models.CategoryPatch{Status: &status})
	switch {
	case err != nil:
		slog.Error("update category status failed", "error", err, "id", id)
		setFlash(w, "error", "An error occurred while updating status.")
	case updated == nil:
		setFlash(w, "error", "Failed to update category status.")
	default:
		a.invalidateCategoryCache(ctx, id, "status")
		setFlash(w, "success", fmt.Sprintf("Category status updated to %s.", status))
	}

	redirect(w, r, "/admin/categories")
}

// slugInput is the slug field of the category form, returned by
// SlugPreview for HTMX to swap in.
const slugInput = `<input id="slug" name="slug" value="%s" required pattern="[a-z0-9-]+"
           oninput="document.getElementById('slug_dirty').value='1'"
           class="mt-1 block w-full rounded-md border border-gray-300 px-3 py-2 font-mono">`

// SlugPreview returns the slug field derived from ?name=. A slug edited by
// hand (?slug_dirty= set) is echoed back unchanged.
func (a *Admin) SlugPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value := q.Get("slug")
	if q.Get("slug_dirty") == "" {
		if name := q.Get("name"); name != "" {
			value = slug.Generate(name)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, slugInput, html.EscapeString(value))
}
