// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the category console.
// Handlers are grouped by concern (admin screens, auth, JSON API) and
// receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"catadmin/internal/cache"
	"catadmin/internal/editor"
	"catadmin/internal/render"
	"catadmin/internal/storage"
	"catadmin/internal/store"
)

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer      *render.Renderer
	categories    *store.CategoryStore
	storageClient *storage.Client
	apiCache      *cache.ResponseCache
}

// NewAdmin creates a new Admin handler group with the given dependencies.
// storageClient may be nil if S3 is not configured; apiCache may be nil
// when responses are not cached.
func NewAdmin(renderer *render.Renderer, categories *store.CategoryStore, storageClient *storage.Client, apiCache *cache.ResponseCache) *Admin {
	return &Admin{
		renderer:      renderer,
		categories:    categories,
		storageClient: storageClient,
		apiCache:      apiCache,
	}
}

// Dashboard renders the admin dashboard with catalogue stats and the
// featured categories.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := a.categories.Count(ctx)
	if err != nil {
		slog.Error("count categories failed", "error", err)
	}
	featured, err := a.categories.ListFeatured(ctx)
	if err != nil {
		slog.Error("list featured categories failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Flashes: popFlashes(w, r),
		Data: map[string]any{
			"Stats":    stats,
			"Featured": featured,
		},
	})
}

// newEditor returns a category editor wired to the store and, when
// object storage is configured, to the image uploader.
func (a *Admin) newEditor() *editor.Editor {
	if a.storageClient == nil {
		return editor.New(a.categories, nil)
	}
	return editor.New(a.categories, a.storageClient)
}

// invalidateCategoryCache drops every cached API response. Any category
// mutation can change any listing.
func (a *Admin) invalidateCategoryCache(ctx context.Context, id, action string) {
	a.apiCache.InvalidateAll(ctx)
	slog.Debug("category cache invalidated", "id", id, "action", action)
}

// deleteImage removes a stored category image, best effort.
func (a *Admin) deleteImage(ctx context.Context, url string) {
	if a.storageClient == nil || url == "" {
		return
	}
	if err := a.storageClient.DeleteImage(ctx, url); err != nil {
		slog.Warn("delete category image failed", "url", url, "error", err)
	}
}

// redirect sends the client to url. HTMX requests get an HX-Redirect
// header so the whole page navigates instead of swapping a fragment.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
