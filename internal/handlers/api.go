// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"catadmin/internal/cache"
	"catadmin/internal/models"
	"catadmin/internal/store"
)

// API serves the read-only JSON view of the catalogue. Listing responses
// are cached in Valkey when a cache is configured.
type API struct {
	categories *store.CategoryStore
	cache      *cache.ResponseCache
}

// NewAPI creates the JSON API handler group. responseCache may be nil.
func NewAPI(categories *store.CategoryStore, responseCache *cache.ResponseCache) *API {
	return &API{categories: categories, cache: responseCache}
}

// List returns every category, or the search results for ?q=.
func (a *API) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	a.cachedList(w, r, func(ctx context.Context) ([]models.Category, error) {
		if q == "" {
			return a.categories.List(ctx)
		}
		return a.categories.Search(ctx, q)
	})
}

// Featured returns the featured categories.
func (a *API) Featured(w http.ResponseWriter, r *http.Request) {
	a.cachedList(w, r, a.categories.ListFeatured)
}

// Active returns the active categories.
func (a *API) Active(w http.ResponseWriter, r *http.Request) {
	a.cachedList(w, r, a.categories.ListActive)
}

// TopLevel returns the categories without a parent.
func (a *API) TopLevel(w http.ResponseWriter, r *http.Request) {
	a.cachedList(w, r, a.categories.ListTopLevel)
}

// Tree returns the nested category forest.
func (a *API) Tree(w http.ResponseWriter, r *http.Request) {
	a.cachedList(w, r, a.categories.Tree)
}

// Children returns the direct children of {id}.
func (a *API) Children(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.cachedList(w, r, func(ctx context.Context) ([]models.Category, error) {
		return a.categories.ListByParent(ctx, id)
	})
}

// Get returns one category by id.
func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := a.categories.FindByID(r.Context(), id)
	if err != nil {
		a.storeError(w, "get category", err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// cachedList serves a listing from the response cache, loading and
// caching it on a miss. Empty results encode as [] rather than null.
func (a *API) cachedList(w http.ResponseWriter, r *http.Request, load func(context.Context) ([]models.Category, error)) {
	ctx := r.Context()
	key := cache.RequestKey(r)

	if body, ok := a.cache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(body)
		return
	}

	items, err := load(ctx)
	if err != nil {
		a.storeError(w, "list categories", err)
		return
	}
	if items == nil {
		items = []models.Category{}
	}

	body, err := json.Marshal(items)
	if err != nil {
		slog.Error("encode categories failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	a.cache.Set(ctx, key, body)

	w.Header().Set("Content-Type", "application/json")
	if a.cache.Enabled() {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Write(body)
}

func (a *API) storeError(w http.ResponseWriter, op string, err error) {
	slog.Error(op+" failed", "error", err)
	if errors.Is(err, store.ErrUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}
