// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Every test runs on in-memory slots; Valkey-backed cases are skipped
// when Valkey is unavailable.
package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"catadmin/internal/cache"
	"catadmin/internal/middleware"
	"catadmin/internal/models"
	"catadmin/internal/render"
	"catadmin/internal/session"
	"catadmin/internal/slot"
	"catadmin/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "api:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Slots      slot.Store
	Renderer   *render.Renderer
	Sessions   *session.Store
	Categories *store.CategoryStore
	Accounts   *store.AccountStore
	Cache      *cache.ResponseCache
	Admin      *Admin
	Auth       *Auth
	API        *API
}

// newTestEnv creates a complete test environment on fresh in-memory slots.
// responseCache may be nil.
func newTestEnv(t *testing.T, responseCache *cache.ResponseCache) *testEnv {
	t.Helper()

	slots := slot.NewMemory()
	t.Cleanup(func() { slots.Close() })

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(slots, false)
	categories := store.NewCategoryStore(slots)
	accounts := store.NewAccountStore(slots)

	return &testEnv{
		Slots:      slots,
		Renderer:   renderer,
		Sessions:   sessions,
		Categories: categories,
		Accounts:   accounts,
		Cache:      responseCache,
		Admin:      NewAdmin(renderer, categories, nil, responseCache),
		Auth:       NewAuth(renderer, sessions, accounts),
		API:        NewAPI(categories, responseCache),
	}
}

// mustCreate adds a category to the store or fails the test.
func (e *testEnv) mustCreate(t *testing.T, in models.CategoryInput) *models.Category {
	t.Helper()
	if in.Status == "" {
		in.Status = models.CategoryStatusActive
	}
	c, err := e.Categories.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create %q: %v", in.Name, err)
	}
	return c
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// postForm builds a urlencoded POST request.
func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// postMultipart builds a multipart POST request with the given fields and
// one file part named "image".
func postMultipart(t *testing.T, target string, form url.Values, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range form {
		for _, v := range vs {
			mw.WriteField(k, v)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// flashesOf decodes the flash cookie set on a recorded response.
func flashesOf(t *testing.T, w *httptest.ResponseRecorder) []render.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return popFlashes(httptest.NewRecorder(), req)
}

// loggedIn creates a stored session for email and returns a request
// carrying both the cookie and the session in its context.
func (e *testEnv) loggedIn(t *testing.T, req *http.Request, email string, twoFADone bool) (*http.Request, *session.Data) {
	t.Helper()
	data := &session.Data{Email: email, TwoFADone: twoFADone}
	w := httptest.NewRecorder()
	if _, err := e.Sessions.Create(context.Background(), w, data); err != nil {
		t.Fatalf("session create: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req.WithContext(ctxWithSession(req.Context(), data)), data
}
