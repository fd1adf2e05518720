// Package session provides slot-backed HTTP session management.
// Sessions are identified by a secure cookie and stored as JSON in a
// storage slot named after the session ID. Expiry is kept in the payload
// and enforced on read. A separate index slot maps session IDs to their
// expiry so abandoned sessions can be swept without a backend-level TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"catadmin/internal/slot"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "ca_session"

	// DefaultTTL is how long a session lives before it expires.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session slots to avoid collisions.
	keyPrefix = "session:"

	// indexKey is the slot holding the session ID to expiry map.
	indexKey = "session-index"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32

	// DefaultSweepInterval is how often StartSweeper purges expired sessions.
	DefaultSweepInterval = 15 * time.Minute
)

// Data holds the session payload. It contains the authenticated
// operator's identity and 2FA completion status.
type Data struct {
	Email     string    `json:"email"`
	TwoFADone bool      `json:"two_fa_done"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store manages session lifecycle in storage slots.
type Store struct {
	slots  slot.Store
	ttl    time.Duration
	secure bool
	now    func() time.Time

	indexMu sync.Mutex // serializes read-modify-write of the index slot
	stopCh  chan struct{}
	once    sync.Once
}

// NewStore creates a session store on the given slots. Set secure when
// the console is served over TLS so the cookie carries the Secure flag.
func NewStore(slots slot.Store, secure bool) *Store {
	return &Store{
		slots:  slots,
		ttl:    DefaultTTL,
		secure: secure,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// Create generates a new session, stores it, and sets the session cookie
// on the response. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = s.now().UTC()
	if err := s.write(ctx, id, data); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data using the session ID from the request cookie.
// Returns nil if no valid session exists. Expired sessions are removed.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, ok, err := s.slots.Get(ctx, keyPrefix+cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	if !ok {
		return nil, nil // Session expired or doesn't exist
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	if !s.now().Before(data.ExpiresAt) {
		_ = s.slots.Remove(ctx, keyPrefix+cookie.Value)
		_ = s.untrack(ctx, cookie.Value)
		return nil, nil
	}

	return &data, nil
}

// Update replaces the session data without changing the session ID or
// cookie. Resets the TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return fmt.Errorf("session update: no cookie")
	}

	if err := s.write(ctx, cookie.Value, data); err != nil {
		return fmt.Errorf("session update: %w", err)
	}

	return nil
}

// Destroy removes the session and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	if err := s.slots.Remove(ctx, keyPrefix+cookie.Value); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	if err := s.untrack(ctx, cookie.Value); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})

	return nil
}

// write stamps a fresh expiry on data and stores it under id.
func (s *Store) write(ctx context.Context, id string, data *Data) error {
	data.ExpiresAt = s.now().Add(s.ttl).UTC()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.slots.Set(ctx, keyPrefix+id, payload); err != nil {
		return err
	}
	return s.track(ctx, id, data.ExpiresAt)
}

// Sweep removes every indexed session whose expiry has passed and returns
// how many were removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	removed := 0
	for id, expires := range index {
		if now.Before(expires) {
			continue
		}
		if err := s.slots.Remove(ctx, keyPrefix+id); err != nil {
			return removed, fmt.Errorf("session sweep %s: %w", id, err)
		}
		delete(index, id)
		removed++
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.saveIndex(ctx, index); err != nil {
		return removed, err
	}
	return removed, nil
}

// StartSweeper runs Sweep every interval in the background until Stop is
// called.
func (s *Store) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := s.Sweep(context.Background())
				if err != nil {
					slog.Warn("session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Debug("expired sessions removed", "count", n)
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the background sweeper. Safe to call twice.
func (s *Store) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// track records the expiry of session id in the index slot.
func (s *Store) track(ctx context.Context, id string, expires time.Time) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	index[id] = expires
	return s.saveIndex(ctx, index)
}

// untrack drops session id from the index slot.
func (s *Store) untrack(ctx context.Context, id string) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	if _, ok := index[id]; !ok {
		return nil
	}
	delete(index, id)
	return s.saveIndex(ctx, index)
}

func (s *Store) loadIndex(ctx context.Context) (map[string]time.Time, error) {
	index := make(map[string]time.Time)
	payload, ok, err := s.slots.Get(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("session index get: %w", err)
	}
	if !ok {
		return index, nil
	}
	if err := json.Unmarshal(payload, &index); err != nil {
		// A damaged index only costs us sweeping; start over.
		slog.Warn("session index unreadable, resetting", "error", err)
		return make(map[string]time.Time), nil
	}
	return index, nil
}

func (s *Store) saveIndex(ctx context.Context, index map[string]time.Time) error {
	payload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("session index marshal: %w", err)
	}
	if err := s.slots.Set(ctx, indexKey, payload); err != nil {
		return fmt.Errorf("session index set: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
