package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"catadmin/internal/render"
)

// flashCookie carries one-time messages across a redirect.
const flashCookie = "ca_flash"

// setFlash queues a message for the next rendered admin page. Only the
// latest message survives if several are set before a page is shown.
func setFlash(w http.ResponseWriter, kind, message string) {
	payload, err := json.Marshal([]render.Flash{{Type: kind, Message: message}})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// popFlashes returns the queued messages and clears the cookie. A
// malformed cookie is dropped silently.
func popFlashes(w http.ResponseWriter, r *http.Request) []render.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/admin",
		HttpOnly: true,
		MaxAge:   -1,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []render.Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
