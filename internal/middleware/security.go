// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// ConsoleCSP allows what the admin pages load: Tailwind and htmx from
// their CDNs, inline handlers on the category list and form, data: URLs
// for the QR code and image previews, and category images from the
// object store.
const ConsoleCSP = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"connect-src 'self'; " +
	"form-action 'self'; " +
	"frame-ancestors 'self'; " +
	"base-uri 'self'; " +
	"object-src 'none'"

// APICSP locks JSON responses down completely.
const APICSP = "default-src 'none'; frame-ancestors 'none'"

// SecureHeaders adds security headers to every response. The API gets a
// deny-all content policy; console pages get ConsoleCSP.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		// The console never needs device access.
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")

		if isAPIRequest(r) {
			h.Set("Content-Security-Policy", APICSP)
			h.Set("X-Frame-Options", "DENY")
		} else {
			h.Set("Content-Security-Policy", ConsoleCSP)
			h.Set("X-Frame-Options", "SAMEORIGIN")
		}

		next.ServeHTTP(w, r)
	})
}

// NoStore marks responses as uncacheable by browsers and proxies. Applied
// to the admin console and API, whose responses depend on the session.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
