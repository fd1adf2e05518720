// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"catadmin/internal/middleware"
	"catadmin/internal/models"
	"catadmin/internal/render"
	"catadmin/internal/session"
	"catadmin/internal/store"
)

// totpIssuer labels the console in authenticator apps.
const totpIssuer = "Category Admin"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	accounts *store.AccountStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, accounts *store.AccountStore) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		accounts: accounts,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in with 2FA complete, redirect to dashboard.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	data := map[string]any{}
	if r.URL.Query().Get("registered") != "" {
		data["Notice"] = "Account created. Please sign in."
	}
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  data,
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if errs := validateCredentials(email, password); len(errs) > 0 {
		a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Errors": errs, "Email": email},
		})
		return
	}

	account, err := a.accounts.Authenticate(r.Context(), email, password)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.renderer.PageStatus(w, r, http.StatusInternalServerError, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": "An unexpected error occurred.", "Email": email},
		})
		return
	}
	if account == nil {
		slog.Info("login failed", "email", store.NormalizeEmail(email))
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": "Invalid email or password.", "Email": email},
		})
		return
	}

	// TwoFADone starts as false; the operator must pass the second factor.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		Email:     account.Email,
		TwoFADone: false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	slog.Info("login succeeded", "email", account.Email)

	if account.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
	}
}

// SignupPage renders the sign-up form.
func (a *Auth) SignupPage(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "signup", &render.PageData{
		Title: "Create Account",
	})
}

// SignupSubmit registers the operator account, replacing any previous
// one, and sends the browser to the login page.
func (a *Auth) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if errs := validateCredentials(email, password); len(errs) > 0 {
		a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "signup", &render.PageData{
			Title: "Create Account",
			Data:  map[string]any{"Errors": errs, "Email": email},
		})
		return
	}

	account, err := a.accounts.SignUp(r.Context(), email, password)
	if err != nil {
		slog.Error("sign up failed", "error", err)
		a.renderer.PageStatus(w, r, http.StatusInternalServerError, "signup", &render.PageData{
			Title: "Create Account",
			Data:  map[string]any{"Error": "Could not create the account. Please try again.", "Email": email},
		})
		return
	}
	slog.Info("account registered", "email", account.Email)

	http.Redirect(w, r, "/admin/login?registered=1", http.StatusSeeOther)
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	account, sess, ok := a.sessionAccount(w, r)
	if !ok {
		return
	}
	if account.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.accounts.SetTOTPSecret(r.Context(), key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderSetup(w, r, http.StatusOK, key, "")
}

// renderSetup shows the enrollment page for key, with an optional error.
func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, status int, key *otp.Key, errMsg string) {
	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.PageStatus(w, r, status, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data: map[string]any{
			"QRCode": "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
			"Error":  errMsg,
		},
	})
}

// TwoFAVerifyPage renders the 2FA code entry form for operators who
// already enrolled.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	account, _, ok := a.sessionAccount(w, r)
	if !ok {
		return
	}
	if account.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
// It serves both the enrollment and the verification form.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	account, sess, ok := a.sessionAccount(w, r)
	if !ok {
		return
	}
	if account.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if !totp.Validate(code, *account.TOTPSecret) {
		const msg = "Invalid code. Please try again."
		if !account.TOTPEnabled {
			key, err := otp.NewKeyFromURL(setupURL(account))
			if err != nil {
				slog.Error("rebuild totp key failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			a.renderSetup(w, r, http.StatusUnprocessableEntity, key, msg)
			return
		}

		a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": msg},
		})
		return
	}

	// First successful code completes enrollment.
	if !account.TOTPEnabled {
		if err := a.accounts.EnableTOTP(r.Context()); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// setupURL rebuilds the otpauth URL for an enrollment in progress.
func setupURL(account *models.Account) string {
	v := url.Values{}
	v.Set("secret", *account.TOTPSecret)
	v.Set("issuer", totpIssuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?%s",
		url.PathEscape(totpIssuer), url.PathEscape(account.Email), v.Encode())
}

// sessionAccount loads the account behind the current session. A session
// left over from a replaced account is destroyed and the browser sent to
// the login page; ok is false whenever a response was already written.
func (a *Auth) sessionAccount(w http.ResponseWriter, r *http.Request) (*models.Account, *session.Data, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return nil, nil, false
	}

	account, err := a.accounts.Account(r.Context())
	if err != nil {
		slog.Error("account lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	if account == nil || account.Email != sess.Email {
		a.sessions.Destroy(r.Context(), w, r)
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return nil, nil, false
	}
	return account, sess, true
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
