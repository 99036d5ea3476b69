package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/yourorg/domus-api/internal/auth"
	"github.com/yourorg/domus-api/internal/store"
)

type TokenIssuer interface {
	TokenParser
	NewUserToken(email string) (string, *auth.Claims, error)
	NewGuestToken() (string, *auth.Claims, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u store.User) (store.User, error)
	FindUserByEmail(ctx context.Context, email string) (store.User, error)
	UpdateUserName(ctx context.Context, email, name string) error
	UpdatePasswordHash(ctx context.Context, email, hash string) error
	DeleteUser(ctx context.Context, email string) error
}

// SubjectCleaner removes per-subject state when an account goes away.
type SubjectCleaner interface {
	DeleteAll(ctx context.Context, subject string) error
}

type CompareClearer interface {
	Clear(ctx context.Context, subject string) error
}

type AuthDeps struct {
	Tokens  TokenIssuer
	Users   UserStore // nil runs in stateless mode: any well-formed login succeeds
	Prefs   SubjectCleaner
	Compare CompareClearer
	Logger  *zap.Logger
}

type signupRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type userView struct {
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	Guest     bool       `json:"guest"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func viewOf(u store.User) userView {
	v := userView{Email: u.Email, Name: u.Name}
	if !u.CreatedAt.IsZero() {
		v.CreatedAt = &u.CreatedAt
	}
	return v
}

// RegisterAuth mounts the public session routes on r and the account routes
// on authed, which must already require a session.
func RegisterAuth(r chi.Router, authed chi.Router, d AuthDeps) {
	r.Post("/v1/auth/signup", d.signup)
	r.Post("/v1/auth/login", d.login)
	r.Post("/v1/auth/guest", d.guest)

	authed.Get("/v1/me", d.me)
	authed.With(RequireUser).Patch("/v1/me", d.updateMe)
	authed.With(RequireUser).Delete("/v1/me", d.deleteMe)
	authed.With(RequireUser).Post("/v1/me/password", d.changePassword)
}

func (d AuthDeps) issue(w http.ResponseWriter, r *http.Request, status int, u store.User) {
	tok, claims, err := d.Tokens.NewUserToken(u.Email)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]any{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_at":   claims.ExpiresAt.Time,
		"user":         viewOf(u),
	})
}

func fieldError(w http.ResponseWriter, r *http.Request, err error) bool {
	var fe *auth.FieldError
	if errors.As(err, &fe) {
		writeFieldError(w, r, fe)
		return true
	}
	return false
}

func (d AuthDeps) signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	email := auth.NormalizeEmail(body.Email)
	if err := auth.ValidateEmail(email); err != nil {
		fieldError(w, r, err)
		return
	}
	confirm := body.ConfirmPassword
	if confirm == "" {
		confirm = body.Password
	}
	if err := auth.ValidateNewPassword(body.Password, confirm); err != nil {
		fieldError(w, r, err)
		return
	}
	if d.Users == nil {
		writeStorageUnavailable(w, r)
		return
	}
	u, err := d.createUser(r.Context(), email, strings.TrimSpace(body.Name), body.Password)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, r, http.StatusConflict, "email_taken", "an account with this email already exists")
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	d.issue(w, r, http.StatusCreated, u)
}

func (d AuthDeps) createUser(ctx context.Context, email, name, password string) (store.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, err
	}
	return d.Users.CreateUser(ctx, store.User{Email: email, Name: name, PasswordHash: hash})
}

// login signs in a registered user. An email that has no account yet is
// registered on first login with the given password.
func (d AuthDeps) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	email := auth.NormalizeEmail(body.Email)
	if err := auth.ValidateLogin(email, body.Password); err != nil {
		fieldError(w, r, err)
		return
	}
	if d.Users == nil {
		d.issue(w, r, http.StatusOK, store.User{Email: email})
		return
	}

	u, err := d.Users.FindUserByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		if err := auth.ValidateNewPassword(body.Password, body.Password); err != nil {
			fieldError(w, r, err)
			return
		}
		u, err = d.createUser(r.Context(), email, "", body.Password)
		if err == nil {
			d.issue(w, r, http.StatusOK, u)
			return
		}
		if !errors.Is(err, store.ErrEmailTaken) {
			writeInternal(w, r, err)
			return
		}
		// Lost a race with another first login for the same email.
		u, err = d.Users.FindUserByEmail(r.Context(), email)
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	ok, err := auth.CheckPassword(body.Password, u.PasswordHash)
	if err != nil || !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", auth.ErrBadCredentials.Error())
		return
	}
	d.issue(w, r, http.StatusOK, u)
}

func (d AuthDeps) guest(w http.ResponseWriter, r *http.Request) {
	tok, claims, err := d.Tokens.NewGuestToken()
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_at":   claims.ExpiresAt.Time,
		"user":         userView{Guest: true},
	})
}

func (d AuthDeps) me(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFrom(r.Context())
	if c.IsGuest() {
		render.JSON(w, r, map[string]any{"ok": true, "user": userView{Guest: true}})
		return
	}
	if d.Users == nil {
		render.JSON(w, r, map[string]any{"ok": true, "user": userView{Email: c.Email}})
		return
	}
	u, err := d.Users.FindUserByEmail(r.Context(), c.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", "account no longer exists")
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "user": viewOf(u)})
}

func (d AuthDeps) updateMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if d.Users == nil {
		writeStorageUnavailable(w, r)
		return
	}
	email := userEmail(r)
	if err := d.Users.UpdateUserName(r.Context(), email, strings.TrimSpace(body.Name)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "account no longer exists")
			return
		}
		writeInternal(w, r, err)
		return
	}
	d.me(w, r)
}

// deleteMe removes the account with its saved properties, preferences,
// history and comparison list.
func (d AuthDeps) deleteMe(w http.ResponseWriter, r *http.Request) {
	if d.Users == nil {
		writeStorageUnavailable(w, r)
		return
	}
	c, _ := ClaimsFrom(r.Context())
	if err := d.Users.DeleteUser(r.Context(), c.Email); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeInternal(w, r, err)
		return
	}
	if d.Prefs != nil {
		if err := d.Prefs.DeleteAll(r.Context(), c.Subject); err != nil {
			d.warn("preferences cleanup failed", err)
		}
	}
	if d.Compare != nil {
		if err := d.Compare.Clear(r.Context(), c.Subject); err != nil {
			d.warn("compare cleanup failed", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d AuthDeps) changePassword(w http.ResponseWriter, r *http.Request) {
	var body passwordRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := auth.ValidateNewPassword(body.NewPassword, body.ConfirmPassword); err != nil {
		fieldError(w, r, err)
		return
	}
	if d.Users == nil {
		writeStorageUnavailable(w, r)
		return
	}
	email := userEmail(r)
	u, err := d.Users.FindUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "account no longer exists")
			return
		}
		writeInternal(w, r, err)
		return
	}
	if ok, err := auth.CheckPassword(body.CurrentPassword, u.PasswordHash); err != nil || !ok {
		fieldError(w, r, auth.ErrWrongPassword)
		return
	}
	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if err := d.Users.UpdatePasswordHash(r.Context(), email, hash); err != nil {
		writeInternal(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"ok": true, "message": "Password updated successfully!"})
}

func (d AuthDeps) warn(msg string, err error) {
	if d.Logger != nil {
		d.Logger.Warn(msg, zap.Error(err))
	}
}
