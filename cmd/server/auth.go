package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookieName = "stonequote_session"
	sessionTTL        = 12 * time.Hour
)

const (
	roleAdmin = "admin"
	roleStaff = "staff"
)

var errInvalidCredentials = errors.New("invalid email or password")

// user is the signed-in account carried in the request context.
type user struct {
	Email string
	Role  string
}

func (u user) IsAdmin() bool { return u.Role == roleAdmin }

type userContextKey struct{}

func withUser(ctx context.Context, u user) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

func userFrom(ctx context.Context) (user, bool) {
	u, ok := ctx.Value(userContextKey{}).(user)
	return u, ok
}

type authService struct {
	db            *sql.DB
	sessionSecret []byte
	now           func() time.Time
}

func newAuthService(db *sql.DB, sessionSecret string) *authService {
	return &authService{db: db, sessionSecret: []byte(sessionSecret), now: time.Now}
}

// authenticate checks a password against the stored bcrypt hash.
func (a *authService) authenticate(ctx context.Context, email, password string) (user, error) {
	email = strings.TrimSpace(email)
	var u user
	var passwordHash string
	err := a.db.QueryRowContext(ctx, `SELECT email, role, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.Email, &u.Role, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return user{}, errInvalidCredentials
	}
	if err != nil {
		return user{}, fmt.Errorf("query user credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return user{}, errInvalidCredentials
	}
	return u, nil
}

// lookup reloads a user so role changes apply to existing sessions.
func (a *authService) lookup(ctx context.Context, email string) (user, bool, error) {
	var u user
	err := a.db.QueryRowContext(ctx, `SELECT email, role FROM users WHERE email = ?`, email).Scan(&u.Email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return user{}, false, nil
	}
	if err != nil {
		return user{}, false, fmt.Errorf("query user: %w", err)
	}
	return u, true, nil
}

func (a *authService) sign(payload string) string {
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// createSessionValue encodes email and expiry, then signs them.
func (a *authService) createSessionValue(email string, expires time.Time) string {
	raw := email + "|" + strconv.FormatInt(expires.Unix(), 10)
	payload := base64.RawURLEncoding.EncodeToString([]byte(raw))
	return payload + "." + a.sign(payload)
}

func (a *authService) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	expected, _ := hex.DecodeString(a.sign(payload))
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	email, exp, ok := strings.Cut(string(decoded), "|")
	if !ok || email == "" {
		return "", false
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil || !a.now().Before(time.Unix(unix, 0)) {
		return "", false
	}
	return email, true
}

func (a *authService) setSessionCookie(w http.ResponseWriter, email string) {
	expires := a.now().Add(sessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(email, expires),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser resolves the session cookie to a user, if any.
func (a *authService) currentUser(r *http.Request) (user, bool, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return user{}, false, nil
	}
	email, ok := a.verifySessionValue(cookie.Value)
	if !ok {
		return user{}, false, nil
	}
	return a.lookup(r.Context(), email)
}
