package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "invalid media type")
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// Recover answers a panicking handler with a generic 500 and logs
// the panic with its stack. [http.ErrAbortHandler] is passed through.
func Recover(next http.Handler) http.Handler {
	const op = "httphandler.Recover"

	hf := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			slog.Error(
				"handler panicked",
				"op", op,
				"method", r.Method,
				"path", r.URL.Path,
				"panic", v,
				"stack", string(debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, internalErrorMsg)
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

const RoleAdmin = "admin"

// Claims are the token claims. The user identifier is taken
// from "id" and falls back to the registered subject.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) userID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

type Principal struct {
	UserID string
	Role   string
}

type principalKey struct{}

func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// An Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) (Authenticator, error) {
	if secret == "" {
		return Authenticator{}, errors.New("jwt secret is empty")
	}
	return Authenticator{secret: []byte(secret)}, nil
}

func (a Authenticator) parse(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.userID() == "" {
		return Claims{}, errors.New("invalid token claims")
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token
// and puts the [Principal] into the request context.
func (a Authenticator) Authenticate(next http.Handler) http.Handler {
	const op = "Authenticator.Authenticate"

	hf := func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := a.parse(strings.TrimSpace(raw))
		if err != nil {
			slog.Debug("token rejected", "op", op, "err", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, Principal{
			UserID: claims.userID(),
			Role:   claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hf)
}

// RequireAdmin authenticates the request and allows admins only.
func (a Authenticator) RequireAdmin(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r.Context())
		if !ok || p.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}
	return a.Authenticate(http.HandlerFunc(hf))
}
