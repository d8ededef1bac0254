package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/recipebox/webapp/types"
)

const (
	sessionCookieName = "session"
	defaultSessionTTL = 24 * time.Hour
)

// Identity is the signed-in user carried by the session cookie.
type Identity struct {
	UserID   int
	Username string
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies signed session cookies.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessions builds a session manager. secure marks cookies Secure.
func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		ttl:    defaultSessionTTL,
		secure: secure,
	}
}

// Issue signs a session for user and sets the cookie.
func (s *Sessions) Issue(w http.ResponseWriter, user types.User) error {
	token, err := s.issueToken(user, time.Now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load places the session identity, if valid, into the request context.
// Invalid or expired cookies are cleared and the request continues
// anonymously.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := s.parseToken(cookie.Value)
		if err != nil {
			s.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects anonymous requests to /login with n.
func RequireLogin(n Notice) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := identityFromContext(r.Context()); !ok {
				redirectWithNotice(w, r, "/login", n)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(Identity)
	if !ok || identity.UserID < 1 {
		return Identity{}, false
	}
	return identity, true
}

// viewerID returns the signed-in user id, or 0 for anonymous requests.
func viewerID(ctx context.Context) int {
	identity, _ := identityFromContext(ctx)
	return identity.UserID
}

func (s *Sessions) issueToken(user types.User, now time.Time) (string, error) {
	claims := sessionClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Sessions) parseToken(tokenString string) (Identity, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid token")
	}

	id, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || id < 1 {
		return Identity{}, errors.New("invalid subject")
	}
	return Identity{UserID: id, Username: claims.Username}, nil
}
