// ABOUTME: Password login issuing HS256 JWTs, bearer-token middleware, and login throttling.
// ABOUTME: The single account password is stored as a bcrypt hash in config.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// DefaultTokenTTL is used when no token lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

// Login throttle: at most loginBurst attempts per client per loginWindow.
const (
	loginBurst  = 5
	loginWindow = time.Minute
)

// ErrUnauthorized is returned for bad credentials or tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Claims are carried in every issued token. Subject is the owner id.
type Claims struct {
	jwt.RegisteredClaims
}

// HashPassword returns the bcrypt hash stored in auth.password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticator checks the password and issues and verifies tokens.
type Authenticator struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	owner        uuid.UUID
	now          func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAuthenticator creates an Authenticator for owner.
func NewAuthenticator(passwordHash, secret string, ttl time.Duration, owner uuid.UUID) (*Authenticator, error) {
	if passwordHash == "" {
		return nil, errors.New("auth.password_hash is not set (run: cledger passwd)")
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("auth.jwt_secret is too short (%d chars), need at least 16", len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		owner:        owner,
		now:          time.Now,
		visitors:     make(map[string]*visitor),
	}, nil
}

// Login verifies password and returns a signed token and its expiry.
func (a *Authenticator) Login(password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrUnauthorized
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.owner.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "cledger",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken validates a token and returns its claims.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject != a.owner.String() {
		return nil, fmt.Errorf("%w: token issued for another owner", ErrUnauthorized)
	}
	return claims, nil
}

type loginRequest struct {
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *Authenticator) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid login request")
		return
	}

	token, expiresAt, err := a.Login(req.Password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	respondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

type claimsKey struct{}

// ClaimsFromContext returns the claims attached by the auth middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func (a *Authenticator) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// throttle limits login attempts per client address. Idle entries are
// swept on each call.
func (a *Authenticator) throttle(next http.Handler) http.Handler {
	every := rate.Every(loginWindow / loginBurst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		now := a.now()

		a.mu.Lock()
		for ip, v := range a.visitors {
			if now.Sub(v.lastSeen) > 3*loginWindow {
				delete(a.visitors, ip)
			}
		}
		v, exists := a.visitors[key]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(every, loginBurst)}
			a.visitors[key] = v
		}
		v.lastSeen = now
		a.mu.Unlock()

		if !v.limiter.Allow() {
			respondWithError(w, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}
