package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost       = 12
	operatorSubject  = "operator"
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var (
	ErrBadPassword  = errors.New("invalid password")
	ErrRateLimited  = errors.New("too many login attempts, try again later")
	ErrInvalidToken = errors.New("invalid token")
)

// Auth guards the control plane with a single operator password exchanged
// for short-lived HS256 tokens.
type Auth struct {
	passHash  []byte
	jwtSecret []byte
	ttl       time.Duration

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth returns nil when auth is disabled; a nil *Auth allows everything.
func NewAuth(cfg AuthConfig) *Auth {
	if !cfg.Enabled {
		return nil
	}
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{
		passHash:  []byte(cfg.PasswordHash),
		jwtSecret: []byte(cfg.JWTSecret),
		ttl:       ttl,
		rateMap:   make(map[string]*rateEntry),
	}
}

// HashPassword produces a value for auth.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the operator password and returns a signed token
func (a *Auth) Login(password, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	return a.generateToken()
}

// ValidateToken checks signature, method and expiry
func (a *Auth) ValidateToken(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != operatorSubject {
		return ErrInvalidToken
	}
	return nil
}

func (a *Auth) generateToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": operatorSubject,
		"exp": now.Add(a.ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// Require wraps a control-plane handler with bearer token validation
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	if a == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || a.ValidateToken(tokenStr) != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorMsg{Msg: "unauthorized"})
			return
		}
		next(w, r)
	}
}
