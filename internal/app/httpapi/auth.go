package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

// Claims is the JWT payload for admin sessions.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type session struct {
	id       string
	username string
	loginAt  time.Time
	lastSeen time.Time
}

// authManager issues admin JWTs and tracks server-side sessions. Tokens are
// only honored while their session exists, so logout revokes immediately.
type authManager struct {
	secret   []byte
	username string
	password string

	mu       sync.Mutex
	sessions map[string]*session // keyed by token hash
}

func newAuthManager(username, password, secret string) *authManager {
	return &authManager{
		secret:   []byte(secret),
		username: username,
		password: password,
		sessions: make(map[string]*session),
	}
}

// Login validates credentials and returns a signed token.
func (a *authManager) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return "", fmt.Errorf("invalid credentials")
	}

	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "staking-layer",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.sessions[hashToken(token)] = &session{
		id:       uuid.NewString(),
		username: username,
		loginAt:  now,
		lastSeen: now,
	}
	a.mu.Unlock()
	return token, nil
}

// Logout deletes the session; the token stops working even before expiry.
func (a *authManager) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, hashToken(token))
	a.mu.Unlock()
}

// Verify checks the signature and the server-side session.
func (a *authManager) Verify(token string) bool {
	if _, err := a.validateJWT(token); err != nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[hashToken(token)]
	if !ok {
		return false
	}
	sess.lastSeen = time.Now()
	return true
}

func (a *authManager) validateJWT(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.Username, nil
	}
	return "", fmt.Errorf("invalid token")
}

// requireAuth guards admin endpoints with bearer token auth.
func (a *authManager) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || !a.Verify(token) {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return header[7:]
	}
	return ""
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
