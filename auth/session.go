// Package auth keeps the client's session with the backend: the bearer
// token, the signed-in user, and a hashed credential mirror that lets a user
// sign back in while the service is unreachable.
package auth

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/storage"
)

const (
	tokenStorageKey = "auth_token"
	userStorageKey  = "auth_user"
	credStorageKey  = "auth_credentials_v1"
)

// LoginClient is the slice of the backend client the session needs
type LoginClient interface {
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
}

type credentialRecord struct {
	Email string `json:"email"`
	Hash  string `json:"hash"`
}

// Session holds the current authentication state
type Session struct {
	mu     sync.Mutex
	store  storage.Storage
	client LoginClient
	user   *models.User
	token  string
}

// NewSession restores any stored session from the given store
func NewSession(store storage.Storage, client LoginClient) *Session {
	s := &Session{store: store, client: client}
	s.loadStored()
	return s
}

func (s *Session) loadStored() {
	if s.store == nil {
		return
	}
	token, _ := s.store.Get(tokenStorageKey)
	rawUser, ok := s.store.Get(userStorageKey)
	if token == "" || !ok {
		return
	}
	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		zap.S().Warnw("discarding unreadable stored session", "error", err)
		_ = s.store.Remove(tokenStorageKey)
		_ = s.store.Remove(userStorageKey)
		return
	}
	s.token = token
	s.user = &user
}

// Login authenticates against the backend. When the backend is unreachable
// it verifies the password against the hashed mirror from the last
// successful login, so a known user can keep working offline.
func (s *Session) Login(ctx context.Context, email, password string) (models.User, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		if user, ok := s.offlineLogin(email, password); ok {
			zap.S().Infow("offline login accepted", "email", email)
			return user, nil
		}
		return models.User{}, err
	}

	user := resp.User
	if user.ID == 0 {
		if claimed, ok := userFromToken(resp.Token); ok {
			user = claimed
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = resp.Token
	s.user = &user
	if s.store != nil {
		_ = s.store.Set(tokenStorageKey, resp.Token)
		if b, err := json.Marshal(user); err == nil {
			_ = s.store.Set(userStorageKey, string(b))
		}
		if hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err == nil {
			if b, err := json.Marshal(credentialRecord{Email: email, Hash: string(hash)}); err == nil {
				_ = s.store.Set(credStorageKey, string(b))
			}
		}
	}
	return user, nil
}

func (s *Session) offlineLogin(email, password string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return models.User{}, false
	}
	raw, ok := s.store.Get(credStorageKey)
	if !ok {
		return models.User{}, false
	}
	var cred credentialRecord
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return models.User{}, false
	}
	if cred.Email != email {
		return models.User{}, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(password)); err != nil {
		return models.User{}, false
	}

	rawUser, ok := s.store.Get(userStorageKey)
	if !ok {
		return models.User{}, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return models.User{}, false
	}
	s.user = &user
	if token, ok := s.store.Get(tokenStorageKey); ok {
		s.token = token
	}
	return user, true
}

// Logout clears the session token. The stored user snapshot and the
// credential mirror survive so the same user can still sign in offline
// afterwards.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if s.store != nil {
		_ = s.store.Remove(tokenStorageKey)
	}
}

// IsAuthenticated reports whether a user is signed in
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// CurrentUser returns the signed-in user
func (s *Session) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Token implements remote.TokenSource
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// userFromToken extracts the user identity from an unverified JWT. The
// backend signed the token; locally we only read the claims.
func userFromToken(token string) (models.User, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.User{}, false
	}

	user := models.User{}
	if sub, err := claims.GetSubject(); err == nil {
		if id, err := strconv.Atoi(sub); err == nil {
			user.ID = id
		}
	}
	if name, ok := claims["name"].(string); ok {
		user.Name = name
	}
	if username, ok := claims["username"].(string); ok {
		user.Username = username
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if user.ID == 0 {
		return models.User{}, false
	}
	return user, true
}
