package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"time"

	"github.com/google/uuid"
	guardian "github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"

	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	localauth "github.com/opencivic/citizen-reports-sync/auth"
)

// MiddlewareAuth holds the session the facade authenticates against
type MiddlewareAuth struct {
	Session *localauth.Session
}

var authenticator guardian.Authenticator
var tokenCache store.Cache

// Middleware adds some basic header authentication around accessing the routes
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		next.ServeHTTP(w, r)
	})
}

// CreateToken returns a facade token for the authenticated user
func (m MiddlewareAuth) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	email, _, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}

	user, found := m.Session.CurrentUser()
	if !found {
		http.Error(w, "no authenticated session", http.StatusUnauthorized)
		return
	}

	token := uuid.New().String()
	authUser := guardian.NewDefaultUser(email, strconv.Itoa(user.ID), nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	guardian.Append(tokenStrategy, token, authUser, r)

	response := map[string]interface{}{
		"token": token,
		"user":  user,
	}

	responseBody, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareAuth) SetupGoGuardian() {
	authenticator = guardian.New()
	tokenCache = store.NewFIFO(context.Background(), time.Hour*24)
	basicStrategy := basic.New(m.ValidateUser, tokenCache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, tokenCache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser validates credentials through the session, which reaches the
// remote service when online and the local credential mirror when not
func (m MiddlewareAuth) ValidateUser(ctx context.Context, r *http.Request, email, password string) (guardian.Info, error) {
	user, err := m.Session.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return guardian.NewDefaultUser(email, strconv.Itoa(user.ID), nil, nil), nil
}

// RevokeToken revokes a facade token and clears the session
func (m MiddlewareAuth) RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) < 2 {
		http.Error(w, "missing bearer token", http.StatusBadRequest)
		return
	}
	reqToken = splitToken[1]

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	guardian.Revoke(tokenStrategy, reqToken, r)
	m.Session.Logout()
	body := fmt.Sprintf(`{"revoked token": "%s"}`, reqToken)
	w.Write([]byte(body))
}
