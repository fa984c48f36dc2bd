package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/storage"
)

type fakeLoginClient struct {
	resp models.AuthResponse
	err  error
}

func (f *fakeLoginClient) Login(_ context.Context, _, _ string) (models.AuthResponse, error) {
	return f.resp, f.err
}

func TestLoginStoresSessionAndCredentialMirror(t *testing.T) {
	store := storage.NewMemory()
	client := &fakeLoginClient{resp: models.AuthResponse{
		User:  models.User{ID: 7, Username: "ana", Email: "ana@example.com"},
		Token: "tok-1",
	}}

	s := NewSession(store, client)
	user, err := s.Login(context.Background(), "ana@example.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok-1", s.Token())

	_, ok := store.Get("auth_token")
	assert.True(t, ok)
	_, ok = store.Get("auth_credentials_v1")
	assert.True(t, ok)
}

func TestSessionRestoredFromStore(t *testing.T) {
	store := storage.NewMemory()
	client := &fakeLoginClient{resp: models.AuthResponse{
		User:  models.User{ID: 7, Username: "ana"},
		Token: "tok-1",
	}}
	first := NewSession(store, client)
	_, err := first.Login(context.Background(), "ana@example.com", "secret")
	assert.NoError(t, err)

	second := NewSession(store, client)
	user, ok := second.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "tok-1", second.Token())
}

func TestOfflineLoginAcceptsKnownCredentials(t *testing.T) {
	store := storage.NewMemory()
	online := &fakeLoginClient{resp: models.AuthResponse{
		User:  models.User{ID: 7, Username: "ana"},
		Token: "tok-1",
	}}
	s := NewSession(store, online)
	_, err := s.Login(context.Background(), "ana@example.com", "secret")
	assert.NoError(t, err)
	s.Logout()
	assert.False(t, s.IsAuthenticated())

	offline := &fakeLoginClient{err: errors.New("connection refused")}
	s2 := NewSession(store, offline)
	user, err := s2.Login(context.Background(), "ana@example.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.True(t, s2.IsAuthenticated())
}

func TestLogoutKeepsUserSnapshotAndCredentialMirror(t *testing.T) {
	store := storage.NewMemory()
	client := &fakeLoginClient{resp: models.AuthResponse{
		User:  models.User{ID: 7, Username: "ana"},
		Token: "tok-1",
	}}
	s := NewSession(store, client)
	_, err := s.Login(context.Background(), "ana@example.com", "secret")
	assert.NoError(t, err)

	s.Logout()

	_, ok := store.Get("auth_token")
	assert.False(t, ok)
	_, ok = store.Get("auth_user")
	assert.True(t, ok)
	_, ok = store.Get("auth_credentials_v1")
	assert.True(t, ok)

	restored := NewSession(store, client)
	assert.False(t, restored.IsAuthenticated())
}

func TestOfflineLoginRejectsWrongPassword(t *testing.T) {
	store := storage.NewMemory()
	online := &fakeLoginClient{resp: models.AuthResponse{
		User:  models.User{ID: 7, Username: "ana"},
		Token: "tok-1",
	}}
	s := NewSession(store, online)
	_, err := s.Login(context.Background(), "ana@example.com", "secret")
	assert.NoError(t, err)

	offline := &fakeLoginClient{err: errors.New("connection refused")}
	s2 := NewSession(store, offline)
	_, err = s2.Login(context.Background(), "ana@example.com", "wrong")

	assert.Error(t, err)
}

func TestLoginDerivesUserFromTokenClaims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "42",
		"name":     "Ana Quispe",
		"username": "ana",
	}).SignedString([]byte("test-key"))
	assert.NoError(t, err)

	client := &fakeLoginClient{resp: models.AuthResponse{Token: token}}
	s := NewSession(storage.NewMemory(), client)
	user, err := s.Login(context.Background(), "ana@example.com", "secret")

	assert.NoError(t, err)
	assert.Equal(t, 42, user.ID)
	assert.Equal(t, "Ana Quispe", user.Name)
}
