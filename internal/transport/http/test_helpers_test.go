package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gossips-social/gossips-hub/internal/auth"
	"github.com/gossips-social/gossips-hub/internal/config"
	"github.com/gossips-social/gossips-hub/internal/hub"
	"github.com/gossips-social/gossips-hub/internal/store"
	"github.com/gossips-social/gossips-hub/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with the schema
// applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// startTestServer wires a full server (store, auth, hub, router) around
// an httptest listener.
func startTestServer(t *testing.T) (*httptest.Server, store.Store, *auth.Service, *hub.Hub) {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret")

	h := hub.New(st, st, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	disabledLogger := zerolog.Nop()
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"

	server := NewServer(h, authService, st, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st, authService, h
}
