package http_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eatsy/identity-service/internal/auth"
	"github.com/eatsy/identity-service/internal/domain"
	api "github.com/eatsy/identity-service/internal/http"
	"github.com/eatsy/identity-service/internal/oauth"
	"github.com/eatsy/identity-service/internal/queue"
	"github.com/eatsy/identity-service/internal/repo"
	"github.com/eatsy/identity-service/internal/security"
)

// capturePub lets tests read the recovery code that goes to the mail
// worker in production.
type capturePub struct{ otps chan queue.OTPRequested }

func (p *capturePub) Publish(_ context.Context, key string, event any, _ string) error {
	if key == queue.KeyOTPRequested {
		p.otps <- event.(queue.OTPRequested)
	}
	return nil
}
func (p *capturePub) Close() error { return nil }

func (p *capturePub) waitOTP(t *testing.T) queue.OTPRequested {
	t.Helper()
	select {
	case ev := <-p.otps:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no otp event published")
		return queue.OTPRequested{}
	}
}

type testEnv struct {
	Store   *repo.MemStore
	Hasher  *security.PasswordHasher
	Issuer  *security.TokenIssuer
	Pub     *capturePub
	Svc     *auth.Service
	Handler *api.Handler
	Router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repo.NewMemStore()
	hasher := security.NewPasswordHasher(4)
	issuer := security.NewTokenIssuer("test-secret", 7*24*time.Hour)
	pub := &capturePub{otps: make(chan queue.OTPRequested, 8)}
	svc := auth.NewService(store, hasher, issuer, pub, 15*time.Minute, 5*time.Minute)

	google := oauth.NewGoogle("client-id", "client-secret",
		"http://localhost:8080/auth/google/callback", "state-secret")

	// limiter off by default; tests swap one in through env.Handler
	h := api.NewHandler(svc, google, nil, 0, "http://localhost:3000", true, nil)

	gin.SetMode(gin.TestMode)
	return &testEnv{Store: store, Hasher: hasher, Issuer: issuer, Pub: pub, Svc: svc, Handler: h, Router: api.NewRouter(h)}
}

func (e *testEnv) do(t *testing.T, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

// seedAdmin plants a bootstrap admin directly in the store, the way the
// seed-admin command does in production.
func seedAdmin(t *testing.T, env *testEnv, ctx context.Context, passwordHash string) {
	t.Helper()
	u := &domain.User{
		Name:         "Root",
		Email:        "root@x.com",
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
	}
	if err := env.Store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
}
