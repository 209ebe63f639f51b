package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petidentity/pkg/domain"
	"petidentity/pkg/requestcontext"
	"petidentity/pkg/testutil"
)

type stubTokens struct{}

func (stubTokens) Principal(token string) (requestcontext.Principal, error) {
	if token != "good" {
		return requestcontext.Principal{}, errors.New("invalid token")
	}
	return requestcontext.Principal{UserID: 7, Role: domain.RoleOwner}, nil
}

type stubModule struct{}

func (stubModule) RegisterPublic(r chi.Router) {
	r.Get("/open", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func (stubModule) Register(r chi.Router) {
	r.Get("/closed", func(w http.ResponseWriter, r *http.Request) {
		p, ok := requestcontext.PrincipalFrom(r.Context())
		if !ok || p.UserID != 7 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter(health map[string]HealthCheck) http.Handler {
	return NewRouter(Config{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens:  stubTokens{},
		Modules: []Module{stubModule{}},
		Health:  health,
	})
}

func TestRouterAuthentication(t *testing.T) {
	router := newTestRouter(nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/open"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/closed"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/closed"), "good"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHealthz(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		router := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("one dependency down", func(t *testing.T) {
		router := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := testutil.UnmarshalResponse[struct {
			Status       string            `json:"status"`
			Dependencies map[string]string `json:"dependencies"`
		}](t, rr)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "connection refused", body.Dependencies["redis"])
		assert.Equal(t, "ok", body.Dependencies["postgres"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rr := testutil.DoRequest(newTestRouter(nil), testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}
