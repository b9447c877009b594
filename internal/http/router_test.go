package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/yardsale/internal/auth"
	"github.com/geocoder89/yardsale/internal/cache"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/config"
	"github.com/geocoder89/yardsale/internal/domain/user"
	httpx "github.com/geocoder89/yardsale/internal/http"
	"github.com/geocoder89/yardsale/internal/http/handlers"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/queue/outbox"
	"github.com/geocoder89/yardsale/internal/repo/memory"
	"github.com/geocoder89/yardsale/internal/service/events"
	"github.com/geocoder89/yardsale/internal/service/favorites"
	"github.com/geocoder89/yardsale/internal/service/lifecycle"
	"github.com/geocoder89/yardsale/internal/service/nearby"
	"github.com/geocoder89/yardsale/internal/service/validation"
)

const (
	organizerID = "3f1d2c4b-5a6e-4f70-8a91-b2c3d4e5f601"
	shopperID   = "7a8b9c0d-1e2f-4a3b-9c4d-5e6f7a8b9c02"
)

type app struct {
	router  http.Handler
	tokens  *auth.Manager
	clock   *clock.Fixed
	nearbyC *cache.Cache
}

func newApp(t *testing.T) *app {
	t.Helper()

	clk := clock.NewFixed(time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC))
	log := observability.Discard()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	users := memory.NewUsersRepo(
		user.User{ID: organizerID, Email: "org@example.com", Role: user.RoleUser, IsActive: true, EmailVerified: true},
		user.User{ID: shopperID, Email: "shop@example.com", Role: user.RoleUser, IsActive: true, EmailVerified: true},
	)
	eventsRepo := memory.NewEventsRepo()
	favoritesRepo := memory.NewFavoritesRepo()
	tx := memory.NewTxRunner(eventsRepo, favoritesRepo)
	publisher := outbox.NewLogPublisher(log)

	validator := validation.New(users, eventsRepo, 1)
	nearbyCache := cache.New(30*time.Second, 128, clk)

	cfg := config.Config{
		Env:                "test",
		ServiceName:        "yardsale-api-test",
		NearbyMaxRadiusKm:  100,
		NearbyMaxLimit:     50,
		RateLimitPerMinute: 1000,
	}

	tokens := auth.NewManager("test-secret-test-secret-test-secret", 15*time.Minute)

	router := httpx.NewRouter(httpx.Deps{
		Config:      cfg,
		Log:         log,
		Clock:       clk,
		Prom:        prom,
		Gatherer:    reg,
		Verifier:    tokens,
		Events:      events.New(eventsRepo, validator, publisher, clk, log, prom),
		Nearby:      nearby.New(eventsRepo, clk, prom),
		Favorites:   favorites.New(eventsRepo, favoritesRepo, tx, clk, log, prom),
		Maintenance: lifecycle.New(eventsRepo, favoritesRepo, tx, publisher, clk, log, prom),
		NearbyCache: nearbyCache,
	})

	return &app{router: router, tokens: tokens, clock: clk, nearbyC: nearbyCache}
}

func (a *app) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()

	tok, err := a.tokens.GenerateAccessToken(userID, userID+"@example.com", roles...)
	require.NoError(t, err)
	return tok
}

func (a *app) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func saleBody() map[string]any {
	return map[string]any{
		"title":       "Saturday yard sale",
		"description": "Furniture, books and kitchenware",
		"type":        "yard_sale",
		"startDate":   "2026-05-16T08:00:00Z",
		"endDate":     "2026-05-16T14:00:00Z",
		"latitude":    48.8566,
		"longitude":   2.3522,
		"address": map[string]any{
			"street":     "12 Rue de Rivoli",
			"city":       "Paris",
			"postalCode": "75004",
			"country":    "FR",
		},
		"contact": map[string]any{"email": "seller@example.com"},
	}
}

func TestRouter_WritesRequireAuthentication(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/events", "", saleBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/events", "not-a-jwt", saleBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodGet, "/me/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SaleLifecycleEndToEnd(t *testing.T) {
	a := newApp(t)
	orgToken := a.token(t, organizerID, user.RoleUser)
	shopToken := a.token(t, shopperID, user.RoleUser)

	// create
	w := a.do(t, http.MethodPost, "/events", orgToken, saleBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created handlers.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "draft", string(created.Status))
	assert.Equal(t, organizerID, created.OrganizerID)

	// drafts are hidden from the public and from nearby search
	w = a.do(t, http.MethodGet, "/events/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/events/"+created.ID, orgToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// publish without a body
	w = a.do(t, http.MethodPost, "/events/"+created.ID+"/publish", orgToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// strangers cannot cancel
	w = a.do(t, http.MethodPost, "/events/"+created.ID+"/cancel", shopToken, map[string]any{"reason": "mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// nearby from Paris finds it
	w = a.do(t, http.MethodGet, "/events/nearby?lat=48.8566&lng=2.3522&radiusKm=50", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var found handlers.NearbyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found.Items, 1)
	assert.Equal(t, created.ID, found.Items[0].ID)
	assert.Equal(t, 0.0, found.Items[0].DistanceKm)

	// favorite toggles on and off
	w = a.do(t, http.MethodPost, "/events/"+created.ID+"/favorite", shopToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var toggled handlers.ToggleFavoriteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.True(t, toggled.IsFavorite)
	assert.Equal(t, favorites.ActionAdded, toggled.Action)

	w = a.do(t, http.MethodGet, "/events/"+created.ID, "", nil)
	var shown handlers.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shown))
	assert.Equal(t, 1, shown.FavoriteCount)

	w = a.do(t, http.MethodGet, "/me/favorites", shopToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the organizer cancels; the sale leaves public listings
	w = a.do(t, http.MethodPost, "/events/"+created.ID+"/cancel", orgToken, map[string]any{"reason": "Forecast says heavy rain"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, a.nearbyC.Len(), "cancel should drop cached nearby results")

	w = a.do(t, http.MethodGet, "/events/nearby?lat=48.8566&lng=2.3522&radiusKm=50", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Empty(t, found.Items)

	w = a.do(t, http.MethodPost, "/events/"+created.ID+"/cancel", orgToken, map[string]any{"reason": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_AdminRoutesNeedStaffRole(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodPost, "/admin/lifecycle/sweep", a.token(t, shopperID, user.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPost, "/admin/lifecycle/sweep", a.token(t, organizerID, user.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_MetricsAndHealth(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	a.do(t, http.MethodGet, "/events", "", nil)

	w = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yardsale_http_requests_total")
}
