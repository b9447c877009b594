package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/cache"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/favorite"
	"github.com/geocoder89/yardsale/internal/domain/geo"
	"github.com/geocoder89/yardsale/internal/http/handlers"
	"github.com/geocoder89/yardsale/internal/service/favorites"
	"github.com/geocoder89/yardsale/internal/service/nearby"
	"github.com/geocoder89/yardsale/internal/service/validation"
)

type fakeNearby struct {
	calls int
	last  nearby.Query
	fn    func(q nearby.Query) ([]nearby.Result, error)
}

func (f *fakeNearby) Search(ctx context.Context, q nearby.Query) ([]nearby.Result, error) {
	f.calls++
	f.last = q
	if f.fn != nil {
		return f.fn(q)
	}
	return nil, nil
}

func TestNearbyHandler_Validation(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		wantStatusCode int
	}{
		{name: "missing_lat", url: "/events/nearby?lng=2.35", wantStatusCode: http.StatusBadRequest},
		{name: "lat_not_a_number", url: "/events/nearby?lat=north&lng=2.35", wantStatusCode: http.StatusBadRequest},
		{name: "radius_above_cap", url: "/events/nearby?lat=48.85&lng=2.35&radiusKm=150", wantStatusCode: http.StatusBadRequest},
		{name: "radius_zero", url: "/events/nearby?lat=48.85&lng=2.35&radiusKm=0", wantStatusCode: http.StatusBadRequest},
		{name: "limit_above_cap", url: "/events/nearby?lat=48.85&lng=2.35&limit=51", wantStatusCode: http.StatusBadRequest},
		{name: "unknown_type", url: "/events/nearby?lat=48.85&lng=2.35&type=boot_sale", wantStatusCode: http.StatusBadRequest},
		{name: "at_the_caps", url: "/events/nearby?lat=48.85&lng=2.35&radiusKm=100&limit=50", wantStatusCode: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeNearby{}
			h := handlers.NewNearbyHandler(svc, handlers.NearbyLimits{MaxRadiusKm: 100, MaxLimit: 50}, nil, nil)
			r := setupRouter(http.MethodGet, "/events/nearby", actorctx.Anonymous(), h.SearchNearby)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantStatusCode != http.StatusOK && svc.calls != 0 {
				t.Fatalf("search must not run for rejected requests")
			}
		})
	}
}

func TestNearbyHandler_InvalidCoordinatesFromService(t *testing.T) {
	svc := &fakeNearby{fn: func(q nearby.Query) ([]nearby.Result, error) {
		_, err := geo.NewLocation(q.Latitude, q.Longitude)
		return nil, err
	}}
	h := handlers.NewNearbyHandler(svc, handlers.NearbyLimits{}, nil, nil)
	r := setupRouter(http.MethodGet, "/events/nearby", actorctx.Anonymous(), h.SearchNearby)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nearby?lat=91&lng=181", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	env := decodeError(t, w)
	if env.Error.Code != "validation_error" || len(env.Error.Details) != 2 {
		t.Fatalf("expected both coordinate errors, got %+v", env.Error)
	}
}

func TestNearbyHandler_DefaultsRoundingAndCache(t *testing.T) {
	paris := newEvent(t, "org-1")

	svc := &fakeNearby{fn: func(q nearby.Query) ([]nearby.Result, error) {
		return []nearby.Result{{Event: paris, DistanceKm: 0.004321}}, nil
	}}

	clk := clock.NewFixed(testNow)
	c := cache.New(30*time.Second, 64, clk)

	h := handlers.NewNearbyHandler(svc, handlers.NearbyLimits{MaxRadiusKm: 100, MaxLimit: 50}, c, nil)
	r := setupRouter(http.MethodGet, "/events/nearby", actorctx.Anonymous(), h.SearchNearby)

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/nearby?lat=48.8566&lng=2.3522", nil))
		return w
	}

	w := get()
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if svc.last.RadiusKm != handlers.DefaultNearbyRadiusKm || svc.last.Limit != handlers.DefaultNearbyLimit {
		t.Fatalf("defaults not applied: %+v", svc.last)
	}
	if w.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first call should miss the cache")
	}

	var body handlers.NearbyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Items[0].ID != paris.ID() {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
	if body.Items[0].DistanceKm != 0 {
		t.Fatalf("distance should be rounded to 2 decimals, got %v", body.Items[0].DistanceKm)
	}

	w = get()
	if w.Header().Get("X-Cache") != "HIT" || svc.calls != 1 {
		t.Fatalf("second call should be served from cache (calls=%d)", svc.calls)
	}

	clk.Advance(31 * time.Second)
	get()
	if svc.calls != 2 {
		t.Fatalf("expired entries must be recomputed (calls=%d)", svc.calls)
	}
}

func TestNearbyHandler_CacheKeysOnExactCenter(t *testing.T) {
	svc := &fakeNearby{}
	c := cache.New(30*time.Second, 64, clock.NewFixed(testNow))

	h := handlers.NewNearbyHandler(svc, handlers.NearbyLimits{MaxRadiusKm: 100, MaxLimit: 50}, c, nil)
	r := setupRouter(http.MethodGet, "/events/nearby", actorctx.Anonymous(), h.SearchNearby)

	for i, url := range []string{
		"/events/nearby?lat=48.85664&lng=2.35224",
		"/events/nearby?lat=48.85656&lng=2.35216",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("%s: got %d body=%s", url, w.Code, w.Body.String())
		}
		if w.Header().Get("X-Cache") != "MISS" {
			t.Fatalf("%s: a new center must miss the cache", url)
		}
		if svc.calls != i+1 {
			t.Fatalf("%s: expected %d searches, got %d", url, i+1, svc.calls)
		}
	}
}

type fakeFavorites struct {
	toggleFn func(actor actorctx.Actor, eventID string) (favorites.ToggleResult, error)
	entries  []favorites.Entry
}

func (f *fakeFavorites) Toggle(ctx context.Context, actor actorctx.Actor, eventID string) (favorites.ToggleResult, error) {
	return f.toggleFn(actor, eventID)
}

func (f *fakeFavorites) ListMine(ctx context.Context, actor actorctx.Actor) ([]favorites.Entry, error) {
	if !actor.Authenticated {
		return nil, validation.ErrUnauthenticated
	}
	return f.entries, nil
}

func TestToggleFavoriteHandler(t *testing.T) {
	e := newEvent(t, "org-1")

	tests := []struct {
		name           string
		actor          actorctx.Actor
		toggle         func(actor actorctx.Actor, eventID string) (favorites.ToggleResult, error)
		wantStatusCode int
		wantAction     string
	}{
		{
			name:  "added",
			actor: actorctx.Actor{UserID: "u1", Authenticated: true},
			toggle: func(actor actorctx.Actor, eventID string) (favorites.ToggleResult, error) {
				return favorites.ToggleResult{IsFavorite: true, Action: favorites.ActionAdded}, nil
			},
			wantStatusCode: http.StatusOK,
			wantAction:     favorites.ActionAdded,
		},
		{
			name:  "not_favoritable",
			actor: actorctx.Actor{UserID: "u1", Authenticated: true},
			toggle: func(actor actorctx.Actor, eventID string) (favorites.ToggleResult, error) {
				return favorites.ToggleResult{}, favorites.ErrEventNotFavoritable
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "duplicate_race",
			actor: actorctx.Actor{UserID: "u1", Authenticated: true},
			toggle: func(actor actorctx.Actor, eventID string) (favorites.ToggleResult, error) {
				return favorites.ToggleResult{}, favorite.ErrDuplicate
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:  "storage_down",
			actor: actorctx.Actor{UserID: "u1", Authenticated: true},
			toggle: func(actor actorctx.Actor, eventID string) (favorites.ToggleResult, error) {
				return favorites.ToggleResult{}, errors.New("connection refused")
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewFavoritesHandler(&fakeFavorites{toggleFn: tt.toggle})
			r := setupRouter(http.MethodPost, "/events/:id/favorite", tt.actor, h.ToggleFavorite)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/"+e.ID()+"/favorite", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantAction == "" {
				return
			}

			var body handlers.ToggleFavoriteResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Action != tt.wantAction || body.EventID != e.ID() || !body.IsFavorite {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestListMyFavoritesHandler(t *testing.T) {
	e := newEvent(t, "org-1")
	f, err := favorite.New("u1", e.ID(), testNow)
	if err != nil {
		t.Fatalf("favorite.New: %v", err)
	}

	h := handlers.NewFavoritesHandler(&fakeFavorites{entries: []favorites.Entry{{Favorite: f, Event: e}}})

	r := setupRouter(http.MethodGet, "/me/favorites", actorctx.Actor{UserID: "u1", Authenticated: true}, h.ListMyFavorites)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/favorites", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Items []handlers.FavoriteResponse `json:"items"`
		Count int                         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Items[0].Event.ID != e.ID() {
		t.Fatalf("unexpected body: %+v", body)
	}

	anon := setupRouter(http.MethodGet, "/me/favorites", actorctx.Anonymous(), h.ListMyFavorites)
	w = httptest.NewRecorder()
	anon.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/favorites", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	up := handlers.PingFunc(func(ctx context.Context) error { return nil })
	down := handlers.PingFunc(func(ctx context.Context) error { return errors.New("dial tcp: refused") })

	tests := []struct {
		name string
		deps map[string]handlers.Pinger
		want int
	}{
		{name: "all_up", deps: map[string]handlers.Pinger{"postgres": up, "redis": up}, want: http.StatusOK},
		{name: "redis_down", deps: map[string]handlers.Pinger{"postgres": up, "redis": down}, want: http.StatusServiceUnavailable},
		{name: "no_deps", deps: nil, want: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.deps)
			r := setupRouter(http.MethodGet, "/readyz", actorctx.Anonymous(), h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if w.Code != tt.want {
				t.Fatalf("got %d, want %d body=%s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
