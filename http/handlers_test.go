package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yourorg/domus-api/internal/auth"
	"github.com/yourorg/domus-api/internal/compare"
	"github.com/yourorg/domus-api/internal/finder"
	"github.com/yourorg/domus-api/internal/listing"
	"github.com/yourorg/domus-api/internal/mockdata"
	"github.com/yourorg/domus-api/internal/prefs"
	"github.com/yourorg/domus-api/internal/redisx"
	"github.com/yourorg/domus-api/internal/refresh"
	"github.com/yourorg/domus-api/internal/store"
)

type fakeSearch struct{ calls []string }

func (f *fakeSearch) Find(_ context.Context, location string) finder.Result {
	f.calls = append(f.calls, location)
	if location == "" {
		location = finder.DefaultLocation
	}
	return finder.Result{
		Location:    location,
		LocationKey: "key:" + location,
		Properties:  mockdata.Generate(location),
		IsMockData:  true,
		Source:      finder.SourceMock,
	}
}

func (f *fakeSearch) Normalize(location string) (string, string) { return location, "key:" + location }

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]store.User
	// staleReads makes the next lookups miss, as if another request had not
	// committed its insert yet.
	staleReads int
}

func (f *fakeUsers) CreateUser(_ context.Context, u store.User) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return store.User{}, store.ErrEmailTaken
	}
	u.CreatedAt = time.Now()
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUsers) FindUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleReads > 0 {
		f.staleReads--
		return store.User{}, store.ErrNotFound
	}
	u, ok := f.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateUserName(_ context.Context, email, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return store.ErrNotFound
	}
	u.Name = name
	f.users[email] = u
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, email, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	f.users[email] = u
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, email)
	return nil
}

type fakeSaved struct {
	mu  sync.Mutex
	ids map[string]map[string]time.Time
}

func (f *fakeSaved) SaveProperty(_ context.Context, email, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids[email] == nil {
		f.ids[email] = map[string]time.Time{}
	}
	if _, ok := f.ids[email][id]; !ok {
		f.ids[email][id] = time.Now()
	}
	return nil
}

func (f *fakeSaved) UnsaveProperty(_ context.Context, email, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids[email], id)
	return nil
}

func (f *fakeSaved) ToggleSaved(ctx context.Context, email, id string) (bool, error) {
	f.mu.Lock()
	_, ok := f.ids[email][id]
	f.mu.Unlock()
	if ok {
		return false, f.UnsaveProperty(ctx, email, id)
	}
	return true, f.SaveProperty(ctx, email, id)
}

func (f *fakeSaved) SavedProperties(_ context.Context, email string) ([]store.SavedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []store.SavedItem{}
	for id, at := range f.ids[email] {
		items = append(items, store.SavedItem{ID: id, SavedAt: at})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// fakeProps keys listings by location key and id, like the properties table.
type fakeProps struct {
	mu     sync.Mutex
	byLoc  map[string]map[string]listing.Property
	latest map[string]listing.Property
}

func (f *fakeProps) put(locationKey string, p listing.Property) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byLoc[locationKey] == nil {
		f.byLoc[locationKey] = map[string]listing.Property{}
	}
	f.byLoc[locationKey][p.ID] = p
	f.latest[p.ID] = p
}

func (f *fakeProps) GetProperty(_ context.Context, id string) (listing.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.latest[id]
	if !ok {
		return listing.Property{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeProps) GetPropertyAt(_ context.Context, locationKey, id string) (listing.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byLoc[locationKey][id]
	if !ok {
		return listing.Property{}, store.ErrNotFound
	}
	return p, nil
}

type fakeQueue struct{ jobs []refresh.Job }

func (f *fakeQueue) Enqueue(j refresh.Job) bool {
	f.jobs = append(f.jobs, j)
	return true
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	search *fakeSearch
	users  *fakeUsers
	saved  *fakeSaved
	queue  *fakeQueue
	props  *fakeProps
	prefs  *prefs.Store
}

func newHarness(t *testing.T, withStorage bool) *harness {
	mr := miniredis.RunT(t)
	rc := redisx.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	h := &harness{
		t:      t,
		search: &fakeSearch{},
		users:  &fakeUsers{users: map[string]store.User{}},
		saved:  &fakeSaved{ids: map[string]map[string]time.Time{}},
		queue:  &fakeQueue{},
		props:  &fakeProps{byLoc: map[string]map[string]listing.Property{}, latest: map[string]listing.Property{}},
		prefs:  &prefs.Store{Redis: rc},
	}
	cmp := &compare.Store{Redis: rc}
	iss := auth.NewIssuer("test-secret-0123456789", time.Hour, time.Hour)

	var (
		users UserStore
		saved SavedStore
		props PropertyStore
	)
	if withStorage {
		users, saved = h.users, h.saved
		h.props.put("key:Stored City, ST", mockdata.Generate("Stored City, ST")[0])
		props = h.props
	}
	propDeps := PropertiesDeps{Store: props, Search: h.search}

	r := chi.NewRouter()
	r.Group(func(authed chi.Router) {
		authed.Use(RequireSession(iss))
		RegisterAuth(r, authed, AuthDeps{Tokens: iss, Users: users, Prefs: h.prefs, Compare: cmp, Logger: zaptest.NewLogger(t)})
		RegisterSearch(authed, SearchDeps{Search: h.search, History: h.prefs})
		RegisterProperties(authed, propDeps)
		RegisterCompare(authed, CompareDeps{Store: cmp, Properties: propDeps})
		RegisterSaved(authed, SavedDeps{Store: saved})
		RegisterPrefs(authed, PrefsDeps{Store: h.prefs})
		RegisterHydrate(authed, HydrateDeps{Queue: h.queue, Normalizer: h.search})
	})
	h.srv = httptest.NewServer(r)
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (h *harness) guestToken() string {
	code, body := h.do(http.MethodPost, "/v1/auth/guest", "", nil)
	require.Equal(h.t, http.StatusCreated, code)
	return body["access_token"].(string)
}

func (h *harness) userToken(email, password string) string {
	code, body := h.do(http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email": email, "password": password, "confirmPassword": password,
	})
	require.Equal(h.t, http.StatusCreated, code, body)
	return body["access_token"].(string)
}

func TestSearch_RequiresSession(t *testing.T) {
	h := newHarness(t, true)
	code, body := h.do(http.MethodGet, "/v1/properties/search?location=Accra", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["error"])

	code, _ = h.do(http.MethodGet, "/v1/properties/search", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSearch_GetFiltersAndSorts(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()

	code, body := h.do(http.MethodGet, "/v1/properties/search?location=Accra,%20Ghana&minBeds=3&type=sale&sort=price&dir=desc", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["isMockData"])
	assert.Equal(t, "GHS", body["currencyCode"])
	assert.EqualValues(t, 15, body["total"])

	props := body["properties"].([]any)
	assert.EqualValues(t, len(props), body["count"])
	var prev float64 = -1
	for i, raw := range props {
		p := raw.(map[string]any)
		assert.GreaterOrEqual(t, p["beds"].(float64), 3.0)
		assert.Equal(t, "For Sale", p["type"])
		if i > 0 {
			assert.LessOrEqual(t, p["priceMinorUnits"].(float64), prev)
		}
		prev = p["priceMinorUnits"].(float64)
	}
	assert.Len(t, body["neighborhoods"], 5)
}

func TestSearch_PostWithAreaAndHistory(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()

	area := []map[string]float64{
		{"lat": 5.50, "lng": -0.25}, {"lat": 5.50, "lng": -0.10},
		{"lat": 5.70, "lng": -0.10}, {"lat": 5.70, "lng": -0.25},
	}
	code, body := h.do(http.MethodPost, "/v1/properties/search", tok, map[string]any{
		"location": "Accra, Ghana",
		"filters":  map[string]any{"maxPrice": 1_000_000, "area": area},
		"sort":     map[string]any{"key": "sqft", "direction": "asc"},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 15, body["count"])

	code, body = h.do(http.MethodPost, "/v1/properties/search", tok, map[string]any{
		"location": "Accra, Ghana",
		"filters":  map[string]any{"maxPrice": 1_000_000, "area": area[:2]},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_filter", body["error"])

	code, body = h.do(http.MethodGet, "/v1/me/history", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Accra, Ghana"}, body["history"])
}

func TestSearch_PostPartialFiltersKeepDefaults(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()

	code, body := h.do(http.MethodPost, "/v1/properties/search", tok, map[string]any{
		"location": "Accra, Ghana",
		"filters":  map[string]any{"minBeds": 1},
		"sort":     map[string]any{"key": "beds"},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 15, body["count"])
	f := body["filters"].(map[string]any)
	assert.EqualValues(t, listing.DefaultFilters().MaxPrice, f["maxPrice"])
	assert.EqualValues(t, 1, f["minBeds"])
	assert.Equal(t, "beds", body["sort"].(map[string]any)["key"])

	code, body = h.do(http.MethodPost, "/v1/properties/search", tok, map[string]any{
		"location": "Accra, Ghana",
		"filters":  nil,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 15, body["count"])
}

func TestSearch_BadQuery(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()
	code, body := h.do(http.MethodGet, "/v1/properties/search?sort=colour&minBeds=x", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["detail"], "minBeds")
	assert.Empty(t, h.search.calls)
}

func TestAuth_SignupLoginAndValidation(t *testing.T) {
	h := newHarness(t, true)

	code, body := h.do(http.MethodPost, "/v1/auth/signup", "", map[string]any{"email": "nope", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please enter a valid email address.", body["detail"])

	code, body = h.do(http.MethodPost, "/v1/auth/signup", "", map[string]any{"email": "a@b.co", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "New password must be at least 6 characters long.", body["fields"].(map[string]any)["newPassword"])

	h.userToken("Ama@Domus.co", "secret1")
	code, body = h.do(http.MethodPost, "/v1/auth/signup", "", map[string]any{"email": "ama@domus.co", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "email_taken", body["error"])

	code, _ = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "ama@domus.co", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "AMA@domus.co", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ama@domus.co", body["user"].(map[string]any)["email"])

	code, body = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "kofi@domus.co", "password": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please enter your password.", body["detail"])

	// First login registers the account, under the same password rules as signup.
	code, body = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "kofi@domus.co", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "New password must be at least 6 characters long.", body["fields"].(map[string]any)["newPassword"])
	_, err := h.users.FindUserByEmail(context.Background(), "kofi@domus.co")
	assert.ErrorIs(t, err, store.ErrNotFound)

	code, _ = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "kofi@domus.co", "password": "kofi-pw"})
	assert.Equal(t, http.StatusOK, code)
	_, err = h.users.FindUserByEmail(context.Background(), "kofi@domus.co")
	assert.NoError(t, err)
}

func TestAuth_FirstLoginLosesRegistrationRace(t *testing.T) {
	h := newHarness(t, true)
	h.userToken("efua@domus.co", "secret1")

	h.users.mu.Lock()
	h.users.staleReads = 1
	h.users.mu.Unlock()
	code, body := h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "efua@domus.co", "password": "secret1"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "efua@domus.co", body["user"].(map[string]any)["email"])

	h.users.mu.Lock()
	h.users.staleReads = 1
	h.users.mu.Unlock()
	code, body = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "efua@domus.co", "password": "another1"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestAuth_AccountLifecycle(t *testing.T) {
	h := newHarness(t, true)
	tok := h.userToken("ama@domus.co", "secret1")

	code, body := h.do(http.MethodPatch, "/v1/me", tok, map[string]any{"name": " Ama "})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ama", body["user"].(map[string]any)["name"])

	code, body = h.do(http.MethodPost, "/v1/me/password", tok, map[string]any{
		"currentPassword": "secret1", "newPassword": "secret2", "confirmPassword": "secret3",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "New passwords do not match.", body["detail"])

	code, body = h.do(http.MethodPost, "/v1/me/password", tok, map[string]any{
		"currentPassword": "nope", "newPassword": "secret2", "confirmPassword": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Incorrect current password.", body["fields"].(map[string]any)["currentPassword"])

	code, _ = h.do(http.MethodPost, "/v1/me/password", tok, map[string]any{
		"currentPassword": "secret1", "newPassword": "secret2", "confirmPassword": "secret2",
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "ama@domus.co", "password": "secret2"})
	assert.Equal(t, http.StatusOK, code)

	_, _ = h.do(http.MethodPut, "/v1/me/preferences", tok, map[string]any{"darkMode": true})
	_, _ = h.do(http.MethodPost, "/v1/compare/toggle", tok, map[string]any{"id": "x", "location": "Accra"})

	code, _ = h.do(http.MethodDelete, "/v1/me", tok, nil)
	require.Equal(t, http.StatusNoContent, code)
	_, err := h.users.FindUserByEmail(context.Background(), "ama@domus.co")
	assert.ErrorIs(t, err, store.ErrNotFound)
	p, err := h.prefs.Get(context.Background(), "ama@domus.co")
	require.NoError(t, err)
	assert.False(t, p.DarkMode)
}

func TestGuestRestrictions(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()

	code, body := h.do(http.MethodGet, "/v1/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["user"].(map[string]any)["guest"])

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/saved"},
		{http.MethodPut, "/v1/saved/abc"},
		{http.MethodGet, "/v1/properties/abc?location=Accra"},
		{http.MethodPost, "/v1/me/password"},
		{http.MethodDelete, "/v1/me"},
	} {
		code, body := h.do(tc.method, tc.path, tok, nil)
		assert.Equal(t, http.StatusForbidden, code, tc.path)
		assert.Equal(t, "login_required", body["error"], tc.path)
	}
}

func TestPropertyDetailAndMortgage(t *testing.T) {
	h := newHarness(t, true)
	tok := h.userToken("ama@domus.co", "secret1")
	accra := mockdata.Generate("Accra, Ghana")

	code, body := h.do(http.MethodGet, "/v1/properties/"+accra[2].ID+"?location=Accra,%20Ghana", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, accra[2].ID, body["property"].(map[string]any)["id"])

	stored := mockdata.Generate("Stored City, ST")[0]
	code, _ = h.do(http.MethodGet, "/v1/properties/"+stored.ID, tok, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = h.do(http.MethodGet, "/v1/properties/missing", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])

	guest := h.guestToken()
	code, body = h.do(http.MethodGet, "/v1/properties/"+accra[0].ID+"/mortgage?location=Accra,%20Ghana&rate=0&years=10", guest, nil)
	require.Equal(t, http.StatusOK, code, body)
	quote := body["quote"].(map[string]any)
	price := float64(accra[0].PriceMinorUnits) / 100
	assert.InDelta(t, price*0.8/120, quote["monthlyPayment"].(float64), 0.001)
	assert.Equal(t, "GHS", body["currencyCode"])

	code, body = h.do(http.MethodGet, "/v1/properties/"+accra[0].ID+"/mortgage?location=Accra,%20Ghana&years=80", guest, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestPropertyLookup_IDsCollideAcrossLocations(t *testing.T) {
	h := newHarness(t, true)
	tok := h.userToken("ama@domus.co", "secret1")
	accra := mockdata.Generate("Accra, Ghana")[0]

	// A later write for another location reuses the same provider id.
	other := mockdata.Generate("Los Angeles, CA")[4]
	other.ID = accra.ID
	h.props.put("key:Los Angeles, CA", other)

	archived := mockdata.Generate("Accra, Ghana")[1]
	archived.ID = "archived-1"
	h.props.put("key:Accra, Ghana", archived)

	code, body := h.do(http.MethodGet, "/v1/properties/"+accra.ID+"?location=Accra,%20Ghana", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	got := body["property"].(map[string]any)
	assert.Equal(t, accra.Address, got["address"])
	assert.EqualValues(t, accra.PriceMinorUnits, got["priceMinorUnits"])

	code, body = h.do(http.MethodGet, "/v1/properties/archived-1?location=Accra,%20Ghana", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, archived.Address, body["property"].(map[string]any)["address"])

	code, _ = h.do(http.MethodGet, "/v1/properties/archived-1?location=Los%20Angeles,%20CA", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = h.do(http.MethodGet, "/v1/properties/"+accra.ID, tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, other.Address, body["property"].(map[string]any)["address"])

	code, body = h.do(http.MethodPost, "/v1/compare/toggle", tok, map[string]any{"id": accra.ID, "location": "Accra, Ghana"})
	require.Equal(t, http.StatusOK, code, body)
	listed := body["properties"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, accra.Address, listed[0].(map[string]any)["address"])
}

func TestCompare(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()
	props := mockdata.Generate("Accra, Ghana")

	for i := 0; i < 3; i++ {
		code, body := h.do(http.MethodPost, "/v1/compare/toggle", tok, map[string]any{"property": props[i]})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, "added", body["outcome"])
	}
	code, body := h.do(http.MethodPost, "/v1/compare/toggle", tok, map[string]any{"id": props[3].ID, "location": "Accra, Ghana"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "compare_full", body["error"])

	code, body = h.do(http.MethodPost, "/v1/compare/toggle", tok, map[string]any{"id": props[1].ID, "location": "Accra, Ghana"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "removed", body["outcome"])
	assert.EqualValues(t, 2, body["count"])

	code, body = h.do(http.MethodGet, "/v1/compare", tok, nil)
	require.Equal(t, http.StatusOK, code)
	rows := body["table"].([]any)
	require.Len(t, rows, 6)
	assert.Len(t, rows[0].(map[string]any)["values"], 2)

	code, body = h.do(http.MethodDelete, "/v1/compare/"+props[0].ID, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = h.do(http.MethodDelete, "/v1/compare", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])

	code, _ = h.do(http.MethodPost, "/v1/compare/toggle", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSaved(t *testing.T) {
	h := newHarness(t, true)
	tok := h.userToken("ama@domus.co", "secret1")

	code, body := h.do(http.MethodPost, "/v1/saved/p1/toggle", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["saved"])
	code, _ = h.do(http.MethodPut, "/v1/saved/p2", tok, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodPut, "/v1/saved/p2", tok, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(http.MethodGet, "/v1/saved", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"p1", "p2"}, body["ids"])

	code, body = h.do(http.MethodPost, "/v1/saved/p1/toggle", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["saved"])
	code, _ = h.do(http.MethodDelete, "/v1/saved/p2", tok, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(http.MethodGet, "/v1/saved", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["ids"])
}

func TestStatelessMode(t *testing.T) {
	h := newHarness(t, false)

	code, body := h.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "ama@domus.co", "password": "x"})
	require.Equal(t, http.StatusOK, code)
	tok := body["access_token"].(string)

	code, body = h.do(http.MethodGet, "/v1/saved", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "storage_unavailable", body["error"])

	code, _ = h.do(http.MethodPost, "/v1/auth/signup", "", map[string]any{"email": "ama@domus.co", "password": "secret1"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestPreferences(t *testing.T) {
	h := newHarness(t, true)
	tok := h.guestToken()

	code, body := h.do(http.MethodGet, "/v1/me/preferences", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["preferences"].(map[string]any)["darkMode"])

	code, _ = h.do(http.MethodPut, "/v1/me/preferences", tok, map[string]any{"darkMode": true})
	require.Equal(t, http.StatusOK, code)
	code, body = h.do(http.MethodGet, "/v1/me/preferences", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["preferences"].(map[string]any)["darkMode"])

	h.do(http.MethodGet, "/v1/properties/search?location=Kumasi", tok, nil)
	h.do(http.MethodGet, "/v1/properties/search?location=Tema", tok, nil)
	code, body = h.do(http.MethodGet, "/v1/me/history", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Tema", "Kumasi"}, body["history"])

	code, body = h.do(http.MethodDelete, "/v1/me/history", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["history"])
}

func TestHydrate(t *testing.T) {
	h := newHarness(t, true)
	tok := h.userToken("ama@domus.co", "secret1")

	code, body := h.do(http.MethodPost, "/v1/hydrate", tok, map[string]any{"location": "Accra, Ghana"})
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, true, body["queued"])
	require.Len(t, h.queue.jobs, 1)
	assert.Equal(t, "key:Accra, Ghana", h.queue.jobs[0].Key)

	code, _ = h.do(http.MethodPost, "/v1/hydrate", tok, map[string]any{"location": " "})
	assert.Equal(t, http.StatusBadRequest, code)
}
