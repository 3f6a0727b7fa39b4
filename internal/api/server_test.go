package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/lumenhub-core/internal/aggregate"
	"github.com/nerrad567/lumenhub-core/internal/auth"
	"github.com/nerrad567/lumenhub-core/internal/bridge"
	"github.com/nerrad567/lumenhub-core/internal/bridges/hue"
	"github.com/nerrad567/lumenhub-core/internal/device"
	"github.com/nerrad567/lumenhub-core/internal/events"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/config"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/database"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/lumenhub-core/internal/infrastructure/metrics"
	"github.com/nerrad567/lumenhub-core/internal/provider"
	"github.com/nerrad567/lumenhub-core/migrations"
)

const (
	testSecret   = "test-secret-key-at-least-32-characters-long"
	bridgeUser   = "paired"
	testAltOwner = "bob"
)

// fakeHue serves one colour light ("1") and one plug ("2").
type fakeHue struct {
	mu          sync.Mutex
	on          bool
	linkPressed bool
}

func (f *fakeHue) lightsJSON() string {
	return fmt.Sprintf(`{
		"1": {"state": {"on": %t, "bri": 254, "hue": 0, "sat": 254, "colormode": "hs", "reachable": true},
			"type": "Extended color light", "name": "Desk", "modelid": "LCT015",
			"manufacturername": "Signify", "uniqueid": "u-1", "swversion": "1"},
		"2": {"state": {"on": false, "reachable": true},
			"type": "On/Off plug-in unit", "name": "Kettle", "modelid": "LOM001",
			"manufacturername": "Signify", "uniqueid": "u-2", "swversion": "1",
			"config": {"archetype": "plug"}}
	}`, f.on)
}

func (f *fakeHue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/api/" + bridgeUser + "/"
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api":
		if !f.linkPressed {
			io.WriteString(w, `[{"error": {"type": 101, "address": "", "description": "link button not pressed"}}]`) //nolint:errcheck // Test fake
			return
		}
		io.WriteString(w, `[{"success": {"username": "`+bridgeUser+`"}}]`) //nolint:errcheck // Test fake
	case r.Method == http.MethodGet && r.URL.Path == prefix+"lights":
		io.WriteString(w, f.lightsJSON()) //nolint:errcheck // Test fake
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, prefix+"lights/"):
		var all map[string]json.RawMessage
		json.Unmarshal([]byte(f.lightsJSON()), &all) //nolint:errcheck // Fixture is valid
		entry, ok := all[strings.TrimPrefix(r.URL.Path, prefix+"lights/")]
		if !ok {
			io.WriteString(w, `[{"error": {"type": 3, "address": "", "description": "resource not available"}}]`) //nolint:errcheck // Test fake
			return
		}
		w.Write(entry) //nolint:errcheck // Test fake
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/state"):
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // Test fake
		if on, ok := body["on"].(bool); ok {
			f.on = on
		}
		io.WriteString(w, `[{"success": {"/lights/1/state/on": true}}]`) //nolint:errcheck // Test fake
	case r.Method == http.MethodGet && r.URL.Path == prefix+"scenes":
		io.WriteString(w, `{"abc": {"name": "Relax", "type": "GroupScene", "group": "1", "lights": ["1"], "owner": "x",
			"recycle": false, "locked": false, "picture": "", "lastupdated": "2024-01-01T00:00:00", "version": 2}}`) //nolint:errcheck // Test fake
	case r.Method == http.MethodPut && r.URL.Path == prefix+"groups/1/action":
		io.WriteString(w, `[{"success": {"/groups/1/action/scene": "abc"}}]`) //nolint:errcheck // Test fake
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	bus     *events.Bus
	repo    *bridge.SQLiteRepository
	hue     *fakeHue
	hueAddr string
}

func testServer(t *testing.T, stream config.StreamConfig) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	m := metrics.New()
	bus := events.NewBus(16, events.WithObserver(m))
	t.Cleanup(bus.Close)

	repo := bridge.NewSQLiteRepository(db.DB)
	hueProvider := hue.NewProvider(&http.Client{Timeout: 2 * time.Second}, "lumenhub#test", log, hue.WithObserver(m))
	svc := aggregate.New(repo, provider.NewRegistry(hueProvider), bus, log)

	fake := &fakeHue{}
	hueSrv := httptest.NewServer(fake)
	t.Cleanup(hueSrv.Close)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
			CORS: config.CORSConfig{AllowedOrigins: []string{"http://panel.local"}},
		},
		Stream: stream,
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret},
		},
		Logger:  log,
		DB:      db,
		Service: svc,
		Bus:     bus,
		Metrics: m,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return &testEnv{
		srv:     srv,
		handler: srv.buildRouter(),
		bus:     bus,
		repo:    repo,
		hue:     fake,
		hueAddr: strings.TrimPrefix(hueSrv.URL, "http://"),
	}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(userID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return tok
}

// do serves one request as userID; an empty userID sends no token.
func (e *testEnv) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// addPairedBridge registers the fake bridge for userID as bridge "1".
func (e *testEnv) addPairedBridge(t *testing.T, userID string) {
	t.Helper()
	if _, err := e.repo.Create(context.Background(), userID, bridge.ProviderHue, e.hueAddr, bridgeUser); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) Error {
	t.Helper()
	var e Error
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error body %q: %v", w.Body.String(), err)
	}
	return e
}

// ─── Status and Health ─────────────────────────────────────────────

func TestStatus_NoAuth(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	w := env.do(t, http.MethodGet, "/api/status", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "OK" || resp["version"] != "test" {
		t.Errorf("response = %v", resp)
	}
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("broker down") }

func TestHealth(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	w := env.do(t, http.MethodGet, "/api/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v, want ok", resp)
	}

	env.srv.mqtt = failingCheck{}
	w = env.do(t, http.MethodGet, "/api/health", "", "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Code != http.StatusOK || resp.Status != "degraded" || resp.Checks["mqtt"] != "broker down" {
		t.Errorf("health with failing mqtt = %d %+v, want 200 degraded", w.Code, resp)
	}
}

// ─── Middleware ────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	w := env.do(t, http.MethodGet, "/api/status", "", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-Request-ID", "client-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	tests := []struct {
		origin     string
		wantHeader string
		wantCode   int
	}{
		{origin: "http://panel.local", wantHeader: "http://panel.local", wantCode: http.StatusNoContent},
		{origin: "http://evil.example", wantHeader: ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/lights", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
			if tt.wantCode != 0 && w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestAuth(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	tests := []struct {
		name   string
		header string
		path   string
		want   int
	}{
		{name: "missing", path: "/api/lights", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", path: "/api/lights", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", path: "/api/lights", want: http.StatusUnauthorized},
		{name: "query token ignored on rest routes", path: "/api/lights?token=" + token(t, "alice"), want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token(t, "alice"), path: "/api/lights", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if e := decodeError(t, w); e.Code != ErrCodeUnauthorized || e.Status != http.StatusUnauthorized {
					t.Errorf("error body = %+v", e)
				}
			}
		})
	}
}

// ─── Devices ───────────────────────────────────────────────────────

func TestListLights_NoBridges(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	w := env.do(t, http.MethodGet, "/api/lights", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestDevices(t *testing.T) {
	env := testServer(t, config.StreamConfig{})
	env.addPairedBridge(t, "alice")

	w := env.do(t, http.MethodGet, "/api/lights", "alice", "")
	var lights []device.Light
	if err := json.Unmarshal(w.Body.Bytes(), &lights); err != nil {
		t.Fatalf("unmarshal lights: %v", err)
	}
	if len(lights) != 1 || lights[0].ID != "hue-1-1" {
		t.Fatalf("lights = %+v, want [hue-1-1]", lights)
	}

	w = env.do(t, http.MethodGet, "/api/plugs", "alice", "")
	var plugs []device.Plug
	if err := json.Unmarshal(w.Body.Bytes(), &plugs); err != nil {
		t.Fatalf("unmarshal plugs: %v", err)
	}
	if len(plugs) != 1 || plugs[0].ID != "hue-1-2" {
		t.Fatalf("plugs = %+v, want [hue-1-2]", plugs)
	}

	w = env.do(t, http.MethodGet, "/api/lights/hue-1-1", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET light status = %d, body %s", w.Code, w.Body.String())
	}
	var light map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &light); err != nil {
		t.Fatalf("unmarshal light: %v", err)
	}
	if light["name"] != "Desk" || light["uniqueid"] != "u-1" {
		t.Errorf("light = %v", light)
	}

	w = env.do(t, http.MethodPut, "/api/lights/hue-1-1/state", "alice", `{"on": true, "color": [[255, 0, 0]]}`)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "{}" {
		t.Errorf("PUT light state = %d %s, want 200 {}", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPut, "/api/plugs/hue-1-2/state", "alice", `{"on": false}`)
	if w.Code != http.StatusOK {
		t.Errorf("PUT plug state = %d %s, want 200", w.Code, w.Body.String())
	}
}

func TestDevices_Errors(t *testing.T) {
	env := testServer(t, config.StreamConfig{})
	env.addPairedBridge(t, "alice")

	tests := []struct {
		name     string
		method   string
		path     string
		userID   string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed id", http.MethodGet, "/api/lights/hue-1", "alice", "", http.StatusNotFound, ErrCodeNotFound},
		{"unknown provider", http.MethodGet, "/api/lights/lifx-1-1", "alice", "", http.StatusNotFound, ErrCodeNotFound},
		{"other user's bridge", http.MethodGet, "/api/lights/hue-1-1", testAltOwner, "", http.StatusNotFound, ErrCodeNotFound},
		{"missing device", http.MethodGet, "/api/lights/hue-1-99", "alice", "", http.StatusNotFound, ErrCodeNotFound},
		{"plug is not a light", http.MethodGet, "/api/lights/hue-1-2", "alice", "", http.StatusBadGateway, ErrCodeUpstreamProtocol},
		{"invalid json", http.MethodPut, "/api/lights/hue-1-1/state", "alice", `{"on":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"color out of range", http.MethodPut, "/api/lights/hue-1-1/state", "alice", `{"color": [[300, 0, 0]]}`, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.userID, tt.body)
			if tt.wantCode != 0 && w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if e := decodeError(t, w); e.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", e.Code, tt.wantErr)
			}
		})
	}
}

// ─── Hue bridge management ─────────────────────────────────────────

func TestBridgeLifecycle(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	w := env.do(t, http.MethodPut, "/api/hue/config/add", "alice", `{"host": "`+env.hueAddr+`", "user": ""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
	}
	var added map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &added); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if added["id"] != "1" {
		t.Errorf("added id = %q, want 1", added["id"])
	}

	w = env.do(t, http.MethodPut, "/api/hue/config/add", "alice", `{"host": "`+env.hueAddr+`"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate add status = %d, want 409", w.Code)
	}
	if e := decodeError(t, w); e.Message != "Bridge already exists" {
		t.Errorf("duplicate message = %q", e.Message)
	}

	w = env.do(t, http.MethodPut, "/api/hue/config/add", "alice", `{"host": ""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty host status = %d, want 400", w.Code)
	}

	// Unpaired bridge: single-device calls fail loudly
	w = env.do(t, http.MethodGet, "/api/lights/hue-1-1", "alice", "")
	if w.Code != http.StatusBadGateway || decodeError(t, w).Code != ErrCodeUpstreamUnreachable {
		t.Errorf("unpaired GET = %d %s, want 502 upstream_unreachable", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/hue/init/1", "alice", "")
	if w.Code != http.StatusUnauthorized || decodeError(t, w).Code != ErrCodeLinkButtonNotPressed {
		t.Fatalf("pair before button = %d %s, want 401 link_button_not_pressed", w.Code, w.Body.String())
	}

	env.hue.mu.Lock()
	env.hue.linkPressed = true
	env.hue.mu.Unlock()

	w = env.do(t, http.MethodGet, "/api/hue/init/1", "alice", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"`+bridgeUser+`"`) {
		t.Fatalf("pair = %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/hue/bridges", "alice", "")
	var bridges []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &bridges); err != nil {
		t.Fatalf("unmarshal bridges: %v", err)
	}
	if len(bridges) != 1 || bridges[0]["user"] != bridgeUser || bridges[0]["ip"] != env.hueAddr {
		t.Errorf("bridges = %v", bridges)
	}

	w = env.do(t, http.MethodGet, "/api/hue/scenes/1", "alice", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":"abc"`) {
		t.Errorf("scenes = %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPut, "/api/hue/scenes/1/1/abc", "alice", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":"abc"`) {
		t.Errorf("activate = %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodDelete, "/api/hue/config/1", testAltOwner, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("delete by other user = %d, want 404", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/hue/config/1", "alice", "")
	if w.Code != http.StatusOK {
		t.Errorf("delete = %d, want 200", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/hue/bridges", "alice", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("bridges after delete = %s, want []", w.Body.String())
	}
}

// ─── Error mapping ─────────────────────────────────────────────────

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{device.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
		{device.ErrUnknownDevice, http.StatusNotFound, ErrCodeNotFound},
		{device.ErrUnknownProvider, http.StatusNotFound, ErrCodeNotFound},
		{bridge.ErrBridgeNotFound, http.StatusNotFound, ErrCodeNotFound},
		{bridge.ErrBridgeExists, http.StatusConflict, ErrCodeConflict},
		{fmt.Errorf("pair: %w", device.ErrLinkButtonNotPressed), http.StatusUnauthorized, ErrCodeLinkButtonNotPressed},
		{device.ErrUpstreamUnreachable, http.StatusBadGateway, ErrCodeUpstreamUnreachable},
		{device.ErrUpstreamProtocol, http.StatusBadGateway, ErrCodeUpstreamProtocol},
		{aggregate.ErrInvalidBridge, http.StatusBadRequest, ErrCodeBadRequest},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := classifyError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classifyError() = %d %q, want %d %q", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

// ─── Metrics ───────────────────────────────────────────────────────

func TestMetrics(t *testing.T) {
	env := testServer(t, config.StreamConfig{})

	w := env.do(t, http.MethodGet, "/api/metrics", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var m SystemMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Version != "test" || m.Streams.BusCapacity != 16 || m.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", m)
	}

	w = env.do(t, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("prometheus status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `lumenhub_http_requests_total{method="GET",route="/api/metrics/",status="200"}`) &&
		!strings.Contains(body, `lumenhub_http_requests_total{method="GET",route="/api/metrics",status="200"}`) {
		t.Errorf("prometheus output missing http request counter:\n%s", body)
	}
}
