package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scankiosk/internal/config"
	"scankiosk/internal/epsonscan"
	"scankiosk/internal/hotplug"
	"scankiosk/internal/logging"
	"scankiosk/internal/testsupport"
)

type fakeScanning struct {
	installed bool
	scanners  []epsonscan.Scanner
	err       error
	listCalls int
}

func (f *fakeScanning) Installed(context.Context) bool { return f.installed }

func (f *fakeScanning) Scanners(context.Context) ([]epsonscan.Scanner, error) {
	f.listCalls++
	return f.scanners, f.err
}

type requestCall struct {
	scannerID      string
	profileName    string
	profileDir     string
	defaultProfile string
	deadline       bool
}

type fakeRequester struct {
	mu     sync.Mutex
	result epsonscan.Result
	calls  []requestCall
}

func (f *fakeRequester) RequestScan(ctx context.Context, scannerID, profileName, profileDir, defaultProfile string) epsonscan.Result {
	_, hasDeadline := ctx.Deadline()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, requestCall{
		scannerID:      scannerID,
		profileName:    profileName,
		profileDir:     profileDir,
		defaultProfile: defaultProfile,
		deadline:       hasDeadline,
	})
	return f.result
}

func newTestDaemon(t *testing.T, cfg *config.Config, scanning *fakeScanning, requester *fakeRequester) (*Daemon, *logging.EventBus) {
	t.Helper()
	bus := logging.NewEventBus()
	logger, err := logging.New(logging.Options{Level: "info", Writer: &strings.Builder{}, Bus: bus})
	require.NoError(t, err)
	d, err := New(cfg, logger, bus, scanning, requester)
	require.NoError(t, err)
	return d, bus
}

func serve(d *Daemon, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	d.server.router.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := New(cfg, logging.NewNop(), nil, nil, &fakeRequester{})
	assert.Error(t, err)
	_, err = New(nil, logging.NewNop(), nil, &fakeScanning{}, &fakeRequester{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	d, _ := newTestDaemon(t, testsupport.NewConfig(t), &fakeScanning{}, &fakeRequester{})

	rec := serve(d, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexShowsScannersAndProfiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProfiles("Settings.SF2", "photo_color.SF2"))
	scanning := &fakeScanning{installed: true, scanners: []epsonscan.Scanner{{ID: "ES013E", Model: "DS-310"}}}
	d, _ := newTestDaemon(t, cfg, scanning, &fakeRequester{})

	rec := serve(d, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Epson Scan Kiosk</title>")
	assert.Contains(t, body, "Tap to Scan")
	assert.Contains(t, body, `class="good">Available<`)
	assert.Contains(t, body, `data-scanner="ES013E"`)
	assert.Contains(t, body, ">DS-310<")
	assert.Contains(t, body, `<select id="configuration"`)
	assert.Contains(t, body, `<option value="Settings.SF2" selected>`)
	assert.Contains(t, body, ">Photo Color<")
	assert.Contains(t, body, `id="footer"`)
}

func TestIndexUnavailableSkipsListing(t *testing.T) {
	scanning := &fakeScanning{installed: false}
	d, _ := newTestDaemon(t, testsupport.NewConfig(t), scanning, &fakeRequester{})

	rec := serve(d, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="bad">Unavailable<`)
	assert.Zero(t, scanning.listCalls)
}

func TestIndexEscapesListingError(t *testing.T) {
	scanning := &fakeScanning{installed: true, err: errors.New("<usb> broke")}
	d, _ := newTestDaemon(t, testsupport.NewConfig(t), scanning, &fakeRequester{})

	rec := serve(d, http.MethodGet, "/", "", "")

	assert.Contains(t, rec.Body.String(), "&lt;usb&gt; broke")
}

func TestStaticAssets(t *testing.T) {
	d, _ := newTestDaemon(t, testsupport.NewConfig(t), &fakeScanning{}, &fakeRequester{})

	rec := serve(d, http.MethodGet, "/static/app.js", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/scan")
}

func TestScanHandler(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		result      epsonscan.Result
		wantStatus  int
		wantResult  string
		wantCall    bool
	}{
		{name: "ok", contentType: "application/json", body: `{"scanner":"ES-1","configuration":"Photo.SF2"}`, result: epsonscan.ResultOK, wantStatus: http.StatusOK, wantResult: "ok", wantCall: true},
		{name: "not installed", contentType: "application/json", body: `{"scanner":"ES-1"}`, result: epsonscan.ResultNotInstalled, wantStatus: http.StatusServiceUnavailable, wantResult: "not_installed", wantCall: true},
		{name: "failure", contentType: "application/json", body: `{"scanner":"ES-1"}`, result: epsonscan.ResultFailure, wantStatus: http.StatusBadGateway, wantResult: "failure", wantCall: true},
		{name: "form", contentType: "application/x-www-form-urlencoded", body: url.Values{"scanner": {"ES-1"}, "configuration": {"Photo.SF2"}}.Encode(), wantStatus: http.StatusOK, wantResult: "ok", wantCall: true},
		{name: "missing scanner", contentType: "application/json", body: `{"configuration":"Photo.SF2"}`, wantStatus: http.StatusBadRequest},
		{name: "blank scanner", contentType: "application/json", body: `{"scanner":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", contentType: "application/json", body: `{"scanner":`, wantStatus: http.StatusBadRequest},
		{name: "empty body", contentType: "application/json", body: ``, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			requester := &fakeRequester{result: tt.result}
			d, _ := newTestDaemon(t, cfg, &fakeScanning{installed: true}, requester)

			rec := serve(d, http.MethodPost, "/scan", tt.contentType, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if !tt.wantCall {
				assert.Empty(t, requester.calls)
				return
			}
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantResult, resp["result"])
			require.Len(t, requester.calls, 1)
			call := requester.calls[0]
			assert.Equal(t, "ES-1", call.scannerID)
			assert.Equal(t, cfg.Paths.ProfileDir, call.profileDir)
			assert.Equal(t, cfg.Paths.DefaultProfile, call.defaultProfile)
			assert.False(t, call.deadline)
		})
	}
}

func TestScanHandlerAppliesTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scan.TimeoutSeconds = 30
	requester := &fakeRequester{}
	d, _ := newTestDaemon(t, cfg, &fakeScanning{}, requester)

	rec := serve(d, http.MethodPost, "/scan", "application/json", `{"scanner":"ES-1","configuration":"A.SF2"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, requester.calls, 1)
	assert.True(t, requester.calls[0].deadline)
	assert.Equal(t, "A.SF2", requester.calls[0].profileName)
}

func TestScannersEndpoint(t *testing.T) {
	d, _ := newTestDaemon(t, testsupport.NewConfig(t), &fakeScanning{scanners: []epsonscan.Scanner{{ID: "ES-1", Model: "DS-310"}}}, &fakeRequester{})
	rec := serve(d, http.MethodGet, "/api/scanners", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"scanners":[{"id":"ES-1","model":"DS-310"}]}`, rec.Body.String())

	d, _ = newTestDaemon(t, testsupport.NewConfig(t), &fakeScanning{err: epsonscan.ErrNotInstalled}, &fakeRequester{})
	rec = serve(d, http.MethodGet, "/api/scanners", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	d, _ = newTestDaemon(t, testsupport.NewConfig(t), &fakeScanning{err: errors.New("parse")}, &fakeRequester{})
	rec = serve(d, http.MethodGet, "/api/scanners", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestProfilesEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProfiles("b_w.SF2", "Settings.SF2", "notes.txt"))
	d, _ := newTestDaemon(t, cfg, &fakeScanning{}, &fakeRequester{})

	rec := serve(d, http.MethodGet, "/api/profiles", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Default  string        `json:"default"`
		Profiles []profileView `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Settings.SF2", resp.Default)
	require.Len(t, resp.Profiles, 2)
	assert.Equal(t, "Settings.SF2", resp.Profiles[0].Name)
	assert.Equal(t, "B W", resp.Profiles[1].DisplayName)
}

func TestStatusEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSingleFlight())
	d, _ := newTestDaemon(t, cfg, &fakeScanning{installed: true}, &fakeRequester{})
	d.recordUSBEvent(context.Background(), hotplug.Event{Action: hotplug.ActionAttached, Model: "DS-310"})

	rec := serve(d, http.MethodGet, "/api/status", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.True(t, status.Installed)
	assert.True(t, status.SingleFlight)
	assert.False(t, status.Hotplug)
	assert.Equal(t, cfg.LockPath(), status.LockFilePath)
	assert.Equal(t, "DS-310 attached", status.LastUSBEvent)
	assert.NotNil(t, status.LastUSBEventAt)
	require.Len(t, status.Dependencies, 1)
	assert.Equal(t, "epsonscan2", status.Dependencies[0].Command)
}

func TestLiveFeedRelaysBusEvents(t *testing.T) {
	d, bus := newTestDaemon(t, testsupport.NewConfig(t), &fakeScanning{}, &fakeRequester{})
	srv := httptest.NewServer(d.server.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return bus.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, d.server.feed.clientCount())

	bus.Publish(logging.LogEvent{Severity: logging.SeverityWarning, Message: "paper jam", Component: "epsonscan"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"warning","message":"paper jam"}`, string(payload))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return bus.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, d.server.feed.clientCount())
}

func TestLiveFeedDropsWhenQueueFull(t *testing.T) {
	client := &feedClient{send: make(chan []byte, 1), done: make(chan struct{})}

	client.enqueue(logging.LogEvent{Severity: logging.SeverityInfo, Message: "one"})
	client.enqueue(logging.LogEvent{Severity: logging.SeverityInfo, Message: "two"})

	assert.Len(t, client.send, 1)
	assert.Equal(t, int64(1), client.dropped.Load())
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newTestDaemon(t, cfg, &fakeScanning{}, &fakeRequester{})
	second, _ := newTestDaemon(t, cfg, &fakeScanning{}, &fakeRequester{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, first.Start(ctx))
	t.Cleanup(first.Stop)
	assert.NotEmpty(t, first.Addr())
	assert.True(t, first.Status(ctx).Running)

	err := second.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	resp, err := http.Get("http://" + first.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	first.Stop()
	assert.Empty(t, first.Addr())
	assert.False(t, first.Status(ctx).Running)
}

func TestStartSeedsDefaultProfile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "seed.SF2")
	want := testsupport.WriteProfile(t, source)
	cfg.Paths.DefaultProfileSource = source
	d, _ := newTestDaemon(t, cfg, &fakeScanning{}, &fakeRequester{})

	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)

	rec := serve(d, http.MethodGet, "/api/profiles", "", "")
	assert.Contains(t, rec.Body.String(), `"name":"Settings.SF2"`)

	got, err := os.ReadFile(filepath.Join(cfg.Paths.ProfileDir, "Settings.SF2"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
