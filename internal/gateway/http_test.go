package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/models"
)

// fakeBackend is a minimal add-on backend speaking the /api/v1 protocol.
type fakeBackend struct {
	mu       sync.Mutex
	bodies   map[string]map[string]interface{}
	replies  map[string]string // "METHOD endpoint" -> raw JSON body
	statuses map[string]int
	reqIDs   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bodies:   make(map[string]map[string]interface{}),
		replies:  make(map[string]string),
		statuses: make(map[string]int),
	}
}

func (b *fakeBackend) reply(method, endpoint string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + endpoint
	b.replies[key] = body
	b.statuses[key] = status
}

func (b *fakeBackend) body(method, endpoint string) map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[method+" "+endpoint]
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + chi.URLParam(r, "endpoint")
	b.mu.Lock()
	b.reqIDs = append(b.reqIDs, r.Header.Get("X-Request-ID"))
	if r.Method == http.MethodPost {
		var m map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&m)
		b.bodies[key] = m
	}
	body, ok := b.replies[key]
	status := b.statuses[key]
	b.mu.Unlock()

	if !ok {
		body, status = "{}", http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T) (*gateway.HTTPClient, *fakeBackend, *httptest.Server) {
	t.Helper()
	backend := newFakeBackend()
	r := chi.NewRouter()
	r.Get("/api/v1/{endpoint}", backend.handle)
	r.Post("/api/v1/{endpoint}", backend.handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := gateway.NewHTTPClient(srv.URL + "/").WithHTTPClient(srv.Client()).WithRateLimit(0)
	return c, backend, srv
}

func TestHTTPGetMountState(t *testing.T) {
	c, backend, _ := newTestClient(t)
	ctx := context.Background()

	backend.reply("GET", "mounted", 200, `{"is_mounted": true}`)
	mounted, err := c.GetMountState(ctx)
	if err != nil || !mounted {
		t.Fatalf("GetMountState = %v, %v; want true, nil", mounted, err)
	}

	backend.reply("GET", "mounted", 200, `{"mounted": false}`)
	mounted, err = c.GetMountState(ctx)
	if err != nil || mounted {
		t.Fatalf("legacy GetMountState = %v, %v; want false, nil", mounted, err)
	}

	backend.reply("GET", "mounted", 200, `{}`)
	if _, err := c.GetMountState(ctx); err == nil {
		t.Fatal("GetMountState with empty payload succeeded, want transport error")
	}
}

func TestHTTPMountPermissionDenied(t *testing.T) {
	c, backend, _ := newTestClient(t)

	backend.reply("POST", "mount", 200, `{"error": "PERMISSION_DENIED"}`)
	err := c.Mount(context.Background())
	if err == nil {
		t.Fatal("Mount succeeded, want error")
	}
	if !gateway.IsPermissionDenied(err) {
		t.Errorf("IsPermissionDenied(%v) = false", err)
	}
	var re *gateway.RemoteError
	if !errors.As(err, &re) || re.Op != gateway.OpMount {
		t.Errorf("err = %#v, want RemoteError for mount", err)
	}
}

func TestHTTPRemoteErrorWithFailureStatus(t *testing.T) {
	c, backend, _ := newTestClient(t)

	backend.reply("POST", "mount", 500, `{"error": "MOUNT_FAILED"}`)
	err := c.Mount(context.Background())
	var re *gateway.RemoteError
	if !errors.As(err, &re) || re.Code != "MOUNT_FAILED" {
		t.Fatalf("err = %v, want RemoteError MOUNT_FAILED", err)
	}
	if gateway.IsPermissionDenied(err) {
		t.Error("generic remote error reported as permission denied")
	}
}

func TestHTTPErrorWithoutCode(t *testing.T) {
	for _, body := range []string{`{"error": null}`, `{"error": ""}`, `{"error": "  "}`} {
		t.Run(body, func(t *testing.T) {
			c, backend, _ := newTestClient(t)
			backend.reply("POST", "mount", 200, body)

			err := c.Mount(context.Background())
			var te *gateway.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want TransportError", err)
			}
			var re *gateway.RemoteError
			if errors.As(err, &re) {
				t.Errorf("err = %v reported as remote error with code %q", err, re.Code)
			}
		})
	}
}

func TestHTTPGetInterfaceState(t *testing.T) {
	c, backend, _ := newTestClient(t)
	ctx := context.Background()

	backend.reply("GET", "spi", 200, `{"enabled": true, "configured": false}`)
	st, err := c.GetInterfaceState(ctx, models.SPI)
	if err != nil {
		t.Fatalf("GetInterfaceState: %v", err)
	}
	if !st.Enabled || st.Configured {
		t.Errorf("status = %+v, want enabled only", st)
	}

	backend.reply("GET", "i2c", 200, `{"enable": true}`)
	if _, err := c.GetInterfaceState(ctx, models.I2C); err == nil {
		t.Error("payload without enabled/configured accepted")
	}
}

func TestHTTPSetInterfaceStateBody(t *testing.T) {
	c, backend, _ := newTestClient(t)

	if err := c.SetInterfaceState(context.Background(), models.I2C, true); err != nil {
		t.Fatalf("SetInterfaceState: %v", err)
	}
	body := backend.body("POST", "i2c")
	if body["enable"] != true {
		t.Errorf("posted body = %v, want enable=true", body)
	}
}

func TestHTTPConfigText(t *testing.T) {
	c, backend, _ := newTestClient(t)
	ctx := context.Background()

	backend.reply("GET", "configTxt", 200, `{"configTxt": "dtparam=i2c_arm=on\n"}`)
	text, err := c.GetConfigText(ctx)
	if err != nil || text != "dtparam=i2c_arm=on\n" {
		t.Fatalf("GetConfigText = %q, %v", text, err)
	}

	if err := c.SetConfigText(ctx, "dtparam=spi=on\n"); err != nil {
		t.Fatalf("SetConfigText: %v", err)
	}
	if got := backend.body("POST", "configTxt")["configTxt"]; got != "dtparam=spi=on\n" {
		t.Errorf("posted configTxt = %v", got)
	}
}

func TestHTTPTransportFailures(t *testing.T) {
	c, backend, srv := newTestClient(t)
	ctx := context.Background()

	backend.reply("GET", "configTxt", 200, `not json`)
	_, err := c.GetConfigText(ctx)
	var te *gateway.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("non-JSON body: err = %v, want TransportError", err)
	}

	backend.reply("POST", "reboot", 502, ``)
	if err := c.Reboot(ctx); !errors.As(err, &te) {
		t.Fatalf("502 empty body: err = %v, want TransportError", err)
	}

	backend.reply("POST", "configTxt", 500, `{"detail": "boom"}`)
	if err := c.SetConfigText(ctx, "x"); !errors.As(err, &te) {
		t.Fatalf("500 without error key: err = %v, want TransportError", err)
	}

	srv.Close()
	if _, err := c.GetMountState(ctx); !errors.As(err, &te) {
		t.Fatalf("closed server: err = %v, want TransportError", err)
	}
}

func TestHTTPEmptySuccessBody(t *testing.T) {
	c, backend, _ := newTestClient(t)

	backend.reply("POST", "reboot", 200, ``)
	if err := c.Reboot(context.Background()); err != nil {
		t.Errorf("Reboot with empty 200 body: %v", err)
	}
}

func TestHTTPRequestIDs(t *testing.T) {
	c, backend, _ := newTestClient(t)
	ctx := context.Background()

	_, _ = c.GetMountState(ctx)
	_, _ = c.GetMountState(ctx)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.reqIDs) != 2 {
		t.Fatalf("got %d requests, want 2", len(backend.reqIDs))
	}
	if backend.reqIDs[0] == "" || backend.reqIDs[0] == backend.reqIDs[1] {
		t.Errorf("request ids = %v, want two distinct non-empty ids", backend.reqIDs)
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"permission", &gateway.RemoteError{Op: gateway.OpMount, Code: models.CodePermissionDenied}, models.CodePermissionDenied, 403},
		{"remote", &gateway.RemoteError{Op: gateway.OpMount, Code: "NO_BOOT"}, "NO_BOOT", 502},
		{"transport", &gateway.TransportError{Op: gateway.OpMount, Err: errors.New("refused")}, models.CodeTransport, 502},
		{"plain", errors.New("odd"), models.CodeTransport, 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := gateway.ToAppError(tt.err)
			if appErr.Code != tt.code || appErr.Status != tt.status {
				t.Errorf("ToAppError = %+v, want code %s status %d", appErr, tt.code, tt.status)
			}
		})
	}
	if gateway.ToAppError(nil) != nil {
		t.Error("ToAppError(nil) != nil")
	}
	if msg := gateway.ToAppError(&gateway.RemoteError{Code: "X"}).Message; msg != "Error: X" {
		t.Errorf("remote message = %q, want %q", msg, "Error: X")
	}
}
