package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/micro-nova/piconfig-go/internal/advisory"
	"github.com/micro-nova/piconfig-go/internal/api"
	"github.com/micro-nova/piconfig-go/internal/auth"
	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/events"
	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/models"
)

type testEnv struct {
	srv  *httptest.Server
	gw   *gateway.Mock
	ctrl *controller.Controller
}

// newTestServer spins up a full router over the in-memory gateway. authDir
// may hold a users.json; an empty dir means open mode.
func newTestServer(t *testing.T, authDir string) *testEnv {
	t.Helper()

	gw := gateway.NewMock()
	gw.SetStoredConfigText("dtparam=audio=on\n")
	bus := events.NewBus()
	ctrl := controller.New(gw, bus)

	if authDir == "" {
		authDir = t.TempDir()
	}
	authSvc, err := auth.NewService(authDir)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	info := func() models.Info {
		return models.Info{Version: "test", Hostname: "pi", Gateway: "mock", Mock: true}
	}
	router := api.NewRouter(ctrl, authSvc, bus, info)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})
	return &testEnv{srv: srv, gw: gw, ctrl: ctrl}
}

// newMountedServer returns a server whose session has completed the cascade.
func newMountedServer(t *testing.T) *testEnv {
	t.Helper()
	env := newTestServer(t, "")
	resp := do(t, env.srv, "POST", "/api/mount", "")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	return env
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	return doWithKey(t, srv, method, path, body, "")
}

func doWithKey(t *testing.T, srv *httptest.Server, method, path, body, key string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

// requireStatus fails the test if the response status doesn't match.
func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

func requireError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	requireStatus(t, resp, status)
	var body models.AppError
	decodeJSON(t, resp, &body)
	if body.Code != code {
		t.Errorf("error = %q, want %q (message %q)", body.Code, code, body.Message)
	}
}

// --- Tests ---

func TestGetState(t *testing.T) {
	env := newTestServer(t, "")

	for _, path := range []string{"/api", "/api/state"} {
		resp := do(t, env.srv, "GET", path, "")
		requireStatus(t, resp, http.StatusOK)

		var view advisory.View
		decodeJSON(t, resp, &view)
		if view.State.Mount.Mounted {
			t.Errorf("GET %s: mounted before mount", path)
		}
		if view.State.Page != models.PageMenu {
			t.Errorf("GET %s: page = %q, want menu", path, view.State.Page)
		}
		if len(view.State.Interfaces) != 2 {
			t.Errorf("GET %s: %d interfaces, want 2", path, len(view.State.Interfaces))
		}
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestServer(t, "")
	resp := do(t, env.srv, "GET", "/api/info", "")
	requireStatus(t, resp, http.StatusOK)

	var info models.Info
	decodeJSON(t, resp, &info)
	if info.Version != "test" || !info.Mock {
		t.Errorf("info = %+v", info)
	}
}

func TestMount(t *testing.T) {
	env := newTestServer(t, "")

	resp := do(t, env.srv, "POST", "/api/mount", "")
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)

	if !view.State.Mount.Mounted || !view.State.Initialized {
		t.Errorf("mount = %+v initialized = %v", view.State.Mount, view.State.Initialized)
	}
	if view.State.ConfigText.Text != "dtparam=audio=on\n" {
		t.Errorf("config text = %q, want cascade to load it", view.State.ConfigText.Text)
	}

	resp = do(t, env.srv, "POST", "/api/mount", "")
	requireError(t, resp, http.StatusConflict, models.CodeAlreadyMounted)
}

func TestMount_PermissionDenied(t *testing.T) {
	env := newTestServer(t, "")
	env.gw.SetFailure(gateway.OpMount, &gateway.RemoteError{Op: gateway.OpMount, Code: models.CodePermissionDenied})

	resp := do(t, env.srv, "POST", "/api/mount", "")
	requireStatus(t, resp, http.StatusForbidden)
	var body models.AppError
	decodeJSON(t, resp, &body)
	if body.Message != models.PermissionDeniedMessage {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRefreshMount(t *testing.T) {
	env := newTestServer(t, "")
	env.gw.SetMounted(true)

	resp := do(t, env.srv, "POST", "/api/mount/refresh", "")
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)
	if !view.State.Mount.Mounted || !view.State.Initialized {
		t.Errorf("state = %+v", view.State)
	}
}

func TestInterfacesRequireMount(t *testing.T) {
	env := newTestServer(t, "")
	resp := do(t, env.srv, "PUT", "/api/interfaces/i2c", `{"configured": true}`)
	requireError(t, resp, http.StatusConflict, models.CodeNotMounted)
}

func TestSetInterface_Advisory(t *testing.T) {
	env := newMountedServer(t)

	resp := do(t, env.srv, "PUT", "/api/interfaces/spi", `{"configured": true}`)
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)

	if !view.State.Interface(models.SPI).Configured {
		t.Error("spi not configured")
	}
	if !view.Advisory.RebootRequired {
		t.Error("advisory does not require reboot after enabling spi")
	}
	if hint := view.Advisory.Items[advisory.ItemSPI]; hint.Kind != advisory.MismatchOnNotEnabled {
		t.Errorf("spi hint = %+v", hint)
	}
	if view.State.Notification == nil || view.State.Notification.Severity != models.SeveritySuccess {
		t.Errorf("notification = %+v", view.State.Notification)
	}
}

func TestSetInterface_BadRequests(t *testing.T) {
	env := newMountedServer(t)

	tests := []struct {
		name, path, body string
	}{
		{"unknown interface", "/api/interfaces/uart", `{"configured": true}`},
		{"invalid json", "/api/interfaces/i2c", `{not valid json`},
		{"missing field", "/api/interfaces/i2c", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, env.srv, "PUT", tt.path, tt.body)
			requireError(t, resp, http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

func TestRefreshInterface(t *testing.T) {
	env := newMountedServer(t)
	env.gw.SetInterface(models.I2C, gateway.InterfaceStatus{Enabled: true, Configured: false})

	resp := do(t, env.srv, "POST", "/api/interfaces/i2c/refresh", "")
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)

	is := view.State.Interface(models.I2C)
	if is.Enabled == nil || !*is.Enabled || is.Configured {
		t.Errorf("i2c = %+v", is)
	}
	if hint := view.Advisory.Items[advisory.ItemI2C]; hint.Kind != advisory.MismatchOffStillEnabled {
		t.Errorf("i2c hint = %+v", hint)
	}
}

func TestRemoteErrorIsBadGateway(t *testing.T) {
	env := newMountedServer(t)
	env.gw.SetFailure(gateway.OpGetInterfaceState, &gateway.RemoteError{Op: gateway.OpGetInterfaceState, Code: "READ_FAILED"})

	resp := do(t, env.srv, "POST", "/api/interfaces/spi/refresh", "")
	requireStatus(t, resp, http.StatusBadGateway)
	var body models.AppError
	decodeJSON(t, resp, &body)
	if body.Code != "READ_FAILED" || body.Message != "Error: READ_FAILED" {
		t.Errorf("body = %+v", body)
	}
}

func TestConfigTextEditSave(t *testing.T) {
	env := newMountedServer(t)

	resp := do(t, env.srv, "PUT", "/api/config-txt", `{"text": "dtparam=spi=on\n"}`)
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)
	if !view.State.ConfigText.Dirty || !view.Advisory.RebootRequired {
		t.Errorf("after edit: dirty=%v reboot=%v", view.State.ConfigText.Dirty, view.Advisory.RebootRequired)
	}

	resp = do(t, env.srv, "POST", "/api/config-txt/save", "")
	requireStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &view)
	if view.State.ConfigText.Dirty {
		t.Error("dirty after save")
	}
	if env.gw.StoredConfigText() != "dtparam=spi=on\n" {
		t.Errorf("backend text = %q", env.gw.StoredConfigText())
	}
}

func TestConfigTextDiscardAndLoad(t *testing.T) {
	env := newMountedServer(t)

	resp := do(t, env.srv, "PUT", "/api/config-txt", `{"text": "scratch"}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, env.srv, "POST", "/api/config-txt/discard", "")
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)
	if view.State.ConfigText.Text != "dtparam=audio=on\n" || view.State.ConfigText.Dirty {
		t.Errorf("after discard: %+v", view.State.ConfigText)
	}

	env.gw.SetStoredConfigText("changed\n")
	resp = do(t, env.srv, "POST", "/api/config-txt/load", "")
	requireStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &view)
	if view.State.ConfigText.Text != "changed\n" {
		t.Errorf("after load: %q", view.State.ConfigText.Text)
	}
}

func TestConfigText_MissingText(t *testing.T) {
	env := newMountedServer(t)
	resp := do(t, env.srv, "PUT", "/api/config-txt", `{}`)
	requireError(t, resp, http.StatusBadRequest, "BAD_REQUEST")
}

func TestNavigate(t *testing.T) {
	env := newMountedServer(t)

	resp := do(t, env.srv, "POST", "/api/page", `{"page": "editConfigTxt"}`)
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)
	if view.State.Page != models.PageEditConfigTxt {
		t.Errorf("page = %q", view.State.Page)
	}

	resp = do(t, env.srv, "POST", "/api/page", `{"page": "nowhere"}`)
	requireError(t, resp, http.StatusBadRequest, "BAD_REQUEST")
}

func TestReboot(t *testing.T) {
	env := newMountedServer(t)

	resp := do(t, env.srv, "POST", "/api/reboot", `{"confirm": false}`)
	requireError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = do(t, env.srv, "POST", "/api/reboot", `{"confirm": true}`)
	requireStatus(t, resp, http.StatusAccepted)
	var view advisory.View
	decodeJSON(t, resp, &view)
	if view.State.Notification == nil || view.State.Notification.Message != "Rebooting..." {
		t.Errorf("notification = %+v", view.State.Notification)
	}

	deadline := time.Now().Add(time.Second)
	for env.gw.Calls(gateway.OpReboot) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reboot call never reached the gateway")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDismissNotification(t *testing.T) {
	env := newMountedServer(t)
	n := env.ctrl.State().Notification
	if n == nil {
		t.Fatal("no notification after mount")
	}

	resp := do(t, env.srv, "DELETE", "/api/notification/abc", "")
	requireError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = do(t, env.srv, "DELETE", "/api/notification/"+strconv.FormatUint(n.Seq, 10), "")
	requireStatus(t, resp, http.StatusOK)
	var view advisory.View
	decodeJSON(t, resp, &view)
	if view.State.Notification != nil {
		t.Errorf("notification = %+v, want dismissed", view.State.Notification)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t, "")
	resp := do(t, env.srv, "OPTIONS", "/api/mount", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestAuth_SecuredMode(t *testing.T) {
	dir := t.TempDir()
	users := `{"operator": {"role": "admin", "access_key": "adm"}, "display": {"role": "viewer", "access_key": "view"}}`
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(users), 0644); err != nil {
		t.Fatal(err)
	}
	env := newTestServer(t, dir)

	resp := do(t, env.srv, "GET", "/api/state", "")
	requireError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")

	resp = doWithKey(t, env.srv, "GET", "/api/state", "", "view")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doWithKey(t, env.srv, "POST", "/api/mount", "", "view")
	requireError(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = doWithKey(t, env.srv, "POST", "/api/mount", "", "adm")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSSESubscribe(t *testing.T) {
	env := newTestServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{
		Transport: &http.Transport{
			DisableCompression: true,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	views := make(chan advisory.View, 16)
	go func() {
		defer close(views)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "event: ") && line != "event: view" {
				t.Errorf("unexpected SSE event line %q", line)
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var v advisory.View
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &v); err != nil {
				t.Errorf("SSE data is not valid View JSON: %v", err)
				return
			}
			views <- v
		}
	}()

	select {
	case v := <-views:
		if v.State.Mount.Mounted {
			t.Error("initial view already mounted")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial SSE event")
	}

	// A mutation must reach the subscriber.
	if _, appErr := env.ctrl.Mount(context.Background()); appErr != nil {
		t.Fatalf("Mount: %v", appErr)
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-views:
			if !ok {
				t.Fatal("SSE stream closed early")
			}
			if v.State.Initialized {
				return
			}
		case <-timeout:
			t.Fatal("mount never reached the SSE stream")
		}
	}
}
