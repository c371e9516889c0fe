package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/micro-nova/piconfig-go/internal/models"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsCall  = "org.freedesktop.Notifications.Notify"
	desktopTimeoutMsec = 6000 // matches the web UI's snackbar auto-hide
)

// Desktop sends notifications to the session's freedesktop notification
// daemon over D-Bus. Each notification replaces the previous one, like a
// snackbar.
type Desktop struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	appName string
	lastID  uint32
}

// NewDesktop connects to the session bus.
func NewDesktop(appName string) (*Desktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("notify: connect session bus: %w", err)
	}
	return &Desktop{conn: conn, appName: appName}, nil
}

func (d *Desktop) Notify(n models.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(Urgency(n.Severity)),
	}
	obj := d.conn.Object(notificationsDest, notificationsPath)
	call := obj.Call(notificationsCall, 0,
		d.appName,
		d.lastID, // replaces_id
		"",       // app_icon
		Summary(n.Severity),
		n.Message,
		[]string{},
		hints,
		int32(desktopTimeoutMsec),
	)
	if call.Err != nil {
		slog.Debug("notify: desktop notification failed", "err", call.Err)
		return
	}
	if err := call.Store(&d.lastID); err != nil {
		slog.Debug("notify: unexpected Notify reply", "err", err)
	}
}

// Close releases the bus connection.
func (d *Desktop) Close() error {
	return d.conn.Close()
}

// Urgency maps a severity to the freedesktop urgency byte (1 normal, 2 critical).
func Urgency(s models.Severity) byte {
	if s == models.SeverityError {
		return 2
	}
	return 1
}

// Summary is the notification title for a severity.
func Summary(s models.Severity) string {
	if s == models.SeverityError {
		return "Pi configurator: error"
	}
	return "Pi configurator"
}
