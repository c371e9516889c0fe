// Package gateway defines the remote operations the configurator performs on
// the device backend, and provides an HTTP client and an in-memory fake.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// Op names a remote operation. Used in errors, logs and for fault injection.
type Op string

const (
	OpGetMountState     Op = "getMountState"
	OpMount             Op = "mount"
	OpGetInterfaceState Op = "getInterfaceState"
	OpSetInterfaceState Op = "setInterfaceState"
	OpGetConfigText     Op = "getConfigText"
	OpSetConfigText     Op = "setConfigText"
	OpReboot            Op = "reboot"
)

// InterfaceStatus is the getInterfaceState payload. Configured and Enabled
// are independent: a bus can be configured on but not yet active until reboot.
type InterfaceStatus struct {
	Enabled    bool `json:"enabled"`
	Configured bool `json:"configured"`
}

// Gateway is the device backend as seen by the configurator core.
// Every method either returns its payload or a *RemoteError / *TransportError.
type Gateway interface {
	GetMountState(ctx context.Context) (bool, error)
	Mount(ctx context.Context) error
	GetInterfaceState(ctx context.Context, id models.InterfaceID) (InterfaceStatus, error)
	SetInterfaceState(ctx context.Context, id models.InterfaceID, enable bool) error
	GetConfigText(ctx context.Context) (string, error)
	SetConfigText(ctx context.Context, text string) error
	Reboot(ctx context.Context) error
}

// RemoteError is a failure reported by the backend as {"error": code}.
type RemoteError struct {
	Op   Op
	Code string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gateway: %s: remote error %s", e.Op, e.Code)
}

// TransportError is a failure to reach the backend or to understand its reply.
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsPermissionDenied reports whether err is the backend refusing an operation
// because the host's protection mode is on.
func IsPermissionDenied(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == models.CodePermissionDenied
}

// ToAppError converts a gateway failure into the application error surfaced
// to the operator.
func ToAppError(err error) *models.AppError {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if IsPermissionDenied(err) {
		return models.ErrPermissionDenied
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return models.ErrRemote(re.Code)
	}
	var te *TransportError
	if errors.As(err, &te) {
		return models.ErrTransport(te.Err.Error())
	}
	return models.ErrTransport(err.Error())
}
