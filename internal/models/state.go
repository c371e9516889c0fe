// Package models defines the data structures shared by the configurator core,
// the panel API and the CLI.
package models

import (
	"fmt"
	"time"
)

// InterfaceID names a hardware bus whose enablement the panel manages.
type InterfaceID string

const (
	I2C InterfaceID = "i2c"
	SPI InterfaceID = "spi"
)

// KnownInterfaces returns the managed interfaces in cascade order.
func KnownInterfaces() []InterfaceID {
	return []InterfaceID{I2C, SPI}
}

// ParseInterfaceID validates an interface name from a URL or CLI argument.
func ParseInterfaceID(s string) (InterfaceID, error) {
	for _, id := range KnownInterfaces() {
		if string(id) == s {
			return id, nil
		}
	}
	return "", ErrBadRequest(fmt.Sprintf("unknown interface %q", s))
}

// Label returns the display name, e.g. "I2C".
func (id InterfaceID) Label() string {
	switch id {
	case I2C:
		return "I2C"
	case SPI:
		return "SPI"
	}
	return string(id)
}

// InterfaceState tracks one bus. Configured is what was last requested (and
// persisted to config.txt); Enabled is what the running kernel has active and
// is nil until the first successful refresh.
type InterfaceState struct {
	Configured bool  `json:"configured"`
	Enabled    *bool `json:"enabled"`
	Loading    bool  `json:"loading"`
}

// MountState tracks the boot partition.
type MountState struct {
	Mounted bool `json:"mounted"`
	Loading bool `json:"loading"`
}

// ConfigText is the config.txt editor buffer. Original holds the last value
// loaded from or saved to the gateway.
type ConfigText struct {
	Text     string `json:"text"`
	Original string `json:"-"`
	Dirty    bool   `json:"dirty"`
	Loading  bool   `json:"loading"`
	Loaded   bool   `json:"loaded"`
}

// Page is the screen the presentation shell shows.
type Page string

const (
	PageMenu          Page = "menu"
	PageEditConfigTxt Page = "editConfigTxt"
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch Page(s) {
	case PageMenu, PageEditConfigTxt:
		return Page(s), nil
	}
	return "", ErrBadRequest(fmt.Sprintf("unknown page %q", s))
}

// Severity of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is the latest message for the operator (the snackbar).
type Notification struct {
	Seq      uint64    `json:"seq"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// State is the complete session state of the panel.
type State struct {
	Page         Page                           `json:"page"`
	Mount        MountState                     `json:"mount"`
	Interfaces   map[InterfaceID]InterfaceState `json:"interfaces"`
	ConfigText   ConfigText                     `json:"config_txt"`
	Notification *Notification                  `json:"notification,omitempty"`
	Initialized  bool                           `json:"initialized"`
}

// Interface returns the state for id, or the zero (unknown) state.
func (s State) Interface(id InterfaceID) InterfaceState {
	return s.Interfaces[id]
}

// DeepCopy returns a copy sharing no pointers or maps with s.
func (s State) DeepCopy() State {
	next := s

	next.Interfaces = make(map[InterfaceID]InterfaceState, len(s.Interfaces))
	for id, is := range s.Interfaces {
		if is.Enabled != nil {
			v := *is.Enabled
			is.Enabled = &v
		}
		next.Interfaces[id] = is
	}

	if s.Notification != nil {
		n := *s.Notification
		next.Notification = &n
	}
	return next
}
