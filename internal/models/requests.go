package models

// InterfaceUpdate is the PUT body for changing an interface's configured value.
type InterfaceUpdate struct {
	Configured *bool `json:"configured"`
}

// ConfigTextEdit is the PUT body replacing the editor buffer.
type ConfigTextEdit struct {
	Text *string `json:"text"`
}

// PageChange is the POST body for navigation.
type PageChange struct {
	Page string `json:"page"`
}

// RebootRequest is the POST body for the reboot action. Confirm must be true;
// the presentation shell asks the operator before sending it.
type RebootRequest struct {
	Confirm bool `json:"confirm"`
}

// Info is the system information response.
type Info struct {
	Version  string `json:"version"`
	Hostname string `json:"hostname"`
	Model    string `json:"model,omitempty"`
	Gateway  string `json:"gateway"`
	Mock     bool   `json:"mock,omitempty"`
	// Online is the watchdog's last verdict on the gateway. Nil when the
	// watchdog is disabled.
	Online *bool `json:"online,omitempty"`
}
