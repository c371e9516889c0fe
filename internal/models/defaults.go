package models

// DefaultState returns the session state at process start: on the menu,
// unmounted, every known interface present but unknown, empty editor.
func DefaultState() State {
	ifaces := make(map[InterfaceID]InterfaceState, len(KnownInterfaces()))
	for _, id := range KnownInterfaces() {
		ifaces[id] = InterfaceState{}
	}
	return State{
		Page:       PageMenu,
		Interfaces: ifaces,
	}
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
