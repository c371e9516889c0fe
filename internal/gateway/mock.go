package gateway

import (
	"context"
	"sync"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// DefaultMockConfigText is the config.txt a fresh Mock serves.
const DefaultMockConfigText = "# For more options and information see\n# http://rpf.io/configtxt\n\ndtparam=audio=on\n"

// Mock is a thread-safe in-memory backend for development (--mock) and tests.
// SetInterfaceState only changes the configured value; Reboot makes every
// interface's enabled value catch up, like the real device.
type Mock struct {
	mu        sync.Mutex
	mounted   bool
	ifaces    map[models.InterfaceID]InterfaceStatus
	configTxt string
	failures  map[Op]error
	blocks    map[Op]chan struct{}
	calls     map[Op]int
}

// NewMock creates an unmounted backend with every interface off.
func NewMock() *Mock {
	m := &Mock{
		ifaces:    make(map[models.InterfaceID]InterfaceStatus),
		configTxt: DefaultMockConfigText,
		failures:  make(map[Op]error),
		blocks:    make(map[Op]chan struct{}),
		calls:     make(map[Op]int),
	}
	for _, id := range models.KnownInterfaces() {
		m.ifaces[id] = InterfaceStatus{}
	}
	return m
}

// SetMounted sets the backend's boot partition mount state.
func (m *Mock) SetMounted(mounted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounted = mounted
}

// Mounted returns the backend's mount state.
func (m *Mock) Mounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

// SetInterface sets both values of an interface.
func (m *Mock) SetInterface(id models.InterfaceID, st InterfaceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ifaces[id] = st
}

// Interface returns the backend's view of an interface.
func (m *Mock) Interface(id models.InterfaceID) InterfaceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ifaces[id]
}

// SetStoredConfigText replaces the stored config.txt without counting as a call.
func (m *Mock) SetStoredConfigText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configTxt = text
}

// StoredConfigText returns the stored config.txt.
func (m *Mock) StoredConfigText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configTxt
}

// SetFailure makes every call to op fail with err until cleared with a nil err.
func (m *Mock) SetFailure(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Block makes calls to op hang until the returned release func is called or
// the call's context is cancelled.
func (m *Mock) Block(op Op) (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.blocks[op] = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.blocks[op] == gate {
				delete(m.blocks, op)
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times op has been invoked.
func (m *Mock) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter records the call, waits on any block, and returns the injected failure.
func (m *Mock) enter(ctx context.Context, op Op) error {
	m.mu.Lock()
	m.calls[op]++
	gate := m.blocks[op]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &TransportError{Op: op, Err: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[op]
}

func (m *Mock) GetMountState(ctx context.Context) (bool, error) {
	if err := m.enter(ctx, OpGetMountState); err != nil {
		return false, err
	}
	return m.Mounted(), nil
}

func (m *Mock) Mount(ctx context.Context) error {
	if err := m.enter(ctx, OpMount); err != nil {
		return err
	}
	m.SetMounted(true)
	return nil
}

func (m *Mock) GetInterfaceState(ctx context.Context, id models.InterfaceID) (InterfaceStatus, error) {
	if err := m.enter(ctx, OpGetInterfaceState); err != nil {
		return InterfaceStatus{}, err
	}
	return m.Interface(id), nil
}

func (m *Mock) SetInterfaceState(ctx context.Context, id models.InterfaceID, enable bool) error {
	if err := m.enter(ctx, OpSetInterfaceState); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.ifaces[id]
	st.Configured = enable
	m.ifaces[id] = st
	return nil
}

func (m *Mock) GetConfigText(ctx context.Context) (string, error) {
	if err := m.enter(ctx, OpGetConfigText); err != nil {
		return "", err
	}
	return m.StoredConfigText(), nil
}

func (m *Mock) SetConfigText(ctx context.Context, text string) error {
	if err := m.enter(ctx, OpSetConfigText); err != nil {
		return err
	}
	m.SetStoredConfigText(text)
	return nil
}

func (m *Mock) Reboot(ctx context.Context) error {
	if err := m.enter(ctx, OpReboot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, st := range m.ifaces {
		st.Enabled = st.Configured
		m.ifaces[id] = st
	}
	return nil
}

var _ Gateway = (*Mock)(nil)
