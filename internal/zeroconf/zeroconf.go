// Package zeroconf advertises the panel as an mDNS/DNS-SD service and lets
// the CLI find panels on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/micro-nova/piconfig-go/internal/identity"
)

const (
	// ServiceType is the DNS-SD type the panel registers under.
	ServiceType = "_piconfig._tcp"
	domain      = "local."
)

// Service manages mDNS service registration.
type Service struct {
	info   identity.Info
	port   int
	server *zeroconf.Server
}

// New creates a zeroconf Service that will advertise info on the given port.
func New(info identity.Info, port int) *Service {
	return &Service{
		info: info,
		port: port,
	}
}

// InstanceName is the advertised instance, e.g. "piconfig-raspberrypi".
func (s *Service) InstanceName() string {
	return "piconfig-" + s.info.Hostname
}

// Records returns the TXT records advertised for the panel.
func (s *Service) Records() []string {
	txt := []string{"version=" + s.info.Version, "path=/api"}
	if s.info.Model != "" {
		txt = append(txt, "model="+s.info.Model)
	}
	return txt
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	txt := s.Records()

	server, err := zeroconf.Register(
		s.InstanceName(), // instance name
		ServiceType,      // service type
		domain,           // domain
		s.port,           // port
		txt,              // TXT records
		nil,              // ifaces: nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.InstanceName(),
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}

// Panel is a panel found on the network.
type Panel struct {
	Instance string
	Host     string
	Port     int
	Addrs    []string
	Version  string
	Model    string
}

// URL returns the panel's base URL, preferring the first IPv4 address.
func (p Panel) URL() string {
	host := strings.TrimSuffix(p.Host, ".")
	if len(p.Addrs) > 0 {
		host = p.Addrs[0]
	}
	return fmt.Sprintf("http://%s:%d", host, p.Port)
}

// Browse collects panels until ctx is done.
func Browse(ctx context.Context) ([]Panel, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("zeroconf resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu     sync.Mutex
		panels []Panel
	)
	go func() {
		for e := range entries {
			mu.Lock()
			panels = append(panels, panelFromEntry(e))
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, domain, entries); err != nil {
		return nil, fmt.Errorf("zeroconf browse: %w", err)
	}
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]Panel(nil), panels...), nil
}

func panelFromEntry(e *zeroconf.ServiceEntry) Panel {
	p := Panel{
		Instance: e.Instance,
		Host:     e.HostName,
		Port:     e.Port,
	}
	for _, ip := range e.AddrIPv4 {
		p.Addrs = append(p.Addrs, ip.String())
	}
	for _, rec := range e.Text {
		k, v, ok := strings.Cut(rec, "=")
		if !ok {
			continue
		}
		switch k {
		case "version":
			p.Version = v
		case "model":
			p.Model = v
		}
	}
	return p
}
