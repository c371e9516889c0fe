// Command piconfig serves the Raspberry Pi configuration panel: it keeps the
// session state for the boot partition, the I2C/SPI interfaces and config.txt,
// and exposes it over HTTP/SSE. Run with --mock to use an in-memory backend.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/micro-nova/piconfig-go/internal/api"
	"github.com/micro-nova/piconfig-go/internal/auth"
	"github.com/micro-nova/piconfig-go/internal/config"
	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/events"
	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/identity"
	"github.com/micro-nova/piconfig-go/internal/models"
	"github.com/micro-nova/piconfig-go/internal/notify"
	"github.com/micro-nova/piconfig-go/internal/watchdog"
	"github.com/micro-nova/piconfig-go/internal/zeroconf"
)

func main() {
	var (
		cfgDir        = flag.String("config-dir", "", "config directory (default: ~/.config/piconfig)")
		mock          = flag.Bool("mock", false, "use an in-memory backend (no device required)")
		addr          = flag.String("addr", "", "HTTP listen address")
		gatewayURL    = flag.String("gateway", "", "device backend base URL")
		apiKey        = flag.String("gateway-key", "", "bearer token for the device backend")
		callTimeout   = flag.Duration("call-timeout", 0, "bound each backend call (0 = no timeout)")
		rateLimit     = flag.Float64("rate-limit", 0, "backend requests per second (0 = unlimited)")
		watchInterval = flag.Duration("watch-interval", 0, "backend reachability probe interval (0 = off)")
		desktopNotify = flag.Bool("desktop-notify", false, "mirror notifications to the desktop over D-Bus")
		noZeroconf    = flag.Bool("no-zeroconf", false, "do not advertise the panel over mDNS")
		debug         = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Resolve config directory
	if *cfgDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			slog.Error("cannot determine config directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = dir
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Settings: defaults, settings.yaml, PICONFIG_* env, then explicit flags
	settings, err := config.Load(*cfgDir)
	if err != nil {
		slog.Error("cannot load settings", "err", err)
		os.Exit(1)
	}
	settings.ApplyEnv()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mock":
			settings.Mock = *mock
		case "addr":
			settings.Addr = *addr
		case "gateway":
			settings.GatewayURL = *gatewayURL
		case "gateway-key":
			settings.APIKey = *apiKey
		case "call-timeout":
			settings.CallTimeout = *callTimeout
		case "rate-limit":
			settings.RateLimit = *rateLimit
		case "watch-interval":
			settings.WatchInterval = *watchInterval
		case "desktop-notify":
			settings.DesktopNotify = *desktopNotify
		case "no-zeroconf":
			settings.Zeroconf = !*noZeroconf
		case "debug":
			settings.Debug = *debug
		}
	})

	// Configure logging
	logLevel := slog.LevelInfo
	if settings.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if err := settings.Validate(); err != nil {
		slog.Error("invalid settings", "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Device backend
	var (
		gw          gateway.Gateway
		gatewayName string
	)
	if settings.Mock {
		slog.Info("using in-memory backend")
		gw = gateway.NewMock()
		gatewayName = "mock"
	} else {
		slog.Info("using device backend", "url", settings.GatewayURL)
		gw = gateway.NewHTTPClient(settings.GatewayURL).
			WithRateLimit(settings.RateLimit).
			WithAPIKey(settings.APIKey)
		gatewayName = settings.GatewayURL
	}

	// Notification sinks
	sinks := notify.Multi{notify.NewLog(nil)}
	if settings.DesktopNotify {
		desktop, err := notify.NewDesktop("piconfig")
		if err != nil {
			slog.Warn("desktop notifications unavailable", "err", err)
		} else {
			defer desktop.Close()
			sinks = append(sinks, desktop)
		}
	}

	// Event bus and controller
	bus := events.NewBus()
	ctrl := controller.New(gw, bus,
		controller.WithNotifier(sinks),
		controller.WithCallTimeout(settings.CallTimeout),
	)

	// Auth service
	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	// Initial mount check, then keep watching the backend if asked to.
	// The first successful probe performs the initial check instead.
	var wd *watchdog.Watchdog
	if settings.WatchInterval > 0 {
		wd = watchdog.New(
			func(ctx context.Context) error {
				_, err := gw.GetMountState(ctx)
				return err
			},
			settings.WatchInterval,
			func(ctx context.Context, reconnect bool) {
				var appErr *models.AppError
				if reconnect {
					_, appErr = ctrl.Resync(ctx)
				} else {
					_, appErr = ctrl.RefreshMountState(ctx)
				}
				if appErr != nil {
					slog.Warn("session sync failed", "reconnect", reconnect, "err", appErr)
				}
			},
			nil,
		)
		go wd.Run(ctx)
	} else {
		go func() {
			if _, appErr := ctrl.RefreshMountState(ctx); appErr != nil {
				slog.Warn("initial mount check failed", "err", appErr)
			}
		}()
	}

	// Identity
	ident := identity.Get(*cfgDir)
	info := func() models.Info {
		i := models.Info{
			Version:  ident.Version,
			Hostname: ident.Hostname,
			Model:    ident.Model,
			Gateway:  gatewayName,
			Mock:     settings.Mock,
		}
		if wd != nil {
			if online, known := wd.Online(); known {
				i.Online = &online
			}
		}
		return i
	}

	// Zeroconf mDNS registration
	if settings.Zeroconf {
		zc := zeroconf.New(ident, listenPort(settings.Addr))
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	router := api.NewRouter(ctrl, authSvc, bus, info)

	srv := &http.Server{
		Addr:         settings.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("piconfig listening", "addr", settings.Addr, "mock", settings.Mock, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Graceful HTTP shutdown
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// listenPort extracts the port from a listen address such as ":8080",
// defaulting to 80.
func listenPort(addr string) int {
	port := 80
	if i := strings.LastIndex(addr, ":"); i >= 0 && i < len(addr)-1 {
		if p, err := strconv.Atoi(addr[i+1:]); err == nil {
			port = p
		}
	}
	return port
}
