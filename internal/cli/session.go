package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/micro-nova/piconfig-go/internal/config"
	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/gateway"
	"github.com/micro-nova/piconfig-go/internal/notify"
)

// settings resolves defaults, settings.yaml, environment and flags.
func (a *App) settings(cmd *cobra.Command) (config.Settings, error) {
	dir := a.flags.configDir
	if dir == "" {
		d, err := config.DefaultDir()
		if err != nil {
			return config.Settings{}, err
		}
		dir = d
	}
	s, err := config.Load(dir)
	if err != nil {
		return s, err
	}
	s.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("gateway") {
		s.GatewayURL = a.flags.gatewayURL
	}
	if flags.Changed("gateway-key") {
		s.APIKey = a.flags.apiKey
	}
	if flags.Changed("mock") {
		s.Mock = a.flags.mock
	}
	if flags.Changed("debug") {
		s.Debug = a.flags.debug
	}
	if flags.Changed("call-timeout") {
		s.CallTimeout = a.flags.callTimeout
	}
	a.flags.debug = s.Debug
	return s, s.Validate()
}

func (a *App) backend(s config.Settings) gateway.Gateway {
	if a.NewGateway != nil {
		return a.NewGateway(s)
	}
	if s.Mock {
		return gateway.NewMock()
	}
	return gateway.NewHTTPClient(s.GatewayURL).
		WithRateLimit(s.RateLimit).
		WithAPIKey(s.APIKey)
}

// session builds a controller and runs the initial mount check (and, when
// mounted, the cascade), as the panel does on start.
func (a *App) session(cmd *cobra.Command) (*controller.Controller, error) {
	ctrl, err := a.newController(cmd)
	if err != nil {
		return nil, err
	}
	if _, appErr := ctrl.RefreshMountState(contextOf(cmd)); appErr != nil {
		return nil, appErr
	}
	return ctrl, nil
}

// newController builds a controller without talking to the backend.
func (a *App) newController(cmd *cobra.Command) (*controller.Controller, error) {
	s, err := a.settings(cmd)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if s.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.Err, &slog.HandlerOptions{Level: level})))

	opts := []controller.Option{controller.WithCallTimeout(s.CallTimeout)}
	if s.Debug {
		opts = append(opts, controller.WithNotifier(notify.NewLog(nil)))
	}
	return controller.New(a.backend(s), nil, opts...), nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
