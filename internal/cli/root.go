// Package cli implements piconfigctl, the operator's command-line panel. Each
// invocation runs its own session against the device backend.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/piconfig-go/internal/config"
	"github.com/micro-nova/piconfig-go/internal/gateway"
)

// App carries the command's I/O and the backend factory, so tests can run
// commands against an in-memory gateway.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// NewGateway builds the backend for the resolved settings. Nil means
	// the HTTP client, or the in-memory backend with --mock.
	NewGateway func(config.Settings) gateway.Gateway

	// RebootGrace is how long reboot waits for the detached call to reach
	// the backend before the process exits.
	RebootGrace time.Duration

	flags globalFlags
}

type globalFlags struct {
	configDir   string
	gatewayURL  string
	apiKey      string
	mock        bool
	debug       bool
	callTimeout time.Duration
}

// NewApp returns an App wired to the process's standard streams.
func NewApp() *App {
	return &App{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		RebootGrace: 2 * time.Second,
	}
}

// NewRootCmd builds the command tree for app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "piconfigctl",
		Short: "Raspberry Pi configuration panel",
		Long: `piconfigctl inspects and changes the Raspberry Pi's boot configuration
through the device backend: mount the boot partition, turn the I2C and SPI
interfaces on or off, edit config.txt and reboot.

Settings come from ~/.config/piconfig/settings.yaml, PICONFIG_* environment
variables and the flags below, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.SuggestionsMinimumDistance = 2

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configDir, "config-dir", "", "config directory (default is $HOME/.config/piconfig)")
	pf.StringVar(&app.flags.gatewayURL, "gateway", "", "device backend base URL")
	pf.StringVar(&app.flags.apiKey, "gateway-key", "", "bearer token for the device backend")
	pf.BoolVar(&app.flags.mock, "mock", false, "use an in-memory backend")
	pf.BoolVar(&app.flags.debug, "debug", false, "enable debug logging and detailed errors")
	pf.DurationVar(&app.flags.callTimeout, "call-timeout", 0, "bound each backend call (0 = no timeout)")

	root.AddCommand(
		newStatusCmd(app),
		newMountCmd(app),
		newInterfaceCmd(app, "i2c"),
		newInterfaceCmd(app, "spi"),
		newConfigCmd(app),
		newRebootCmd(app),
		newDiscoverCmd(app),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	app := NewApp()
	root := NewRootCmd(app)
	if err := root.Execute(); err != nil {
		if len(os.Args) > 1 {
			if suggestions := root.SuggestionsFor(os.Args[1]); len(suggestions) > 0 {
				fmt.Fprintf(app.Err, "Did you mean:\n")
				for _, s := range suggestions {
					fmt.Fprintf(app.Err, "  %s\n", s)
				}
				fmt.Fprintln(app.Err)
			}
		}
		app.PrintError(err)
		os.Exit(1)
	}
}
