package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/piconfig-go/internal/zeroconf"
)

func newDiscoverCmd(app *App) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find configuration panels on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(contextOf(cmd), timeout)
			defer cancel()

			panels, err := zeroconf.Browse(ctx)
			if err != nil {
				return err
			}
			if len(panels) == 0 {
				fmt.Fprintln(app.Out, dim("No panels found."))
				return nil
			}
			for _, p := range panels {
				fmt.Fprintf(app.Out, "%s  %s  %s %s\n", bold(p.Instance), p.URL(), p.Version, dim(p.Model))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to listen for answers")
	return cmd
}
