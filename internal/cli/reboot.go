package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/piconfig-go/internal/controller"
)

// promptConfirmer asks on the command's streams and accepts y or yes.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(p.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newRebootCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the Raspberry Pi",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Rebooting does not depend on the boot partition, so the
			// mount check is skipped.
			ctrl, err := app.newController(cmd)
			if err != nil {
				return err
			}
			var confirm controller.Confirmer = promptConfirmer{in: app.In, out: app.Out}
			if yes {
				confirm = controller.Confirmed
			}
			if !ctrl.RequestReboot(contextOf(cmd), confirm) {
				fmt.Fprintln(app.Out, "Cancelled.")
				return nil
			}
			printNotification(app.Out, ctrl.State())

			// The reboot call is detached; give it time to leave the process.
			time.Sleep(app.RebootGrace)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
