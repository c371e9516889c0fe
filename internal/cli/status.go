package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mount state, interfaces and whether a reboot is required",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(ctrl.View())
			}
			printView(app.Out, ctrl.View())
			printNotification(app.Out, ctrl.State())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session state and advisory as JSON")
	return cmd
}

func newMountCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mount",
		Short: "Mount the boot partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := app.session(cmd)
			if err != nil {
				return err
			}
			state, appErr := ctrl.Mount(contextOf(cmd))
			if appErr != nil {
				return appErr
			}
			printNotification(app.Out, state)
			printView(app.Out, ctrl.View())
			return nil
		},
	}
}
