package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/micro-nova/piconfig-go/internal/advisory"
	"github.com/micro-nova/piconfig-go/internal/models"
)

func newInterfaceCmd(app *App, name string) *cobra.Command {
	id := models.InterfaceID(name)
	return &cobra.Command{
		Use:       name + " [on|off]",
		Short:     fmt.Sprintf("Show or change the %s interface", id.Label()),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var desired *bool
			if len(args) == 1 {
				v, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				desired = &v
			}

			ctrl, err := app.session(cmd)
			if err != nil {
				return err
			}
			if desired != nil {
				state, appErr := ctrl.SetConfigured(contextOf(cmd), id, *desired)
				if appErr != nil {
					return appErr
				}
				printNotification(app.Out, state)
			} else if !ctrl.State().Mount.Mounted {
				return models.ErrNotMounted
			}
			printInterface(app.Out, advisory.NewView(ctrl.State()), id)
			return nil
		},
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "enable", "true", "1":
		return true, nil
	case "off", "disable", "false", "0":
		return false, nil
	}
	return false, models.ErrBadRequest(fmt.Sprintf("expected on or off, got %q", s))
}
