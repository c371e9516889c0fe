package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/models"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"config-txt"},
		Short:   "Show or change config.txt on the boot partition",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print config.txt",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctrl, err := app.loadedSession(cmd)
				if err != nil {
					return err
				}
				_, err = io.WriteString(app.Out, ctrl.State().ConfigText.Text)
				return err
			},
		},
		&cobra.Command{
			Use:   "set <file|->",
			Short: "Replace config.txt with the contents of a file (- for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var (
					data []byte
					err  error
				)
				if args[0] == "-" {
					data, err = io.ReadAll(app.In)
				} else {
					data, err = os.ReadFile(args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", args[0], err)
				}
				ctrl, err := app.loadedSession(cmd)
				if err != nil {
					return err
				}
				return app.save(cmd, ctrl, string(data))
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit config.txt in $EDITOR and save it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctrl, err := app.loadedSession(cmd)
				if err != nil {
					return err
				}
				original := ctrl.State().ConfigText.Text
				edited, err := editText(cmd, original)
				if err != nil {
					return err
				}
				if edited == original {
					fmt.Fprintln(app.Out, dim("No changes."))
					return nil
				}
				return app.save(cmd, ctrl, edited)
			},
		},
	)
	return cmd
}

// loadedSession opens a session and requires config.txt to have loaded.
func (a *App) loadedSession(cmd *cobra.Command) (*controller.Controller, error) {
	ctrl, err := a.session(cmd)
	if err != nil {
		return nil, err
	}
	state := ctrl.State()
	if !state.Mount.Mounted {
		return nil, models.ErrNotMounted
	}
	if !state.ConfigText.Loaded {
		if _, appErr := ctrl.LoadConfigText(contextOf(cmd)); appErr != nil {
			return nil, appErr
		}
	}
	return ctrl, nil
}

func (a *App) save(cmd *cobra.Command, ctrl *controller.Controller, text string) error {
	if _, appErr := ctrl.EditConfigText(text); appErr != nil {
		return appErr
	}
	state, appErr := ctrl.SaveConfigText(contextOf(cmd))
	if appErr != nil {
		return appErr
	}
	printNotification(a.Out, state)
	fmt.Fprintln(a.Out, yellow("Reboot for the changes to take effect."))
	return nil
}

// editText runs $VISUAL or $EDITOR (default vi) on a temporary copy of text.
func editText(cmd *cobra.Command, text string) (string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	dir, err := os.MkdirTemp("", "piconfig-edit-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "config.txt")
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return "", err
	}

	c := exec.CommandContext(contextOf(cmd), editor, path)
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor %s failed: %w", editor, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
