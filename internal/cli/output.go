package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/micro-nova/piconfig-go/internal/advisory"
	"github.com/micro-nova/piconfig-go/internal/models"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.FgHiBlack).SprintFunc()
)

func onOff(v bool) string {
	if v {
		return green("on")
	}
	return red("off")
}

func enabledString(v *bool) string {
	if v == nil {
		return dim("unknown")
	}
	return onOff(*v)
}

// printView renders the session like the panel's menu.
func printView(w io.Writer, v advisory.View) {
	s := v.State
	mount := red("not mounted")
	if s.Mount.Mounted {
		mount = green("mounted")
	}
	fmt.Fprintf(w, "%s %s\n", bold("Boot partition:"), mount)
	if !s.Mount.Mounted {
		return
	}

	for _, id := range models.KnownInterfaces() {
		printInterface(w, v, id)
	}

	ct := s.ConfigText
	status := "saved"
	if !ct.Loaded {
		status = dim("not loaded")
	} else if ct.Dirty {
		status = yellow("unsaved changes")
	}
	fmt.Fprintf(w, "%-5s %s\n", bold("config.txt"), status)

	if v.Advisory.RebootRequired {
		fmt.Fprintf(w, "\n%s\n", yellow("Reboot required for changes to take effect."))
	}
}

func printInterface(w io.Writer, v advisory.View, id models.InterfaceID) {
	is := v.State.Interface(id)
	fmt.Fprintf(w, "%-10s configured: %s  enabled: %s\n",
		bold(id.Label()), onOff(is.Configured), enabledString(is.Enabled))
	if hint := v.Advisory.Items[advisory.Item(id)]; hint.Message != "" {
		fmt.Fprintf(w, "           %s\n", yellow(hint.Message))
	}
}

// printNotification prints the latest notification, if any.
func printNotification(w io.Writer, s models.State) {
	n := s.Notification
	if n == nil {
		return
	}
	if n.Severity == models.SeverityError {
		fmt.Fprintln(w, red(n.Message))
		return
	}
	fmt.Fprintln(w, green(n.Message))
}
