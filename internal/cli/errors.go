package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// PrintError prints the error in a user-friendly format.
func (a *App) PrintError(err error) {
	if err == nil {
		return
	}

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(a.Err, "%s %s\n", red("Error:"), appErr.Message)
		if s := suggestion(appErr.Code); s != "" {
			fmt.Fprintf(a.Err, "\n%s %s\n", yellow("Suggestion:"), s)
		}
		if a.flags.debug {
			fmt.Fprintf(a.Err, "\n%s\n", dim("--- Debug Info ---"))
			fmt.Fprintf(a.Err, "%s Code:   %s\n", dim("•"), appErr.Code)
			fmt.Fprintf(a.Err, "%s Status: %d\n", dim("•"), appErr.Status)
		}
		return
	}

	fmt.Fprintf(a.Err, "%s %s\n", red("Error:"), err.Error())
	if a.flags.debug {
		fmt.Fprintf(a.Err, "\n%s %+v\n", dim("Debug:"), err)
	}
}

func suggestion(code string) string {
	switch code {
	case models.CodeNotMounted:
		return "run 'piconfigctl mount' first"
	case models.CodeTransport:
		return "check that the device backend is running and --gateway points at it"
	case models.CodeBusy:
		return "wait for the running operation to finish and try again"
	}
	return ""
}
