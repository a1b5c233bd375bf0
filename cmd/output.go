package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gurubase/gurubase-cli/internal"
	"github.com/gurubase/gurubase-cli/internal/export"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	slugStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// LoginRequiredError is returned when an action answered with a login redirect.
type LoginRequiredError struct {
	Location string
}

func (e *LoginRequiredError) Error() string {
	return "login required: run `gurubase login`"
}

// ActionFailedError carries the uniform failure shape out of a command.
type ActionFailedError struct {
	Err *internal.ActionError
}

func (e *ActionFailedError) Error() string {
	if e.Err == nil {
		return "request failed"
	}
	msg := e.Err.Message
	if e.Err.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Err.Status)
	}
	if e.Err.Type != "" && e.Err.Reason != "" {
		msg = fmt.Sprintf("%s [%s: %s]", msg, e.Err.Type, e.Err.Reason)
	}
	return msg
}

// render prints an action result. With --format the value goes through the
// matching exporter; otherwise plain renders it, or JSON when plain is nil.
// Failures and redirects become command errors.
func render[T any](cmd *cobra.Command, r internal.Result[T], plain func(w io.Writer, v T) error) error {
	w := cmd.OutOrStdout()
	switch r.Outcome() {
	case internal.OutcomeRedirect:
		return &LoginRequiredError{Location: r.RedirectTo}
	case internal.OutcomeFailed:
		return &ActionFailedError{Err: r.Err}
	case internal.OutcomeEmpty:
		if outputFormat != "" {
			return exportValue(w, nil)
		}
		_, err := fmt.Fprintln(w, "No data.")
		return err
	}

	if outputFormat != "" || plain == nil {
		return exportValue(w, r.Value)
	}
	return plain(w, r.Value)
}

// resultValue turns a result into a value or the error render would return.
func resultValue[T any](r internal.Result[T]) (T, error) {
	var zero T
	switch r.Outcome() {
	case internal.OutcomeRedirect:
		return zero, &LoginRequiredError{Location: r.RedirectTo}
	case internal.OutcomeFailed:
		return zero, &ActionFailedError{Err: r.Err}
	case internal.OutcomeEmpty:
		return zero, nil
	}
	return r.Value, nil
}

func exportValue(w io.Writer, v interface{}) error {
	format := outputFormat
	if format == "" {
		format = "json"
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	return exporter.Export(v, w)
}

// printAck renders the result of a call that only reports success.
func printAck(w io.Writer, ack internal.Ack) error {
	if !ack.Success {
		return fmt.Errorf("%s", ack.Message)
	}
	msg := ack.Message
	if msg == "" {
		msg = "Done"
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

// done prints a confirmation for calls whose body is not interesting.
func done(message string) func(w io.Writer, v internal.Object) error {
	return func(w io.Writer, _ internal.Object) error {
		_, err := fmt.Fprintln(w, message)
		return err
	}
}
