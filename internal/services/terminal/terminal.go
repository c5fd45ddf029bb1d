// Package terminal presents snapshot messages, confirmations and progress on a console.
package terminal

import (
	"context"
	"errors"
	"io"

	"github.com/pterm/pterm"

	"github.com/temirov/snapshot/internal/snapshot"
)

const progressScale = 1000

// ErrConfirmationUnavailable is returned when a confirmation is needed but the console cannot prompt.
var ErrConfirmationUnavailable = errors.New("confirmation required but the terminal is not interactive; rerun with --yes")

// Options configures a Console.
type Options struct {
	Output      io.Writer
	Interactive bool
	AssumeYes   bool
}

// Console implements snapshot.UserInteraction with pterm printers.
type Console struct {
	output      io.Writer
	interactive bool
	assumeYes   bool
}

// NewConsole builds a Console writing to options.Output.
func NewConsole(options Options) *Console {
	return &Console{
		output:      options.Output,
		interactive: options.Interactive,
		assumeYes:   options.AssumeYes,
	}
}

// ShowError prints message with the error prefix.
func (console *Console) ShowError(message string) {
	pterm.Error.WithWriter(console.output).Println(message)
}

// ShowInfo prints message with the info prefix.
func (console *Console) ShowInfo(message string) {
	pterm.Info.WithWriter(console.output).Println(message)
}

// Confirm asks a yes/no question, defaulting to no.
func (console *Console) Confirm(ctx context.Context, message string) (bool, error) {
	if contextError := ctx.Err(); contextError != nil {
		return false, contextError
	}
	if console.assumeYes {
		return true, nil
	}
	if !console.interactive {
		return false, ErrConfirmationUnavailable
	}
	return pterm.DefaultInteractiveConfirm.
		WithDefaultText(message).
		WithDefaultValue(false).
		Show()
}

// WithProgress runs task while rendering a progress bar. Cancellation of ctx
// is surfaced to the task through ProgressReporter.Canceled.
func (console *Console) WithProgress(ctx context.Context, title string, task func(snapshot.ProgressReporter) error) error {
	reporter := &progressReporter{ctx: ctx}
	if console.interactive {
		bar, startError := pterm.DefaultProgressbar.
			WithTotal(progressScale).
			WithTitle(title).
			WithWriter(console.output).
			WithRemoveWhenDone(true).
			Start()
		if startError == nil {
			reporter.bar = bar
			defer func() {
				_, _ = bar.Stop()
			}()
		}
	}
	return task(reporter)
}

type progressReporter struct {
	ctx     context.Context
	bar     *pterm.ProgressbarPrinter
	percent float64
	steps   int
}

func (reporter *progressReporter) Report(increment float64, message string) {
	reporter.percent += increment
	target := int(reporter.percent / 100 * progressScale)
	if target > progressScale {
		target = progressScale
	}
	delta := target - reporter.steps
	reporter.steps = target
	if reporter.bar == nil {
		return
	}
	reporter.bar.UpdateTitle(message)
	if delta > 0 {
		reporter.bar.Add(delta)
	}
}

func (reporter *progressReporter) Canceled() bool {
	return reporter.ctx.Err() != nil
}

var _ snapshot.UserInteraction = (*Console)(nil)
