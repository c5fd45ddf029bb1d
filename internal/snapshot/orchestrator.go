package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/snapshot/internal/utils"
)

// DefaultConfirmThreshold is the file count above which the user must confirm.
const DefaultConfirmThreshold = 10

const (
	percentTotal       = 100.0
	invocationLogField = "invocation"
	pathLogField       = "path"
	filesLogField      = "files"
	reasonLogField     = "reason"
)

// Invocation describes one request to copy a snapshot: the item the command
// was triggered on and any co-selected items.
type Invocation struct {
	Target   string
	Selected []string
}

// Selection returns Selected when present, otherwise the single Target, otherwise nothing.
func (invocation Invocation) Selection() []string {
	if len(invocation.Selected) > 0 {
		return invocation.Selected
	}
	if invocation.Target != "" {
		return []string{invocation.Target}
	}
	return nil
}

// Options tunes a copy run.
type Options struct {
	Exclusions ExclusionSet
	Patterns   PatternSet
	// ConfirmThreshold of zero means DefaultConfirmThreshold; negative disables confirmation.
	ConfirmThreshold int
	SkipConfirmation bool
	Decode           DecodeOptions
	TokenCounter     TokenCounter
	TokenModel       string
}

func (options Options) confirmThreshold() int {
	if options.ConfirmThreshold == 0 {
		return DefaultConfirmThreshold
	}
	return options.ConfirmThreshold
}

// Dependencies are the host capabilities used by the Orchestrator.
type Dependencies struct {
	FileSystem  FileSystem
	Interaction UserInteraction
	Clipboard   Clipboard
	Roots       RootResolver
	Logger      *zap.Logger
}

// Report summarizes a successful run.
type Report struct {
	Files   int
	Skipped int
	Bytes   int64
	Tokens  int
	Model   string
	Text    string
}

// Orchestrator runs the validate, scan, confirm, read and finalize pipeline.
type Orchestrator struct {
	fileSystem  FileSystem
	interaction UserInteraction
	clipboard   Clipboard
	roots       RootResolver
	logger      *zap.Logger
	options     Options
	walker      *Walker
	running     sync.Mutex
}

// NewOrchestrator builds an Orchestrator. A nil logger is replaced with a no-op logger.
func NewOrchestrator(dependencies Dependencies, options Options) *Orchestrator {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fileSystem:  dependencies.FileSystem,
		interaction: dependencies.Interaction,
		clipboard:   dependencies.Clipboard,
		roots:       dependencies.Roots,
		logger:      logger,
		options:     options,
		walker:      NewWalker(dependencies.FileSystem),
	}
}

// Run copies a snapshot of the invocation's selection to the clipboard. Every
// returned error has already been shown to the user (see IsReported); user
// cancellations match ErrCanceled.
func (orchestrator *Orchestrator) Run(ctx context.Context, invocation Invocation) (Report, error) {
	if !orchestrator.running.TryLock() {
		return Report{}, orchestrator.fail(ErrInvocationInProgress)
	}
	defer orchestrator.running.Unlock()

	logger := orchestrator.logger.With(zap.String(invocationLogField, uuid.NewString()))

	selection := invocation.Selection()
	if len(selection) == 0 {
		orchestrator.interaction.ShowError(emptySelectionMessage)
		return Report{}, reportedError{err: ErrEmptySelection}
	}

	files, scanError := orchestrator.scan(ctx, selection)
	if scanError != nil {
		if isContextCancellation(scanError) {
			return Report{}, orchestrator.cancel(logger, &CancellationError{Reason: CancelInterrupted})
		}
		return Report{}, orchestrator.fail(scanError)
	}
	logger.Debug("scan complete", zap.Int(filesLogField, len(files)))

	threshold := orchestrator.options.confirmThreshold()
	if !orchestrator.options.SkipConfirmation && threshold >= 0 && len(files) > threshold {
		proceed, confirmError := orchestrator.interaction.Confirm(ctx, fmt.Sprintf(confirmationMessageFormat, len(files)))
		if confirmError != nil {
			if isContextCancellation(confirmError) {
				return Report{}, orchestrator.cancel(logger, &CancellationError{Reason: CancelInterrupted, Total: len(files)})
			}
			return Report{}, orchestrator.fail(confirmError)
		}
		if !proceed {
			return Report{}, orchestrator.cancel(logger, &CancellationError{Reason: CancelDeclined, Total: len(files)})
		}
	}

	report, readError := orchestrator.read(ctx, logger, files)
	if readError != nil {
		var cancellation *CancellationError
		if errors.As(readError, &cancellation) {
			return Report{}, orchestrator.cancel(logger, cancellation)
		}
		if isContextCancellation(readError) {
			return Report{}, orchestrator.cancel(logger, &CancellationError{Reason: CancelInterrupted, Total: len(files)})
		}
		return Report{}, orchestrator.fail(readError)
	}

	if orchestrator.options.TokenCounter != nil {
		tokens, countError := orchestrator.options.TokenCounter.CountString(report.Text)
		if countError != nil {
			logger.Warn("token count failed", zap.Error(countError))
		} else {
			report.Tokens = tokens
			report.Model = orchestrator.options.TokenModel
			if report.Model == "" {
				report.Model = orchestrator.options.TokenCounter.Name()
			}
		}
	}

	if clipboardError := orchestrator.clipboard.WriteText(report.Text); clipboardError != nil {
		return Report{}, orchestrator.fail(fmt.Errorf("write clipboard: %w", clipboardError))
	}
	logger.Debug("clipboard written", zap.Int(filesLogField, report.Files))
	orchestrator.interaction.ShowInfo(successMessage(report))
	return report, nil
}

// scan expands the selection in order and applies the configured filters.
func (orchestrator *Orchestrator) scan(ctx context.Context, selection []string) ([]string, error) {
	var collected []string
	for _, location := range selection {
		files, walkError := orchestrator.walker.ListFilesRecursively(ctx, location)
		if walkError != nil {
			return nil, walkError
		}
		collected = append(collected, files...)
	}
	filtered := FilterExcluded(collected, orchestrator.options.Exclusions)
	return FilterPatterns(filtered, orchestrator.options.Patterns, orchestrator.roots), nil
}

// read appends every file to the snapshot under a cancellable progress control.
func (orchestrator *Orchestrator) read(ctx context.Context, logger *zap.Logger, files []string) (Report, error) {
	var builder strings.Builder
	var report Report
	processed := 0
	increment := 0.0
	if len(files) > 0 {
		increment = percentTotal / float64(len(files))
	}

	progressError := orchestrator.interaction.WithProgress(ctx, progressTitle, func(progress ProgressReporter) error {
		for _, location := range files {
			if progress.Canceled() {
				return &CancellationError{Reason: CancelInterrupted, Processed: processed, Total: len(files)}
			}
			displayPath := displayPathFor(orchestrator.roots, location)
			appended, size, readError := orchestrator.appendFile(ctx, &builder, location, displayPath)
			if readError != nil {
				if isContextCancellation(readError) {
					return &CancellationError{Reason: CancelInterrupted, Processed: processed, Total: len(files)}
				}
				return readError
			}
			if appended {
				report.Files++
				report.Bytes += size
			} else {
				report.Skipped++
				logger.Debug("file skipped", zap.String(pathLogField, location))
			}
			processed++
			progress.Report(increment, displayPath)
		}
		if progress.Canceled() {
			return &CancellationError{Reason: CancelInterrupted, Processed: processed, Total: len(files)}
		}
		return nil
	})
	if progressError != nil {
		return Report{}, progressError
	}
	report.Text = builder.String()
	return report, nil
}

// appendFile reads one file into builder. A file that vanished or stopped
// being a regular file since the scan is skipped.
func (orchestrator *Orchestrator) appendFile(ctx context.Context, builder *strings.Builder, location string, displayPath string) (bool, int64, error) {
	fileType, statError := orchestrator.fileSystem.Stat(ctx, location)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, &FatalIOError{Op: operationStat, Path: location, Err: statError}
	}
	if fileType != FileTypeFile {
		return false, 0, nil
	}
	data, readError := orchestrator.fileSystem.ReadFile(ctx, location)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, &FatalIOError{Op: operationRead, Path: location, Err: readError}
	}
	content, decodeError := DecodeContent(data, orchestrator.options.Decode)
	if decodeError != nil {
		return false, 0, &FatalIOError{Op: operationRead, Path: location, Err: decodeError}
	}
	AppendEntry(builder, displayPath, content)
	return true, int64(len(data)), nil
}

func (orchestrator *Orchestrator) fail(err error) error {
	orchestrator.interaction.ShowError(fmt.Sprintf(failureMessageFormat, err))
	return reportedError{err: err}
}

func (orchestrator *Orchestrator) cancel(logger *zap.Logger, cancellation *CancellationError) error {
	logger.Debug("snapshot canceled", zap.String(reasonLogField, string(cancellation.Reason)))
	if cancellation.Reason == CancelDeclined {
		orchestrator.interaction.ShowInfo(fmt.Sprintf(declinedMessageFormat, cancellation.Total))
	} else {
		orchestrator.interaction.ShowInfo(canceledMessage)
	}
	return reportedError{err: cancellation}
}

func successMessage(report Report) string {
	size := utils.FormatFileSize(report.Bytes)
	if report.Model != "" {
		return fmt.Sprintf(successTokensMessageFormat, report.Files, size, report.Tokens, report.Model)
	}
	return fmt.Sprintf(successMessageFormat, report.Files, size)
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
