package snapshot

import (
	"errors"
	"fmt"
)

const (
	emptySelectionMessage      = "No files or folders selected. Select one or more files or folders before copying a snapshot."
	failureMessageFormat       = "Failed to copy snapshot: %v"
	canceledMessage            = "Snapshot canceled. Nothing was copied to the clipboard."
	declinedMessageFormat      = "Snapshot canceled. %d files were not copied to the clipboard."
	confirmationMessageFormat  = "About to copy %d files to the clipboard. Continue?"
	successMessageFormat       = "Snapshot copied to clipboard! (%d files, %s)"
	successTokensMessageFormat = "Snapshot copied to clipboard! (%d files, %s, %d tokens for %s)"
	progressTitle              = "Copying snapshot"
	fatalErrorFormat           = "%s %s: %v"
)

var (
	// ErrEmptySelection indicates the invocation named no files or folders.
	ErrEmptySelection = errors.New("no files or folders selected")
	// ErrCanceled is matched by every CancellationError.
	ErrCanceled = errors.New("snapshot canceled")
	// ErrInvocationInProgress rejects a run while another is in flight.
	ErrInvocationInProgress = errors.New("a snapshot copy is already in progress")
)

// CancelReason distinguishes the two user cancellation paths.
type CancelReason string

const (
	// CancelDeclined means the user declined the large selection confirmation.
	CancelDeclined CancelReason = "declined"
	// CancelInterrupted means the user canceled through the progress control.
	CancelInterrupted CancelReason = "interrupted"
)

// CancellationError is a non-error termination requested by the user.
type CancellationError struct {
	Reason    CancelReason
	Processed int
	Total     int
}

func (cancellation *CancellationError) Error() string {
	return fmt.Sprintf("%s (%s after %d of %d files)", ErrCanceled.Error(), cancellation.Reason, cancellation.Processed, cancellation.Total)
}

// Is reports ErrCanceled as a match.
func (cancellation *CancellationError) Is(target error) bool {
	return target == ErrCanceled
}

// FatalIOError is a file system failure that aborts the whole operation.
type FatalIOError struct {
	Op   string
	Path string
	Err  error
}

func (fatal *FatalIOError) Error() string {
	return fmt.Sprintf(fatalErrorFormat, fatal.Op, fatal.Path, fatal.Err)
}

func (fatal *FatalIOError) Unwrap() error {
	return fatal.Err
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (reported reportedError) Error() string {
	return reported.err.Error()
}

func (reported reportedError) Unwrap() error {
	return reported.err
}

// IsReported reports whether err was already presented to the user by the orchestrator.
func IsReported(err error) bool {
	var reported reportedError
	return errors.As(err, &reported)
}

// IsCanceled reports whether err is a user cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
