// Package snapshot collects file contents from a selection of paths into a
// single annotated text snapshot and hands it to a clipboard.
package snapshot

import "context"

// FileType classifies a file system location.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeFile
	FileTypeDirectory
	FileTypeSymlink
)

// DirectoryEntry is a single child returned by FileSystem.ListDirectory.
type DirectoryEntry struct {
	Name string
	Type FileType
}

// FileSystem provides the primitives the walker and reader depend on.
// Not-found failures must satisfy errors.Is(err, fs.ErrNotExist).
type FileSystem interface {
	Stat(ctx context.Context, location string) (FileType, error)
	ListDirectory(ctx context.Context, location string) ([]DirectoryEntry, error)
	ReadFile(ctx context.Context, location string) ([]byte, error)
}

// ProgressReporter receives incremental progress and exposes the cancellation
// request of the progress control.
type ProgressReporter interface {
	Report(increment float64, message string)
	Canceled() bool
}

// UserInteraction presents messages, confirmations and progress to the user.
type UserInteraction interface {
	ShowError(message string)
	ShowInfo(message string)
	Confirm(ctx context.Context, message string) (bool, error)
	WithProgress(ctx context.Context, title string, task func(ProgressReporter) error) error
}

// Clipboard accepts the finished snapshot.
type Clipboard interface {
	WriteText(text string) error
}

// TokenCounter estimates the token count of text.
type TokenCounter interface {
	Name() string
	CountString(input string) (int, error)
}
