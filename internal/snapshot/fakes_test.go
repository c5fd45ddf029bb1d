package snapshot_test

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/temirov/snapshot/internal/snapshot"
)

type fakeFileSystem struct {
	files      map[string][]byte
	children   map[string][]snapshot.DirectoryEntry
	failures   map[string]error
	calls      int
	beforeRead func(location string)
}

func newFakeFileSystem() *fakeFileSystem {
	return &fakeFileSystem{
		files:    map[string][]byte{},
		children: map[string][]snapshot.DirectoryEntry{"/": nil},
		failures: map[string]error{},
	}
}

// addFile registers location and any missing parent directories in insertion order.
func (fileSystem *fakeFileSystem) addFile(location string, content string) *fakeFileSystem {
	fileSystem.ensureDirectory(filepath.Dir(location))
	fileSystem.files[location] = []byte(content)
	fileSystem.appendChild(location, snapshot.FileTypeFile)
	return fileSystem
}

func (fileSystem *fakeFileSystem) addDirectory(location string) *fakeFileSystem {
	fileSystem.ensureDirectory(location)
	return fileSystem
}

func (fileSystem *fakeFileSystem) addSymlink(location string) *fakeFileSystem {
	fileSystem.ensureDirectory(filepath.Dir(location))
	fileSystem.appendChild(location, snapshot.FileTypeSymlink)
	return fileSystem
}

func (fileSystem *fakeFileSystem) ensureDirectory(location string) {
	if _, exists := fileSystem.children[location]; exists {
		return
	}
	fileSystem.ensureDirectory(filepath.Dir(location))
	fileSystem.children[location] = nil
	fileSystem.appendChild(location, snapshot.FileTypeDirectory)
}

func (fileSystem *fakeFileSystem) appendChild(location string, fileType snapshot.FileType) {
	parent := filepath.Dir(location)
	fileSystem.children[parent] = append(fileSystem.children[parent], snapshot.DirectoryEntry{Name: filepath.Base(location), Type: fileType})
}

func (fileSystem *fakeFileSystem) remove(location string) {
	delete(fileSystem.files, location)
}

func (fileSystem *fakeFileSystem) Stat(ctx context.Context, location string) (snapshot.FileType, error) {
	fileSystem.calls++
	if failure, failing := fileSystem.failures[location]; failing {
		return snapshot.FileTypeUnknown, failure
	}
	if _, isFile := fileSystem.files[location]; isFile {
		return snapshot.FileTypeFile, nil
	}
	if _, isDirectory := fileSystem.children[location]; isDirectory {
		return snapshot.FileTypeDirectory, nil
	}
	return snapshot.FileTypeUnknown, &fs.PathError{Op: "stat", Path: location, Err: fs.ErrNotExist}
}

func (fileSystem *fakeFileSystem) ListDirectory(ctx context.Context, location string) ([]snapshot.DirectoryEntry, error) {
	fileSystem.calls++
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	if failure, failing := fileSystem.failures[location]; failing {
		return nil, failure
	}
	entries, exists := fileSystem.children[location]
	if !exists {
		return nil, &fs.PathError{Op: "readdir", Path: location, Err: fs.ErrNotExist}
	}
	return append([]snapshot.DirectoryEntry(nil), entries...), nil
}

func (fileSystem *fakeFileSystem) ReadFile(ctx context.Context, location string) ([]byte, error) {
	fileSystem.calls++
	if fileSystem.beforeRead != nil {
		fileSystem.beforeRead(location)
	}
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	if failure, failing := fileSystem.failures["read:"+location]; failing {
		return nil, failure
	}
	data, exists := fileSystem.files[location]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: location, Err: fs.ErrNotExist}
	}
	return data, nil
}

type fakeInteraction struct {
	errors        []string
	infos         []string
	confirmations []string
	confirmAnswer bool
	confirmError  error
	cancelAfter   int
	reports       []string
	percent       float64
	progressRuns  int
}

func newFakeInteraction() *fakeInteraction {
	return &fakeInteraction{confirmAnswer: true, cancelAfter: -1}
}

func (interaction *fakeInteraction) ShowError(message string) {
	interaction.errors = append(interaction.errors, message)
}

func (interaction *fakeInteraction) ShowInfo(message string) {
	interaction.infos = append(interaction.infos, message)
}

func (interaction *fakeInteraction) Confirm(ctx context.Context, message string) (bool, error) {
	interaction.confirmations = append(interaction.confirmations, message)
	return interaction.confirmAnswer, interaction.confirmError
}

func (interaction *fakeInteraction) WithProgress(ctx context.Context, title string, task func(snapshot.ProgressReporter) error) error {
	interaction.progressRuns++
	return task(interaction)
}

func (interaction *fakeInteraction) Report(increment float64, message string) {
	interaction.percent += increment
	interaction.reports = append(interaction.reports, message)
}

func (interaction *fakeInteraction) Canceled() bool {
	return interaction.cancelAfter >= 0 && len(interaction.reports) >= interaction.cancelAfter
}

type fakeClipboard struct {
	writes []string
	err    error
}

func (clipboard *fakeClipboard) WriteText(text string) error {
	if clipboard.err != nil {
		return clipboard.err
	}
	clipboard.writes = append(clipboard.writes, text)
	return nil
}

type stubCounter struct{}

func (stubCounter) Name() string { return "stub" }

func (stubCounter) CountString(input string) (int, error) {
	return len(strings.Fields(input)), nil
}

type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }

func (failingCounter) CountString(string) (int, error) {
	return 0, errors.New("tokenizer unavailable")
}
