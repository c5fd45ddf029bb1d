// Package filesystem adapts an afero file system to the snapshot FileSystem capability.
package filesystem

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/temirov/snapshot/internal/snapshot"
)

// Service answers stat, list and read requests against an afero.Fs.
type Service struct {
	fileSystem afero.Fs
}

// NewService wraps fileSystem.
func NewService(fileSystem afero.Fs) *Service {
	return &Service{fileSystem: fileSystem}
}

// NewOSService returns a Service backed by the operating system file system.
func NewOSService() *Service {
	return NewService(afero.NewOsFs())
}

// Stat classifies location, following symbolic links.
func (service *Service) Stat(ctx context.Context, location string) (snapshot.FileType, error) {
	if contextError := ctx.Err(); contextError != nil {
		return snapshot.FileTypeUnknown, contextError
	}
	info, statError := service.fileSystem.Stat(location)
	if statError != nil {
		return snapshot.FileTypeUnknown, statError
	}
	return classify(info.Mode()), nil
}

// ListDirectory returns the children of location sorted by name. Children are
// classified without following symbolic links.
func (service *Service) ListDirectory(ctx context.Context, location string) ([]snapshot.DirectoryEntry, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	infos, readError := afero.ReadDir(service.fileSystem, location)
	if readError != nil {
		return nil, readError
	}
	entries := make([]snapshot.DirectoryEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, snapshot.DirectoryEntry{Name: info.Name(), Type: classify(info.Mode())})
	}
	return entries, nil
}

// ReadFile returns the full content of location.
func (service *Service) ReadFile(ctx context.Context, location string) ([]byte, error) {
	if contextError := ctx.Err(); contextError != nil {
		return nil, contextError
	}
	return afero.ReadFile(service.fileSystem, location)
}

// ResolveLocation returns location with every symbolic link resolved. Only the
// operating system file system has links; other afero file systems return the
// cleaned location once it is known to exist.
func (service *Service) ResolveLocation(ctx context.Context, location string) (string, error) {
	if contextError := ctx.Err(); contextError != nil {
		return "", contextError
	}
	if _, isOperatingSystem := service.fileSystem.(*afero.OsFs); isOperatingSystem {
		return filepath.EvalSymlinks(location)
	}
	if _, statError := service.fileSystem.Stat(location); statError != nil {
		return "", statError
	}
	return filepath.Clean(location), nil
}

func classify(mode fs.FileMode) snapshot.FileType {
	switch {
	case mode&fs.ModeSymlink != 0:
		return snapshot.FileTypeSymlink
	case mode.IsDir():
		return snapshot.FileTypeDirectory
	case mode.IsRegular():
		return snapshot.FileTypeFile
	default:
		return snapshot.FileTypeUnknown
	}
}

var _ snapshot.FileSystem = (*Service)(nil)
