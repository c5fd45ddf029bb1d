package snapshot

import (
	"context"
	"path/filepath"
)

const (
	operationStat = "stat"
	operationList = "list"
	operationRead = "read"
)

// Walker expands selected locations into the files beneath them.
type Walker struct {
	fileSystem FileSystem
}

// NewWalker returns a Walker over fileSystem.
func NewWalker(fileSystem FileSystem) *Walker {
	return &Walker{fileSystem: fileSystem}
}

// ListFilesRecursively returns location itself when it is a file, or every file
// beneath it in depth-first listing order when it is a directory. Symbolic links
// found inside directories are skipped and never followed.
func (walker *Walker) ListFilesRecursively(ctx context.Context, location string) ([]string, error) {
	fileType, statError := walker.fileSystem.Stat(ctx, location)
	if statError != nil {
		return nil, &FatalIOError{Op: operationStat, Path: location, Err: statError}
	}
	switch fileType {
	case FileTypeFile:
		return []string{location}, nil
	case FileTypeDirectory:
		var files []string
		if walkError := walker.walkDirectory(ctx, location, &files); walkError != nil {
			return nil, walkError
		}
		return files, nil
	default:
		return nil, nil
	}
}

func (walker *Walker) walkDirectory(ctx context.Context, directory string, files *[]string) error {
	if contextError := ctx.Err(); contextError != nil {
		return contextError
	}
	entries, listError := walker.fileSystem.ListDirectory(ctx, directory)
	if listError != nil {
		return &FatalIOError{Op: operationList, Path: directory, Err: listError}
	}
	for _, entry := range entries {
		childLocation := filepath.Join(directory, entry.Name)
		switch entry.Type {
		case FileTypeFile:
			*files = append(*files, childLocation)
		case FileTypeDirectory:
			if walkError := walker.walkDirectory(ctx, childLocation, files); walkError != nil {
				return walkError
			}
		}
	}
	return nil
}
