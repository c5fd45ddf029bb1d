package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/snapshot/internal/services/clipboard"
	"github.com/temirov/snapshot/internal/services/terminal"
	"github.com/temirov/snapshot/internal/snapshot"
)

const outsideRootsErrorFormat = "path %q is outside the served workspace roots"

// LocationResolver resolves symbolic links in a location. A FileSystem that
// implements it has selected paths checked against the roots after resolution.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, location string) (string, error)
}

// SnapshotterConfig configures the Snapshotter returned by NewSnapshotter.
// Relative request paths resolve against the first root.
type SnapshotterConfig struct {
	FileSystem        snapshot.FileSystem
	Roots             []string
	ExcludeExtensions []string
	ExcludePaths      []string
	Options           snapshot.Options
	Logger            *zap.Logger
}

type orchestratorSnapshotter struct {
	config SnapshotterConfig
	roots  snapshot.WorkspaceRoots
}

// NewSnapshotter returns a Snapshotter that runs a fresh Orchestrator per
// request. Confirmation is never asked and nothing touches the clipboard.
func NewSnapshotter(config SnapshotterConfig) Snapshotter {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return orchestratorSnapshotter{config: config, roots: snapshot.NewWorkspaceRoots(config.Roots...)}
}

func (snapshotter orchestratorSnapshotter) Snapshot(ctx context.Context, request SnapshotRequest) (SnapshotResponse, error) {
	if len(request.Paths) == 0 {
		return SnapshotResponse{}, NewRequestError(http.StatusBadRequest, snapshot.ErrEmptySelection)
	}
	selection, selectionErr := snapshotter.resolveSelection(ctx, request.Paths)
	if selectionErr != nil {
		return SnapshotResponse{}, selectionErr
	}

	patterns, patternErr := snapshot.NewPatternSet(append(append([]string{}, snapshotter.config.ExcludePaths...), request.ExcludePaths...)...)
	if patternErr != nil {
		return SnapshotResponse{}, NewRequestError(http.StatusBadRequest, patternErr)
	}
	options := snapshotter.config.Options
	options.Exclusions = snapshot.NewExclusionSet(append(append([]string{}, snapshotter.config.ExcludeExtensions...), request.ExcludeExtensions...)...)
	options.Patterns = patterns
	options.SkipConfirmation = true

	orchestrator := snapshot.NewOrchestrator(snapshot.Dependencies{
		FileSystem:  snapshotter.config.FileSystem,
		Interaction: terminal.NewConsole(terminal.Options{Output: io.Discard, AssumeYes: true}),
		Clipboard:   clipboard.NewStreamSink(io.Discard),
		Roots:       snapshotter.roots,
		Logger:      snapshotter.config.Logger,
	}, options)

	report, runErr := orchestrator.Run(ctx, snapshot.Invocation{Selected: selection})
	if runErr != nil {
		return SnapshotResponse{}, classifyRunError(runErr)
	}
	return SnapshotResponse{
		Text:    report.Text,
		Files:   report.Files,
		Skipped: report.Skipped,
		Bytes:   report.Bytes,
		Tokens:  report.Tokens,
		Model:   report.Model,
	}, nil
}

// resolveSelection makes request paths absolute and rejects any outside the
// roots, both as written and with symbolic links resolved.
func (snapshotter orchestratorSnapshotter) resolveSelection(ctx context.Context, paths []string) ([]string, error) {
	baseDirectory := ""
	if len(snapshotter.config.Roots) > 0 {
		baseDirectory = snapshotter.config.Roots[0]
	}
	resolver, resolves := snapshotter.config.FileSystem.(LocationResolver)
	var resolvedRoots snapshot.WorkspaceRoots
	if resolves {
		resolvedRoots = snapshotter.resolveRoots(ctx, resolver)
	}

	selection := make([]string, 0, len(paths))
	for _, requestedPath := range paths {
		location := requestedPath
		if !filepath.IsAbs(location) {
			location = filepath.Join(baseDirectory, location)
		}
		location = filepath.Clean(location)
		if _, inside := snapshotter.roots.RootFor(location); !inside {
			return nil, NewRequestError(http.StatusForbidden, fmt.Errorf(outsideRootsErrorFormat, requestedPath))
		}
		if resolves {
			resolvedLocation, resolveErr := resolver.ResolveLocation(ctx, location)
			switch {
			case errors.Is(resolveErr, fs.ErrNotExist):
			case resolveErr != nil:
				return nil, classifyRunError(resolveErr)
			default:
				if _, inside := resolvedRoots.RootFor(resolvedLocation); !inside {
					return nil, NewRequestError(http.StatusForbidden, fmt.Errorf(outsideRootsErrorFormat, requestedPath))
				}
			}
		}
		selection = append(selection, location)
	}
	return selection, nil
}

// resolveRoots resolves the configured roots. A root that cannot be resolved
// is kept as configured.
func (snapshotter orchestratorSnapshotter) resolveRoots(ctx context.Context, resolver LocationResolver) snapshot.WorkspaceRoots {
	resolved := make([]string, 0, len(snapshotter.config.Roots))
	for _, root := range snapshotter.config.Roots {
		resolvedRoot, resolveErr := resolver.ResolveLocation(ctx, root)
		if resolveErr != nil {
			snapshotter.config.Logger.Debug("workspace root not resolved", zap.String("root", root), zap.Error(resolveErr))
			resolvedRoot = filepath.Clean(root)
		}
		resolved = append(resolved, resolvedRoot)
	}
	return snapshot.NewWorkspaceRoots(resolved...)
}

func classifyRunError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewRequestError(http.StatusNotFound, err)
	case errors.Is(err, snapshot.ErrEmptySelection):
		return NewRequestError(http.StatusBadRequest, err)
	case snapshot.IsCanceled(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewRequestError(http.StatusServiceUnavailable, err)
	default:
		return err
	}
}
