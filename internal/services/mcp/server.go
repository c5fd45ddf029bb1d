// Package mcp serves snapshots over a local HTTP endpoint so tools and agents
// can request the same text the copy command places on the clipboard.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	maxRequestBytes         = 1 << 20
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	capabilitiesPath        = "/capabilities"
	rootPath                = "/"
	snapshotPath            = "/snapshot"
	errorFieldName          = "error"
	snapshotCapabilityName  = "snapshot"
	snapshotCapabilityText  = "Collect files and folders into one plain-text snapshot"
)

// Capability describes a feature exposed by the server.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SnapshotRequest selects the files of one snapshot. Exclusions add to the
// server's configured ones.
type SnapshotRequest struct {
	Paths             []string `json:"paths"`
	ExcludeExtensions []string `json:"excludeExtensions,omitempty"`
	ExcludePaths      []string `json:"excludePaths,omitempty"`
}

// SnapshotResponse carries the snapshot text and its summary.
type SnapshotResponse struct {
	Text    string `json:"text"`
	Files   int    `json:"files"`
	Skipped int    `json:"skipped,omitempty"`
	Bytes   int64  `json:"bytes"`
	Tokens  int    `json:"tokens,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Snapshotter produces a snapshot for a request.
type Snapshotter interface {
	Snapshot(ctx context.Context, request SnapshotRequest) (SnapshotResponse, error)
}

// SnapshotterFunc adapts a function into a Snapshotter.
type SnapshotterFunc func(context.Context, SnapshotRequest) (SnapshotResponse, error)

// Snapshot invokes the underlying function.
func (snapshotter SnapshotterFunc) Snapshot(ctx context.Context, request SnapshotRequest) (SnapshotResponse, error) {
	return snapshotter(ctx, request)
}

// RequestError is a snapshot failure carrying the HTTP status to answer with.
type RequestError struct {
	statusCode int
	err        error
}

func (requestError RequestError) Error() string {
	return requestError.err.Error()
}

func (requestError RequestError) Unwrap() error {
	return requestError.err
}

// StatusCode reports the associated HTTP status code.
func (requestError RequestError) StatusCode() int {
	return requestError.statusCode
}

// NewRequestError wraps err with statusCode. A nil err stays nil.
func NewRequestError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return RequestError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the server.
type Config struct {
	Address         string
	Snapshotter     Snapshotter
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server answers snapshot requests over HTTP.
type Server struct {
	config Config
}

// NewServer creates a Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Run serves until ctx is canceled. notify receives the bound address once
// the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.Handler()}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve snapshots: %w", serveErr)
		}
		return nil
	})

	server.config.Logger.Info("snapshot server listening", zap.String("address", actualAddress))
	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown snapshot server: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

// Handler returns the HTTP routes of the server.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(snapshotPath, server.handleSnapshot)
	router.HandleFunc(rootPath, server.handleRoot)
	return router
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: []Capability{{Name: snapshotCapabilityName, Description: snapshotCapabilityText}}}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path != rootPath {
		writer.WriteHeader(http.StatusNotFound)
		return
	}
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleSnapshot(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if server.config.Snapshotter == nil {
		server.writeError(writer, http.StatusServiceUnavailable, errors.New("no snapshotter configured"))
		return
	}
	var snapshotRequest SnapshotRequest
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if decodeErr := decoder.Decode(&snapshotRequest); decodeErr != nil {
		server.writeError(writer, http.StatusBadRequest, fmt.Errorf("decode snapshot request: %w", decodeErr))
		return
	}
	response, snapshotErr := server.config.Snapshotter.Snapshot(request.Context(), snapshotRequest)
	if snapshotErr != nil {
		statusCode := statusCodeFromError(snapshotErr)
		server.config.Logger.Debug("snapshot request failed", zap.Int("status", statusCode), zap.Error(snapshotErr))
		server.writeError(writer, statusCode, snapshotErr)
		return
	}
	server.writeJSON(writer, http.StatusOK, response)
}

func (server Server) writeError(writer http.ResponseWriter, statusCode int, err error) {
	server.writeJSON(writer, statusCode, map[string]string{errorFieldName: err.Error()})
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func statusCodeFromError(err error) int {
	var requestError RequestError
	if errors.As(err, &requestError) {
		return requestError.StatusCode()
	}
	return http.StatusInternalServerError
}
