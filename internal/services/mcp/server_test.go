package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/temirov/snapshot/internal/services/filesystem"
	"github.com/temirov/snapshot/internal/services/mcp"
)

func TestServerRunExposesCapabilities(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := mcp.NewServer(mcp.Config{Address: "127.0.0.1:0"})
	addressCh := make(chan string, 1)
	errorCh := make(chan error, 1)

	go func() {
		errorCh <- server.Run(ctx, func(address string) {
			addressCh <- address
		})
	}()

	select {
	case address := <-addressCh:
		client := http.Client{Timeout: 2 * time.Second}
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+address+"/capabilities", nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		response, err := client.Do(request)
		if err != nil {
			t.Fatalf("perform request: %v", err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.StatusCode)
		}
		var body struct {
			Capabilities []mcp.Capability `json:"capabilities"`
		}
		if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(body.Capabilities) != 1 || body.Capabilities[0].Name != "snapshot" {
			t.Fatalf("unexpected capabilities: %+v", body.Capabilities)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not start")
	}

	cancel()
	if err := <-errorCh; err != nil {
		t.Fatalf("server error: %v", err)
	}
}

func newSnapshotHandler(t *testing.T, files map[string]string, excludeExtensions ...string) http.Handler {
	t.Helper()
	memory := afero.NewMemMapFs()
	for path, content := range files {
		if err := memory.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := afero.WriteFile(memory, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	snapshotter := mcp.NewSnapshotter(mcp.SnapshotterConfig{
		FileSystem:        filesystem.NewService(memory),
		Roots:             []string{"/project"},
		ExcludeExtensions: excludeExtensions,
	})
	return mcp.NewServer(mcp.Config{Snapshotter: snapshotter}).Handler()
}

func postSnapshot(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/snapshot", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestSnapshotEndpointReturnsSnapshot(t *testing.T) {
	files := map[string]string{
		"/project/src/a.txt":   "hello",
		"/project/src/b.png":   "png",
		"/project/src/c.lock":  "lock",
		"/project/other/d.txt": "other",
	}
	handler := newSnapshotHandler(t, files, ".png")

	recorder := postSnapshot(t, handler, `{"paths":["src"],"excludeExtensions":["lock"]}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
	}
	var response mcp.SnapshotResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	expected := "File: src/a.txt\nContents:\nhello\n---\n\n"
	if response.Text != expected || response.Files != 1 || response.Bytes != 5 {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestSnapshotEndpointErrors(t *testing.T) {
	handler := newSnapshotHandler(t, map[string]string{"/project/a.txt": "A"})

	testCases := []struct {
		name     string
		method   string
		body     string
		expected int
	}{
		{name: "wrong method", method: http.MethodGet, expected: http.StatusMethodNotAllowed},
		{name: "malformed body", method: http.MethodPost, body: `{"paths":`, expected: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, body: `{"files":["a.txt"]}`, expected: http.StatusBadRequest},
		{name: "empty selection", method: http.MethodPost, body: `{"paths":[]}`, expected: http.StatusBadRequest},
		{name: "outside roots", method: http.MethodPost, body: `{"paths":["/etc/passwd"]}`, expected: http.StatusForbidden},
		{name: "parent escape", method: http.MethodPost, body: `{"paths":["../secret"]}`, expected: http.StatusForbidden},
		{name: "missing file", method: http.MethodPost, body: `{"paths":["missing.txt"]}`, expected: http.StatusNotFound},
		{name: "invalid pattern", method: http.MethodPost, body: `{"paths":["a.txt"],"excludePaths":["[x"]}`, expected: http.StatusBadRequest},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(testCase.method, "/snapshot", strings.NewReader(testCase.body))
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)
			if recorder.Code != testCase.expected {
				t.Fatalf("expected status %d, got %d: %s", testCase.expected, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestSnapshotEndpointResolvesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o755); err != nil {
		t.Fatalf("mkdir docs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("A"), 0o600); err != nil {
		t.Fatalf("write a.txt: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Fatalf("symlink escape: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "secret.txt")); err != nil {
		t.Fatalf("symlink secret: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "docs"), filepath.Join(root, "alias")); err != nil {
		t.Fatalf("symlink alias: %v", err)
	}
	snapshotter := mcp.NewSnapshotter(mcp.SnapshotterConfig{
		FileSystem: filesystem.NewOSService(),
		Roots:      []string{root},
	})
	handler := mcp.NewServer(mcp.Config{Snapshotter: snapshotter}).Handler()

	testCases := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "directory link outside roots", body: `{"paths":["escape"]}`, expected: http.StatusForbidden},
		{name: "file link outside roots", body: `{"paths":["secret.txt"]}`, expected: http.StatusForbidden},
		{name: "escape after valid path", body: `{"paths":["docs","escape"]}`, expected: http.StatusForbidden},
		{name: "link inside roots", body: `{"paths":["alias"]}`, expected: http.StatusOK},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := postSnapshot(t, handler, testCase.body)
			if recorder.Code != testCase.expected {
				t.Fatalf("expected status %d, got %d: %s", testCase.expected, recorder.Code, recorder.Body.String())
			}
			if testCase.expected == http.StatusForbidden && strings.Contains(recorder.Body.String(), "Contents:") {
				t.Fatalf("outside content leaked: %s", recorder.Body.String())
			}
		})
	}
}

func TestSnapshotterCanceledRequestIsUnavailable(t *testing.T) {
	memory := afero.NewMemMapFs()
	if err := memory.MkdirAll("/project/src", 0o755); err != nil {
		t.Fatalf("mkdir src: %v", err)
	}
	if err := afero.WriteFile(memory, "/project/src/a.txt", []byte("A"), 0o644); err != nil {
		t.Fatalf("write a.txt: %v", err)
	}
	snapshotter := mcp.NewSnapshotter(mcp.SnapshotterConfig{
		FileSystem: filesystem.NewService(memory),
		Roots:      []string{"/project"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := snapshotter.Snapshot(ctx, mcp.SnapshotRequest{Paths: []string{"src"}})
	var requestError mcp.RequestError
	if !errors.As(err, &requestError) || requestError.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestSnapshotterFuncErrorStatus(t *testing.T) {
	failing := mcp.SnapshotterFunc(func(context.Context, mcp.SnapshotRequest) (mcp.SnapshotResponse, error) {
		return mcp.SnapshotResponse{}, mcp.NewRequestError(http.StatusTeapot, errors.New("short and stout"))
	})
	handler := mcp.NewServer(mcp.Config{Snapshotter: failing}).Handler()

	recorder := postSnapshot(t, handler, `{"paths":["a"]}`)
	if recorder.Code != http.StatusTeapot || !strings.Contains(recorder.Body.String(), "short and stout") {
		t.Fatalf("unexpected response %d: %s", recorder.Code, recorder.Body.String())
	}
	if mcp.NewRequestError(http.StatusTeapot, nil) != nil {
		t.Fatalf("expected nil error for nil cause")
	}
}
