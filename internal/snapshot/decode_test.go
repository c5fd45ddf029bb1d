package snapshot_test

import (
	"testing"

	"github.com/temirov/snapshot/internal/snapshot"
)

func TestDecodeContent(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		options  snapshot.DecodeOptions
		expected string
	}{
		{name: "plain text", data: []byte("hello"), expected: "hello"},
		{name: "byte order mark stripped", data: []byte("\xef\xbb\xbfhello"), expected: "hello"},
		{name: "invalid bytes replaced", data: []byte("a\xffb"), expected: "a\uFFFDb"},
		{name: "binary decoded by default", data: []byte{'P', 0x00, 'K'}, expected: "P\x00K"},
		{name: "binary placeholder", data: []byte{'P', 0x00, 'K'}, options: snapshot.DecodeOptions{BinaryPlaceholder: true}, expected: "[binary content omitted: 3b]"},
		{name: "text unaffected by placeholder", data: []byte("text"), options: snapshot.DecodeOptions{BinaryPlaceholder: true}, expected: "text"},
		{name: "empty", data: nil, expected: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual, err := snapshot.DecodeContent(testCase.data, testCase.options)
			if err != nil {
				t.Fatalf("DecodeContent error: %v", err)
			}
			if actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, actual)
			}
		})
	}
}
