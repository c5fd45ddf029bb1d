// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

// Writer accepts the text of a finished snapshot.
type Writer interface {
	WriteText(text string) error
}

// Service implements Writer using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// WriteText writes text to the system clipboard.
func (service *Service) WriteText(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available; install xclip, xsel or wl-clipboard, or use --print")
	}
	return clipboard.WriteAll(text)
}

// StreamSink implements Writer by writing the text to an output stream.
type StreamSink struct {
	output io.Writer
}

// NewStreamSink returns a Writer that prints snapshots to output.
func NewStreamSink(output io.Writer) *StreamSink {
	return &StreamSink{output: output}
}

// WriteText writes text to the sink's stream unchanged.
func (sink *StreamSink) WriteText(text string) error {
	_, writeError := io.WriteString(sink.output, text)
	return writeError
}

var (
	_ Writer = (*Service)(nil)
	_ Writer = (*StreamSink)(nil)
)
