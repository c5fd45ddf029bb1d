package snapshot

import "strings"

const (
	entryPathPrefix    = "File: "
	entryContentsLabel = "Contents:"
	entrySeparator     = "---"
	newline            = "\n"
)

// Entry is one file of a snapshot.
type Entry struct {
	DisplayPath string
	Content     string
}

// AppendEntry writes one file block to builder. Content is inserted verbatim.
func AppendEntry(builder *strings.Builder, displayPath string, content string) {
	builder.WriteString(entryPathPrefix)
	builder.WriteString(displayPath)
	builder.WriteString(newline)
	builder.WriteString(entryContentsLabel)
	builder.WriteString(newline)
	builder.WriteString(content)
	builder.WriteString(newline)
	builder.WriteString(entrySeparator)
	builder.WriteString(newline)
	builder.WriteString(newline)
}

// Assemble renders entries in order.
func Assemble(entries []Entry) string {
	var builder strings.Builder
	for _, entry := range entries {
		AppendEntry(&builder, entry.DisplayPath, entry.Content)
	}
	return builder.String()
}
