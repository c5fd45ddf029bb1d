package snapshot

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/temirov/snapshot/internal/utils"
)

const binaryPlaceholderFormat = "[binary content omitted: %s]"

// DecodeOptions controls how file bytes become snapshot text.
type DecodeOptions struct {
	BinaryPlaceholder bool
}

// DecodeContent decodes data as UTF-8, dropping a leading byte order mark and
// replacing ill-formed sequences with U+FFFD. When BinaryPlaceholder is set,
// data that looks binary is replaced by a short placeholder.
func DecodeContent(data []byte, options DecodeOptions) (string, error) {
	if options.BinaryPlaceholder && utils.IsBinary(data) {
		return fmt.Sprintf(binaryPlaceholderFormat, utils.FormatFileSize(int64(len(data)))), nil
	}
	decoded, decodeError := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if decodeError != nil {
		return "", fmt.Errorf("decode utf-8: %w", decodeError)
	}
	return string(decoded), nil
}
