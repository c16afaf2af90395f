package markup

import (
	"bytes"
	"regexp"
)

var (
	// crlfOrCR matches Windows and old Mac line endings.
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// normalizeSource drops a leading byte order mark and converts line
// endings to \n, so field and argument lines never end in \r and
// diagnostic line numbers match what editors show.
func normalizeSource(src []byte) []byte {
	src = bytes.TrimPrefix(src, utf8BOM)
	if bytes.IndexByte(src, '\r') == -1 {
		return src
	}
	return crlfOrCR.ReplaceAll(src, []byte("\n"))
}
