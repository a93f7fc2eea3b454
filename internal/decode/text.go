package decode

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// maxLineSize bounds a single line's buffer; lines in well-formed text
// log objects are short, but this guards against unbounded growth on a
// pathological input.
const maxLineSize = 1 << 20

// decodeText yields one entry per non-empty line, preserving order,
// skipping empty lines, and discarding the first SkipHeaderLines
// non-empty lines while still counting them toward the ordinal (spec
// §4.3 "text").
func decodeText(r io.Reader, rule *rules.ProcessingRule, visit Visit) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	ordinal := 0
	skipped := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !utf8.ValidString(line) {
			return ErrNonUTF8TextEntry
		}
		ordinal++
		if skipped < rule.SkipHeaderLines {
			skipped++
			continue
		}
		if err := visit(Entry{Ordinal: ordinal, Text: line}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("decode text: %w", err)
	}
	return nil
}
