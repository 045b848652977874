package stream

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSpan is one contiguous run of lines in a line-level diff. Exactly one
// of Added/Removed is set for changed spans; both are false for unchanged
// spans. Count is the number of lines in the span.
type DiffSpan struct {
	Value   string
	Added   bool
	Removed bool
	Count   int
}

// LineDiff computes an ordered line-level diff between two texts using the
// LCS-based line mode of diffmatchpatch. Span values keep their trailing
// newlines except for the final line of the input.
func LineDiff(original, updated string) []DiffSpan {
	if original == updated {
		if original == "" {
			return nil
		}
		return []DiffSpan{{Value: original, Count: countLines(original)}}
	}

	dmp := diffmatchpatch.New()
	c1, c2, lines := dmp.DiffLinesToChars(original, updated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lines)

	spans := make([]DiffSpan, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		span := DiffSpan{Value: d.Text, Count: countLines(d.Text)}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			span.Added = true
		case diffmatchpatch.DiffDelete:
			span.Removed = true
		}
		spans = append(spans, span)
	}
	return spans
}

func countLines(text string) int {
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
