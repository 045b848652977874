package stream

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLineDiffIdentical(t *testing.T) {
	spans := LineDiff("a\nb", "a\nb")
	assert.Equal(t, len(spans), 1)
	assert.Equal(t, spans[0].Added, false)
	assert.Equal(t, spans[0].Removed, false)
	assert.Equal(t, spans[0].Count, 2)
}

func TestLineDiffEmpty(t *testing.T) {
	if spans := LineDiff("", ""); spans != nil {
		t.Fatalf("expected nil, got %+v", spans)
	}
}

func TestLineDiffChangedLine(t *testing.T) {
	spans := LineDiff("a\nb\nc", "a\nx\nc")

	var added, removed []string
	for _, s := range spans {
		if s.Added {
			added = append(added, s.Value)
		}
		if s.Removed {
			removed = append(removed, s.Value)
		}
	}
	assert.Equal(t, added, []string{"x\n"})
	assert.Equal(t, removed, []string{"b\n"})
}

func TestLineDiffPureInsert(t *testing.T) {
	spans := LineDiff("", "a\nb")
	assert.Equal(t, len(spans), 1)
	assert.Equal(t, spans[0].Added, true)
	assert.Equal(t, spans[0].Count, 2)
}

func TestLineDiffSpansOrdered(t *testing.T) {
	spans := LineDiff("keep\nold\n", "keep\nnew\n")
	assert.Equal(t, spans[0].Value, "keep\n")
	assert.Equal(t, spans[0].Added, false)
	assert.Equal(t, spans[0].Removed, false)
}
