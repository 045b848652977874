package stream

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestRecognizeMarkers(t *testing.T) {
	cases := []struct {
		line string
		want Token
	}{
		{"@START_CODE", Token{Kind: TokenStartCode}},
		{"@END_CODE", Token{Kind: TokenEndCode}},
		{"@END", Token{Kind: TokenEnd}},
		{"@CREATE[type=code, position=bottom]", Token{Kind: TokenCreate, CellType: CellCode, Position: "bottom"}},
		{"@CREATE[type=markdown,position=top]", Token{Kind: TokenCreate, CellType: CellMarkdown, Position: "top"}},
		{"@CREATE[type=code, position=after:cell-abc]", Token{Kind: TokenCreate, CellType: CellCode, Position: "after:cell-abc"}},
		{"@CREATE[type=code, position=before:cell-abc]", Token{Kind: TokenCreate, CellType: CellCode, Position: "before:cell-abc"}},
		{"@EDIT[cell-abc]", Token{Kind: TokenEdit, CellID: "cell-abc"}},
		{"@DELETE[cell-abc]", Token{Kind: TokenDelete, CellID: "cell-abc"}},
	}

	for _, c := range cases {
		got := Recognize(c.line)
		if got.Kind != c.want.Kind {
			t.Fatalf("Recognize(%q).Kind = %d, want %d", c.line, got.Kind, c.want.Kind)
		}
		assert.Equal(t, got.CellType, c.want.CellType)
		assert.Equal(t, got.Position, c.want.Position)
		assert.Equal(t, got.CellID, c.want.CellID)
	}
}

func TestRecognizeMalformedIsContent(t *testing.T) {
	lines := []string{
		"",
		"plain text",
		"@CREATE[type=python, position=bottom]", // unknown cell type
		"@CREATE[type=code, position=middle]",   // unknown position
		"@CREATE[type=code, position=after:]",   // empty anchor
		"@CREATE[type=code]",                    // missing position
		"email@EDITOR[x]",
		"see @ENDPOINT for details", // longer token, not an @END
		"@ENDLESS",
	}
	for _, line := range lines {
		got := Recognize(line)
		if got.Kind != TokenContent {
			t.Fatalf("Recognize(%q).Kind = %d, want content", line, got.Kind)
		}
	}
}

func TestEndCodeIsNotEnd(t *testing.T) {
	// @END_CODE contains @END as a substring; region close must win
	assert.Equal(t, Recognize("@END_CODE").Kind, TokenEndCode)
	assert.Equal(t, Recognize("@END").Kind, TokenEnd)
	assert.Equal(t, Recognize("@END.").Kind, TokenEnd)
}

func TestParsePosition(t *testing.T) {
	p, ok := ParsePosition("top")
	assert.Equal(t, ok, true)
	assert.Equal(t, p.Kind, PositionTop)

	p, ok = ParsePosition("bottom")
	assert.Equal(t, ok, true)
	assert.Equal(t, p.Kind, PositionBottom)

	p, ok = ParsePosition("after:c1")
	assert.Equal(t, ok, true)
	assert.Equal(t, p.Kind, PositionAfter)
	assert.Equal(t, p.Anchor, "c1")

	p, ok = ParsePosition("before:c1")
	assert.Equal(t, ok, true)
	assert.Equal(t, p.Kind, PositionBefore)
	assert.Equal(t, p.Anchor, "c1")

	for _, raw := range []string{"", "middle", "after:", "before:"} {
		if _, ok := ParsePosition(raw); ok {
			t.Fatalf("ParsePosition(%q) should fail", raw)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	for _, raw := range []string{"top", "bottom", "after:c1", "before:c1"} {
		p, ok := ParsePosition(raw)
		assert.Equal(t, ok, true)
		assert.Equal(t, p.String(), raw)
	}
}
