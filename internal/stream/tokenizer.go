package stream

import (
	"regexp"
	"strings"
)

// TokenKind classifies one line of the command markup.
type TokenKind int

const (
	TokenContent TokenKind = iota
	TokenStartCode
	TokenEndCode
	TokenCreate
	TokenEdit
	TokenDelete
	TokenEnd
)

// Token is the result of recognizing one newline-stripped line.
type Token struct {
	Kind     TokenKind
	CellType CellType // create only
	Position string   // create only, raw literal
	CellID   string   // edit/delete only
	Line     string
}

var (
	createRe = regexp.MustCompile(`@CREATE\[type=(markdown|code),\s*position=([^\]\s]+)\]`)
	editRe   = regexp.MustCompile(`@EDIT\[([^\]\s]+)\]`)
	deleteRe = regexp.MustCompile(`@DELETE\[([^\]\s]+)\]`)
	// Word boundary so longer tokens like @ENDPOINT in content lines do not
	// close open operations.
	endRe = regexp.MustCompile(`@END\b`)
)

// Recognize classifies a single line. The markers are matched anywhere in
// the line rather than as exact full-line equality, though in practice each
// marker occupies its own line. Anything that fails the grammar, including
// malformed bracket syntax, is a plain content line; the recognizer never
// errors. It is stateless: all cross-line state lives in the machine.
func Recognize(line string) Token {
	// @END_CODE contains @END, so region markers are checked first.
	if strings.Contains(line, "@START_CODE") {
		return Token{Kind: TokenStartCode, Line: line}
	}
	if strings.Contains(line, "@END_CODE") {
		return Token{Kind: TokenEndCode, Line: line}
	}
	if m := createRe.FindStringSubmatch(line); m != nil {
		if _, ok := ParsePosition(m[2]); ok {
			return Token{Kind: TokenCreate, CellType: CellType(m[1]), Position: m[2], Line: line}
		}
		return Token{Kind: TokenContent, Line: line}
	}
	if m := editRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenEdit, CellID: m[1], Line: line}
	}
	if m := deleteRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenDelete, CellID: m[1], Line: line}
	}
	if endRe.MatchString(line) {
		return Token{Kind: TokenEnd, Line: line}
	}
	return Token{Kind: TokenContent, Line: line}
}
