// Package tokenizer splits tagged text collections into tokens. A token is
// either a tag, matched from '<' through the next '>' on the same line, or a
// run of ASCII alphanumerics that may continue through embedded hyphens so
// that identifiers such as "WSJ870324-0001" stay intact. Every other byte
// separates tokens and is dropped.
package tokenizer

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

// MaxTermLength is the longest term the index can store: serialized term
// lengths occupy a single byte.
const MaxTermLength = 0xFF

const maxLineSize = 16 * 1024 * 1024

// Kind distinguishes markup from content.
type Kind int

const (
	Word Kind = iota
	Tag
)

// Token is a single lexical unit of the input.
type Token struct {
	Text string
	Kind Kind
}

func (t Token) IsTag() bool { return t.Kind == Tag }

type state int

const (
	stateOutside state = iota
	stateInTag
	stateInWord
)

// Scanner yields tokens lazily, one input line at a time. Its API mirrors
// bufio.Scanner: call Scan until it returns false, then check Err.
type Scanner struct {
	lines  *bufio.Scanner
	line   []byte
	pos    int
	tok    Token
	lineNo int64
}

func NewScanner(r io.Reader) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Scanner{lines: lines}
}

// Scan advances to the next token.
func (s *Scanner) Scan() bool {
	for {
		if tok, ok := s.next(); ok {
			s.tok = tok
			return true
		}
		if !s.lines.Scan() {
			return false
		}
		s.line = s.lines.Bytes()
		s.pos = 0
		s.lineNo++
	}
}

// Token returns the most recent token produced by Scan.
func (s *Scanner) Token() Token { return s.tok }

// Line returns the 1-based number of the line being scanned.
func (s *Scanner) Line() int64 { return s.lineNo }

func (s *Scanner) Err() error { return s.lines.Err() }

// All returns the remaining tokens as a single-use sequence. Read errors are
// reported by Err once the sequence is exhausted.
func (s *Scanner) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for s.Scan() {
			if !yield(s.tok) {
				return
			}
		}
	}
}

// next runs the state machine over the rest of the current line. Tags never
// span lines, so reaching the end of the line closes whatever is open.
func (s *Scanner) next() (Token, bool) {
	st := stateOutside
	start := 0
	for s.pos < len(s.line) {
		c := s.line[s.pos]
		switch st {
		case stateOutside:
			switch {
			case c == '<':
				st = stateInTag
				start = s.pos
			case isAlnum(c):
				st = stateInWord
				start = s.pos
			}
			s.pos++
		case stateInTag:
			s.pos++
			if c == '>' {
				return s.emit(start, Tag), true
			}
		case stateInWord:
			if isAlnum(c) || c == '-' {
				s.pos++
				continue
			}
			return s.emit(start, Word), true
		}
	}
	switch st {
	case stateInTag:
		return s.emit(start, Tag), true
	case stateInWord:
		return s.emit(start, Word), true
	}
	return Token{}, false
}

func (s *Scanner) emit(start int, kind Kind) Token {
	return Token{Text: string(s.line[start:s.pos]), Kind: kind}
}

// Tokenize is a convenience wrapper that scans an in-memory string.
func Tokenize(text string) []Token {
	s := NewScanner(strings.NewReader(text))
	tokens := make([]Token, 0, len(text)/6)
	for tok := range s.All() {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Normalize turns a content token into an index term: ASCII case folding
// followed by truncation to MaxTermLength bytes.
func Normalize(token string) string {
	term := strings.ToLower(token)
	if len(term) > MaxTermLength {
		term = term[:MaxTermLength]
	}
	return term
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
