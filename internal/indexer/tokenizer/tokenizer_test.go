package tokenizer

import (
	"strings"
	"testing"
)

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"only separators", " ,.;!? \t", nil},
		{"words", "The quick, brown fox.", []string{"The", "quick", "brown", "fox"}},
		{"tags and words", "<DOC><DOCNO> WSJ870324-0001 </DOCNO>", []string{"<DOC>", "<DOCNO>", "WSJ870324-0001", "</DOCNO>"}},
		{"hyphen continues word", "state-of-the-art", []string{"state-of-the-art"}},
		{"leading hyphen dropped", "-foo --bar", []string{"foo", "bar"}},
		{"trailing hyphen kept", "foo- bar", []string{"foo-", "bar"}},
		{"tag ends word", "abc<TEXT>def", []string{"abc", "<TEXT>", "def"}},
		{"closing slash kept", "</TEXT>", []string{"</TEXT>"}},
		{"tag with attributes", `<DOC id="1">x`, []string{`<DOC id="1">`, "x"}},
		{"unterminated tag closes at line end", "<DOC\nword", []string{"<DOC", "word"}},
		{"stray close bracket", "a > b", []string{"a", "b"}},
		{"digits", "1987 was 3x", []string{"1987", "was", "3x"}},
		{"non ascii separates", "café ok", []string{"caf", "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(Tokenize(tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
				}
			}
		})
	}
}

func TestTokenKinds(t *testing.T) {
	tokens := Tokenize("<DOC> hello </DOC>")
	wantKinds := []Kind{Tag, Word, Tag}
	if len(tokens) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(wantKinds))
	}
	for i, tok := range tokens {
		if tok.Kind != wantKinds[i] {
			t.Errorf("token %q kind = %v, want %v", tok.Text, tok.Kind, wantKinds[i])
		}
		if tok.IsTag() != (wantKinds[i] == Tag) {
			t.Errorf("token %q IsTag mismatch", tok.Text)
		}
	}
}

func TestScannerAcrossLines(t *testing.T) {
	s := NewScanner(strings.NewReader("alpha beta\n\ngamma\r\n<DOC>"))
	var got []string
	for s.Scan() {
		got = append(got, s.Token().Text)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := []string{"alpha", "beta", "gamma", "<DOC>"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %q, want %q", got, want)
	}
	if s.Line() != 4 {
		t.Errorf("Line() = %d, want 4", s.Line())
	}
}

func TestAllStopsEarly(t *testing.T) {
	s := NewScanner(strings.NewReader("one two three"))
	var got []string
	for tok := range s.All() {
		got = append(got, tok.Text)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d tokens", len(got))
	}
	if !s.Scan() || s.Token().Text != "three" {
		t.Errorf("scanner should resume after early break, got %q", s.Token().Text)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("WSJ870324-0001"); got != "wsj870324-0001" {
		t.Errorf("Normalize = %q", got)
	}
	long := strings.Repeat("A", 300)
	got := Normalize(long)
	if len(got) != MaxTermLength {
		t.Fatalf("len = %d, want %d", len(got), MaxTermLength)
	}
	if got != strings.Repeat("a", MaxTermLength) {
		t.Error("truncated term not lowercased")
	}
	if Normalize(got) != got {
		t.Error("Normalize should be idempotent")
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := strings.Repeat(`<DOC>
<DOCNO> WSJ870324-0001 </DOCNO>
<TEXT>
Information retrieval systems form the backbone of modern search
infrastructure. BM25 ranking considers term frequency, document length
normalization, and inverse document frequency.
</TEXT>
</DOC>
`, 50)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}
