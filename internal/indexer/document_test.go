package indexer

import (
	"testing"

	"github.com/searchlab/jassjr/pkg/config"
)

const lookupCollection = `<DOC>
<DOCNO> WSJ-0001 </DOCNO>
<TEXT> first body mentions WSJ-0003 </TEXT>
</DOC>
<DOC>
<DOCNO> WSJ-0002 </DOCNO>
<TEXT> second body </TEXT>
</DOC>
<DOC>
<DOCNO> WSJ-0003 </DOCNO>
<TEXT> last body </TEXT>
</DOC>
`

func TestFindDocument(t *testing.T) {
	tests := []struct {
		name  string
		input string
		key   string
		want  string
		found bool
	}{
		{
			name:  "first document",
			input: lookupCollection,
			key:   "WSJ-0001",
			want:  "<DOC>\n<DOCNO> WSJ-0001 </DOCNO>\n<TEXT> first body mentions WSJ-0003 </TEXT>\n</DOC>",
			found: true,
		},
		{
			name:  "key in the last document",
			input: lookupCollection,
			key:   "WSJ-0003",
			want:  "<DOC>\n<DOCNO> WSJ-0003 </DOCNO>\n<TEXT> last body </TEXT>\n</DOC>",
			found: true,
		},
		{
			name:  "not found",
			input: lookupCollection,
			key:   "WSJ-9999",
		},
		{
			name:  "body text is not a key",
			input: lookupCollection,
			key:   "second",
		},
		{
			name:  "partial key matches",
			input: lookupCollection,
			key:   "0002",
			want:  "<DOC>\n<DOCNO> WSJ-0002 </DOCNO>\n<TEXT> second body </TEXT>\n</DOC>",
			found: true,
		},
		{
			name:  "unclosed document",
			input: "<DOC><DOCNO>A</DOCNO> text",
			key:   "A",
		},
		{
			name:  "repeated start tag",
			input: "<DOC> stray <DOC><DOCNO>B</DOCNO></DOC>",
			key:   "B",
			want:  "<DOC><DOCNO>B</DOCNO></DOC>",
			found: true,
		},
		{
			name:  "empty collection",
			input: "",
			key:   "A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindDocument([]byte(tt.input), config.Default().Tokenizer, tt.key)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if string(got) != tt.want {
				t.Errorf("document =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFindDocumentCustomTags(t *testing.T) {
	cfg := config.Default().Tokenizer
	cfg.DocTag = "<REC>"
	cfg.KeyTag = "<ID>"
	input := "<REC><ID>x1</ID> alpha </REC><REC><ID>x2</ID> beta </REC>"
	got, found := FindDocument([]byte(input), cfg, "x2")
	if !found || string(got) != "<REC><ID>x2</ID> beta </REC>" {
		t.Errorf("got %q, %v", got, found)
	}
}
