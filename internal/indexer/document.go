package indexer

import (
	"bytes"

	"github.com/searchlab/jassjr/pkg/config"
)

// FindDocument returns the raw text of the first document whose key section
// contains key, from the document-start tag through its closing tag. A
// document that is never closed is not returned.
func FindDocument(collection []byte, cfg config.TokenizerConfig, key string) ([]byte, bool) {
	docOpen, docClose := []byte(cfg.DocTag), closingTag(cfg.DocTag)
	keyOpen, keyClose := []byte(cfg.KeyTag), closingTag(cfg.KeyTag)
	needle := []byte(key)

	rest := collection
	for {
		start := bytes.Index(rest, docOpen)
		if start < 0 {
			return nil, false
		}
		rest = rest[start:]
		end := bytes.Index(rest, docClose)
		if end < 0 {
			return nil, false
		}
		doc := rest[:end+len(docClose)]
		// a start tag repeated before the close restarts the document
		if last := bytes.LastIndex(doc[:end], docOpen); last > 0 {
			doc = doc[last:]
		}
		if keySectionContains(doc, keyOpen, keyClose, needle) {
			return doc, true
		}
		rest = rest[end+len(docClose):]
	}
}

func keySectionContains(doc, open, close, needle []byte) bool {
	for {
		i := bytes.Index(doc, open)
		if i < 0 {
			return false
		}
		doc = doc[i+len(open):]
		section := doc
		if j := bytes.Index(doc, close); j >= 0 {
			section = doc[:j]
			doc = doc[j+len(close):]
		} else {
			doc = nil
		}
		if bytes.Contains(section, needle) {
			return true
		}
	}
}

// closingTag turns "<DOC>" into "</DOC>".
func closingTag(tag string) []byte {
	if len(tag) < 2 || tag[0] != '<' {
		return []byte(tag)
	}
	return []byte("</" + tag[1:])
}
