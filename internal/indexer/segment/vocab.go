package segment

import (
	"errors"
	"fmt"
	"os"

	"github.com/searchlab/jassjr/internal/indexer/tokenizer"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
)

// vocabOverhead is the fixed part of a vocabulary record: length byte,
// terminator, offset and size.
const vocabOverhead = 1 + 1 + 2*IntSize

// VocabEntry locates a term's postings run inside the postings file.
type VocabEntry struct {
	Offset int32
	Size   int32
}

// DocFreq is the number of postings in the run.
func (e VocabEntry) DocFreq() int { return int(e.Size) / PostingSize }

// Vocabulary maps terms to their postings runs.
type Vocabulary map[string]VocabEntry

// AppendVocabRecord encodes one vocabulary record.
func AppendVocabRecord(dst []byte, term string, e VocabEntry) ([]byte, error) {
	if len(term) > tokenizer.MaxTermLength {
		return dst, fmt.Errorf("term of %d bytes exceeds %d", len(term), tokenizer.MaxTermLength)
	}
	dst = append(dst, byte(len(term)))
	dst = append(dst, term...)
	dst = append(dst, 0)
	dst = AppendInt32(dst, e.Offset)
	dst = AppendInt32(dst, e.Size)
	return dst, nil
}

// DecodeVocabulary decodes a whole vocabulary file. The buffer must end
// exactly on a record boundary.
func DecodeVocabulary(buf []byte) (Vocabulary, error) {
	vocab := make(Vocabulary)
	for off := 0; off < len(buf); {
		termLen := int(buf[off])
		if off+termLen+vocabOverhead > len(buf) {
			return nil, apperrors.Corruptf("vocabulary truncated in record at offset %d", off)
		}
		start := off + 1
		term := string(buf[start : start+termLen])
		off = start + termLen
		if buf[off] != 0 {
			return nil, apperrors.Corruptf("vocabulary record at offset %d lacks its terminator", start-1)
		}
		off++
		e := VocabEntry{
			Offset: Int32At(buf, off),
			Size:   Int32At(buf, off+IntSize),
		}
		off += 2 * IntSize
		if e.Offset < 0 || e.Size <= 0 || e.Size%PostingSize != 0 {
			return nil, apperrors.Corruptf("term %q has invalid postings run (offset %d, size %d)", term, e.Offset, e.Size)
		}
		if _, dup := vocab[term]; dup {
			return nil, apperrors.Corruptf("term %q appears twice in the vocabulary", term)
		}
		vocab[term] = e
	}
	return vocab, nil
}

// LoadVocabulary reads and decodes a vocabulary file.
func LoadVocabulary(path string) (Vocabulary, error) {
	buf, err := readIndexFile(path)
	if err != nil {
		return nil, err
	}
	vocab, err := DecodeVocabulary(buf)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return vocab, nil
}

func readIndexFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitNotFound, "%s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return buf, nil
}
