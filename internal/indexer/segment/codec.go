// Package segment reads and writes the on-disk index: four files holding
// primary keys, document lengths, the vocabulary and the postings.
//
// Every integer is a 4-byte signed value in little-endian order. The order is
// part of the file format; it does not follow the host.
//
//	docids.bin    repeated: key bytes, '\n'                       (document id order)
//	lengths.bin   repeated: int32 length                          (document id order)
//	vocab.bin     repeated: uint8 L, L term bytes, 0x00, int32 offset, int32 size
//	postings.bin  repeated per term: (int32 docID, int32 frequency) pairs
package segment

import (
	"encoding/binary"

	"github.com/searchlab/jassjr/internal/indexer/index"
	apperrors "github.com/searchlab/jassjr/pkg/errors"
)

const (
	// IntSize is the width of every serialized integer.
	IntSize = 4
	// PostingSize is the width of one (docID, frequency) pair.
	PostingSize = 2 * IntSize
)

// ByteOrder is the byte order of all index files.
var ByteOrder = binary.LittleEndian

func AppendInt32(dst []byte, v int32) []byte {
	return ByteOrder.AppendUint32(dst, uint32(v))
}

// Int32At decodes the integer starting at off. The caller guarantees bounds.
func Int32At(b []byte, off int) int32 {
	return int32(ByteOrder.Uint32(b[off:]))
}

// AppendPostings encodes a postings run.
func AppendPostings(dst []byte, postings index.PostingList) []byte {
	for _, p := range postings {
		dst = AppendInt32(dst, p.DocID)
		dst = AppendInt32(dst, p.Frequency)
	}
	return dst
}

// DecodePostings decodes a postings run. docCount bounds the document ids;
// ids must be strictly increasing.
func DecodePostings(b []byte, docCount int) (index.PostingList, error) {
	if len(b)%PostingSize != 0 {
		return nil, apperrors.Corruptf("postings run of %d bytes is not a multiple of %d", len(b), PostingSize)
	}
	postings := make(index.PostingList, len(b)/PostingSize)
	prev := int32(-1)
	for i := range postings {
		d := Int32At(b, i*PostingSize)
		tf := Int32At(b, i*PostingSize+IntSize)
		if d <= prev || int(d) >= docCount {
			return nil, apperrors.Corruptf("posting %d has document id %d (previous %d, collection size %d)", i, d, prev, docCount)
		}
		if tf <= 0 {
			return nil, apperrors.Corruptf("posting %d has term frequency %d", i, tf)
		}
		postings[i] = index.Posting{DocID: d, Frequency: tf}
		prev = d
	}
	return postings, nil
}

func AppendLengths(dst []byte, lengths []int32) []byte {
	for _, l := range lengths {
		dst = AppendInt32(dst, l)
	}
	return dst
}

func DecodeLengths(b []byte) ([]int32, error) {
	if len(b)%IntSize != 0 {
		return nil, apperrors.Corruptf("lengths file of %d bytes is not a multiple of %d", len(b), IntSize)
	}
	lengths := make([]int32, len(b)/IntSize)
	for i := range lengths {
		lengths[i] = Int32At(b, i*IntSize)
		if lengths[i] < 0 {
			return nil, apperrors.Corruptf("document %d has negative length %d", i, lengths[i])
		}
	}
	return lengths, nil
}
