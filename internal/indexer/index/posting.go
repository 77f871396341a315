package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     int32
	Frequency int32
}

// PostingList holds postings in strictly increasing DocID order.
type PostingList []Posting

// Tail returns the most recently appended posting, or nil for an empty list.
func (l PostingList) Tail() *Posting {
	if len(l) == 0 {
		return nil
	}
	return &l[len(l)-1]
}

// DocFreq is the number of documents containing the term.
func (l PostingList) DocFreq() int { return len(l) }

type TermEntry struct {
	Term     string
	Postings PostingList
}

// Collection is everything the index builder produces for one corpus.
// PrimaryKeys and Lengths are indexed by document id.
type Collection struct {
	PrimaryKeys []string
	Lengths     []int32
	Terms       []TermEntry
}

func (c *Collection) DocCount() int { return len(c.Lengths) }
