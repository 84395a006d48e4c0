package records

import (
	"bufio"
	"crypto/rand"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/tagger/pkg/tagger/ingest"
	"github.com/cognicore/tagger/pkg/tagger/store"
	"github.com/cognicore/tagger/pkg/tagger/vocab"
	"github.com/oklog/ulid/v2"
)

// Record is one output annotation line.
type Record struct {
	DocID  string
	Region string
	Start  int
	End    int
	Score  float64
	Text   string
	Type   string
}

// String renders the record as a tab-separated line without the newline:
// doc, region, start, end, score, text, type and the constant flag 1.
func (r Record) String() string {
	var b strings.Builder
	b.Grow(len(r.DocID) + len(r.Region) + len(r.Text) + len(r.Type) + 32)
	b.WriteString(r.DocID)
	b.WriteByte('\t')
	b.WriteString(r.Region)
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.Start))
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.End))
	b.WriteByte('\t')
	b.WriteString(FormatScore(r.Score))
	b.WriteByte('\t')
	b.WriteString(r.Text)
	b.WriteByte('\t')
	b.WriteString(r.Type)
	b.WriteString("\t1")
	return b.String()
}

// FormatScore rounds to six decimal places and prints the shortest decimal
// that reads back to the rounded value. Whole numbers keep one fractional
// digit: 0.59757, 0.5, 1.0.
func FormatScore(score float64) string {
	rounded := math.Round(score*1e6) / 1e6
	if rounded == 0 {
		rounded = 0 // drop the sign of -0
	}
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Write prints one line per record. An empty slice writes nothing at all.
func Write(w io.Writer, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	for _, r := range recs {
		if _, err := bw.WriteString(r.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Builder turns match candidates into records and groups them into runs.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new record builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Build maps candidates to records in the order given.
func (b *Builder) Build(docID, region string, cands []ingest.Candidate) []Record {
	if len(cands) == 0 {
		return nil
	}
	out := make([]Record, len(cands))
	for i, c := range cands {
		typ := c.Type
		if typ == "" {
			typ = vocab.UnknownType
		}
		out[i] = Record{
			DocID:  docID,
			Region: region,
			Start:  c.Start,
			End:    c.End,
			Score:  c.Score,
			Text:   c.Text,
			Type:   typ,
		}
	}
	return out
}

// Run is a batch of records sharing a sortable ID.
type Run struct {
	ID        string
	CreatedAt time.Time
	Records   []Record
}

// NewRun stamps records with a fresh ULID.
func (b *Builder) NewRun(recs []Record) Run {
	now := time.Now()

	b.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.mu.Unlock()

	return Run{ID: id, CreatedAt: now, Records: recs}
}

// ToStore converts a run for persistence.
func (r Run) ToStore() store.Run {
	anns := make([]store.Annotation, len(r.Records))
	for i, rec := range r.Records {
		anns[i] = store.Annotation{
			DocID:  rec.DocID,
			Region: rec.Region,
			Start:  rec.Start,
			End:    rec.End,
			Score:  rec.Score,
			Text:   rec.Text,
			Type:   rec.Type,
		}
	}
	return store.Run{ID: r.ID, CreatedAt: r.CreatedAt, Annotations: anns}
}

// FromStore converts a persisted run back into records.
func FromStore(sr store.Run) Run {
	recs := make([]Record, len(sr.Annotations))
	for i, a := range sr.Annotations {
		recs[i] = Record{
			DocID:  a.DocID,
			Region: a.Region,
			Start:  a.Start,
			End:    a.End,
			Score:  a.Score,
			Text:   a.Text,
			Type:   a.Type,
		}
	}
	return Run{ID: sr.ID, CreatedAt: sr.CreatedAt, Records: recs}
}
