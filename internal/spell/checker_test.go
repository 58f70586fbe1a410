package spell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/edgespell/spellbridge/internal/spell/spelltest"
	"github.com/edgespell/spellbridge/pkg/suggest"
)

func newTestChecker(t *testing.T, guest Guest) *Checker {
	t.Helper()

	c, err := New(context.Background(), guest, nil, nil, Options{
		MaxDictionaryEditDistance: 2,
		CountThreshold:            1,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func ingest(t *testing.T, c *Checker, text string, bigram bool) {
	t.Helper()

	if err := c.IngestChunk(context.Background(), []byte(text), bigram); err != nil {
		t.Fatalf("IngestChunk failed: %v", err)
	}
	if err := c.FinishDictionary(context.Background(), bigram); err != nil {
		t.Fatalf("FinishDictionary failed: %v", err)
	}
}

func TestLookupClosest(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)
	ingest(t, c, "hello 100\n", false)

	batch, err := c.Lookup(context.Background(), "helo", suggest.LookupOptions{
		Verbosity:       suggest.Closest,
		MaxEditDistance: 2,
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if batch.Len() != 1 {
		t.Fatalf("batch length = %d, want 1", batch.Len())
	}
	s := batch.At(0)
	if s.Term() != "hello" || s.Count() != 100 || s.Distance() != 1 {
		t.Errorf("suggestion = (%q, count %d, distance %d), want (\"hello\", 100, 1)",
			s.Term(), s.Count(), s.Distance())
	}
}

func TestLookupIncludeSelf(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)
	ingest(t, c, "hello 100\n", false)

	opts := suggest.LookupOptions{Verbosity: suggest.Closest, MaxEditDistance: 2}

	batch, err := c.Lookup(context.Background(), "hello", opts)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if batch.Len() != 0 {
		t.Errorf("without IncludeSelf: batch length = %d, want 0", batch.Len())
	}

	opts.IncludeSelf = true
	batch, err = c.Lookup(context.Background(), "hello", opts)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if batch.Len() != 1 || batch.At(0).Distance() != 0 {
		t.Errorf("with IncludeSelf: want one record at distance 0, got %d records", batch.Len())
	}
}

func TestLookupIncludeUnknown(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)
	ingest(t, c, "hello 100\n", false)

	opts := suggest.LookupOptions{Verbosity: suggest.Closest, MaxEditDistance: 1}

	batch, err := c.Lookup(context.Background(), "xqzw", opts)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if batch.Len() != 0 {
		t.Errorf("without IncludeUnknown: batch length = %d, want 0", batch.Len())
	}

	opts.IncludeUnknown = true
	batch, err = c.Lookup(context.Background(), "xqzw", opts)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if batch.Len() != 1 {
		t.Fatalf("with IncludeUnknown: batch length = %d, want 1", batch.Len())
	}
	s := batch.At(0)
	if s.Term() != "xqzw" {
		t.Errorf("echo term = %q, want input", s.Term())
	}
	if s.Distance() != suggest.UnmatchedDistance(opts.MaxEditDistance) {
		t.Errorf("echo distance = %d, want sentinel %d",
			s.Distance(), suggest.UnmatchedDistance(opts.MaxEditDistance))
	}
}

func TestIngestSplitAcrossChunks(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)

	// An entry split mid-word across chunks, with no trailing newline in
	// the source; only the terminator flushes it.
	for _, chunk := range []string{"wor", "ld 4", "2"} {
		if err := c.IngestChunk(context.Background(), []byte(chunk), false); err != nil {
			t.Fatalf("IngestChunk failed: %v", err)
		}
	}
	if guest.Dict()["world"] != 0 {
		t.Fatal("entry committed before stream termination")
	}
	if err := c.FinishDictionary(context.Background(), false); err != nil {
		t.Fatalf("FinishDictionary failed: %v", err)
	}
	if guest.Dict()["world"] != 42 {
		t.Fatalf("dictionary = %v, want world=42", guest.Dict())
	}
}

func TestIngestReaderStreamsAndTerminates(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c, err := New(context.Background(), guest, nil, nil, Options{
		MaxDictionaryEditDistance: 2,
		CountThreshold:            1,
		ChunkSize:                 8, // force many small chunks
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	src := "hello 100\nworld 50\ntrailing 7" // no final newline
	if err := c.IngestReader(context.Background(), strings.NewReader(src), false); err != nil {
		t.Fatalf("IngestReader failed: %v", err)
	}

	want := map[string]uint32{"hello": 100, "world": 50, "trailing": 7}
	for term, count := range want {
		if guest.Dict()[term] != count {
			t.Errorf("dict[%q] = %d, want %d", term, guest.Dict()[term], count)
		}
	}
}

func TestIngestSurvivesMemoryGrowth(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	guest.GrowAfter = 16 // relocate mid-stream
	c := newTestChecker(t, guest)

	src := "alpha 1\nbravo 2\ncharlie 3\ndelta 4\n"
	if err := c.IngestReader(context.Background(), strings.NewReader(src), false); err != nil {
		t.Fatalf("IngestReader failed: %v", err)
	}

	batch, err := c.Lookup(context.Background(), "deltq", suggest.LookupOptions{
		Verbosity:       suggest.Closest,
		MaxEditDistance: 2,
	})
	if err != nil {
		t.Fatalf("Lookup after growth failed: %v", err)
	}
	if batch.Len() != 1 || batch.At(0).Term() != "delta" {
		t.Errorf("lookup after relocation returned %v", batch.Terms())
	}
}

func TestLookupCompound(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)
	ingest(t, c, "hello 100\nworld 80\n", false)
	ingest(t, c, "hello world 25\n", true)

	batch, err := c.LookupCompound(context.Background(), "helo wrld", 2)
	if err != nil {
		t.Fatalf("LookupCompound failed: %v", err)
	}
	if batch.Len() != 1 {
		t.Fatalf("batch length = %d, want 1", batch.Len())
	}
	if got := batch.At(0).Term(); got != "hello world" {
		t.Errorf("compound suggestion = %q, want %q", got, "hello world")
	}
}

func TestLookupRawReturnsIndependentBuffer(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)
	ingest(t, c, "hello 100\n", false)

	opts := suggest.LookupOptions{Verbosity: suggest.Closest, MaxEditDistance: 2}
	raw, err := c.LookupRaw(context.Background(), "helo", opts)
	if err != nil {
		t.Fatalf("LookupRaw failed: %v", err)
	}

	// A second lookup reuses guest memory; the first buffer must not move.
	before := append([]byte(nil), raw...)
	if _, err := c.LookupRaw(context.Background(), "helo", opts); err != nil {
		t.Fatalf("second LookupRaw failed: %v", err)
	}
	for i := range raw {
		if raw[i] != before[i] {
			t.Fatal("raw buffer aliased guest memory across calls")
		}
	}
}

func TestInitFailureIsTerminal(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	guest.InitErr = errors.New("boom")

	_, err := New(context.Background(), guest, nil, nil, Options{}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("New succeeded, want initialization error")
	}
}

func TestOperationsAfterClose(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := c.Lookup(context.Background(), "x", suggest.LookupOptions{MaxEditDistance: 1})
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StateError: %v", err, err)
	}
}

func TestMissingCallbackIsProtocolError(t *testing.T) {
	guest := spelltest.NewFakeGuest()
	c := newTestChecker(t, guest)
	ingest(t, c, "hello 100\n", false)

	guest.NoCallback = true
	_, err := c.Lookup(context.Background(), "helo", suggest.LookupOptions{
		Verbosity:       suggest.Closest,
		MaxEditDistance: 2,
	})
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want *ProtocolError: %v", err, err)
	}
}
