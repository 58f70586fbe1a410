// Package spelltest provides an in-process stand-in for the spell-check
// guest module. It honors the same entry-point contract as the real Wasm
// build: input staged at offset 0, results handed back through a synchronous
// callback in the guest's wire format. Distances come from a real edit
// distance so end-to-end assertions are meaningful.
package spelltest

import (
	"context"
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/edgespell/spellbridge/internal/memory"
)

// FakeMemory is a relocatable linear memory under test control.
type FakeMemory struct {
	data []byte
	gen  uint64
}

// NewFakeMemory creates a memory of the given size.
func NewFakeMemory(size int) *FakeMemory {
	return &FakeMemory{data: make([]byte, size), gen: 1}
}

// Grow relocates the region, bumping the identity token.
func (m *FakeMemory) Grow(newSize int) {
	data := make([]byte, newSize)
	copy(data, m.data)
	m.data = data
	m.gen++
}

func (m *FakeMemory) Size() uint32       { return uint32(len(m.data)) }
func (m *FakeMemory) Generation() uint64 { return m.gen }

func (m *FakeMemory) Read(offset, length uint32) ([]byte, bool) {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset : offset+length], true
}

func (m *FakeMemory) ReadCopy(offset, length uint32) ([]byte, bool) {
	view, ok := m.Read(offset, length)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, true
}

func (m *FakeMemory) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return false
	}
	copy(m.data[offset:], data)
	return true
}

// resultOffset is where the fake stages result payloads, clear of the
// transfer window at offset 0.
const resultOffset = 4096

// FakeGuest implements the guest entry-point surface in process.
type FakeGuest struct {
	Mem *FakeMemory

	// GrowAfter, when positive, relocates memory once that many dictionary
	// bytes have been ingested, mimicking guest-side growth mid-stream.
	GrowAfter int

	// NoCallback suppresses the result callback, violating the contract.
	NoCallback bool

	// InitErr, when set, is returned from Initialize.
	InitErr error

	handler   func(offset, length uint32)
	maxEdit   uint32
	threshold uint32

	dict    map[string]uint32
	bigrams map[string]uint32
	pending [2][]byte // partial-line buffers: [0] primary, [1] bigram

	ingested int
	grown    bool
}

// NewFakeGuest creates a fake with a 64KB memory.
func NewFakeGuest() *FakeGuest {
	return &FakeGuest{
		Mem:     NewFakeMemory(64 * 1024),
		dict:    make(map[string]uint32),
		bigrams: make(map[string]uint32),
	}
}

// Memory returns the fake's linear memory.
func (g *FakeGuest) Memory() memory.GuestMemory {
	return g.Mem
}

// SetResultHandler arms the callback.
func (g *FakeGuest) SetResultHandler(h func(offset, length uint32)) {
	g.handler = h
}

// Initialize records the module configuration.
func (g *FakeGuest) Initialize(_ context.Context, maxDictionaryEditDistance, countThreshold uint32) error {
	if g.InitErr != nil {
		return g.InitErr
	}
	g.maxEdit = maxDictionaryEditDistance
	g.threshold = countThreshold
	return nil
}

// Dict exposes the ingested primary dictionary for assertions.
func (g *FakeGuest) Dict() map[string]uint32 {
	return g.dict
}

// WriteToDictionary consumes staged bytes [offset, offset+length), buffering
// partial lines exactly like the real guest: only newline-terminated entries
// are committed.
func (g *FakeGuest) WriteToDictionary(_ context.Context, offset, length uint32, bigram bool) error {
	chunk, ok := g.Mem.Read(offset, length)
	if !ok {
		return errOOB
	}

	idx := 0
	if bigram {
		idx = 1
	}
	g.pending[idx] = append(g.pending[idx], chunk...)

	buf := g.pending[idx]
	cursor := 0
	for i, ch := range buf {
		if ch != '\n' {
			continue
		}
		g.commitLine(string(buf[cursor:i]), bigram)
		cursor = i + 1
	}
	g.pending[idx] = append(g.pending[idx][:0], buf[cursor:]...)

	g.ingested += int(length)
	if g.GrowAfter > 0 && !g.grown && g.ingested >= g.GrowAfter {
		g.grown = true
		g.Mem.Grow(len(g.Mem.data) * 2)
	}
	return nil
}

func (g *FakeGuest) commitLine(line string, bigram bool) {
	fields := strings.Fields(line)
	if bigram {
		// bigram entries: "word1 word2 count"
		if len(fields) != 3 {
			return
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return
		}
		g.bigrams[fields[0]+" "+fields[1]] = uint32(count)
		return
	}
	if len(fields) != 2 {
		return
	}
	count, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return
	}
	g.dict[fields[0]] = uint32(count)
}

type item struct {
	term     string
	distance uint32
	count    uint32
}

// Lookup computes suggestions over the ingested dictionary and emits one
// result callback before returning, per the contract.
func (g *FakeGuest) Lookup(_ context.Context, offset, length uint32, verbosity uint8, maxEditDistance uint32, includeUnknown, includeSelf bool) error {
	input, ok := g.Mem.Read(offset, length)
	if !ok {
		return errOOB
	}
	word := string(input)

	var items []item
	for term, count := range g.dict {
		if count < g.threshold {
			continue
		}
		d := uint32(levenshtein.ComputeDistance(word, term))
		if d > maxEditDistance {
			continue
		}
		if d == 0 && !includeSelf {
			continue
		}
		items = append(items, item{term: term, distance: d, count: count})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].distance != items[j].distance {
			return items[i].distance < items[j].distance
		}
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].term < items[j].term
	})

	switch verbosity {
	case 0: // top
		if len(items) > 1 {
			items = items[:1]
		}
	case 1: // closest
		if len(items) > 0 {
			n := 0
			for _, it := range items {
				if it.distance != items[0].distance {
					break
				}
				n++
			}
			items = items[:n]
		}
	}

	if len(items) == 0 && includeUnknown {
		items = []item{{term: word, distance: maxEditDistance + 1, count: 0}}
	}

	g.emit(items)
	return nil
}

// LookupCompound corrects each whitespace-separated token and emits a single
// suggestion for the joined phrase.
func (g *FakeGuest) LookupCompound(_ context.Context, offset, length, maxEditDistance uint32) error {
	input, ok := g.Mem.Read(offset, length)
	if !ok {
		return errOOB
	}
	phrase := string(input)

	words := strings.Fields(phrase)
	corrected := make([]string, len(words))
	var minCount uint32
	for i, word := range words {
		corrected[i] = word
		best := maxEditDistance + 1
		var chosen uint32
		for term, count := range g.dict {
			if count < g.threshold {
				continue
			}
			d := uint32(levenshtein.ComputeDistance(word, term))
			if d > maxEditDistance {
				continue
			}
			if d < best || (d == best && count > chosen) {
				best = d
				chosen = count
				corrected[i] = term
			}
		}
		if chosen > 0 && (minCount == 0 || chosen < minCount) {
			minCount = chosen
		}
	}

	joined := strings.Join(corrected, " ")
	g.emit([]item{{
		term:     joined,
		distance: uint32(levenshtein.ComputeDistance(phrase, joined)),
		count:    minCount,
	}})
	return nil
}

// Close releases nothing; the fake holds no external resources.
func (g *FakeGuest) Close(context.Context) error {
	g.handler = nil
	return nil
}

// emit encodes items in the guest wire format (u32 term-length framing),
// stages the payload in memory, and invokes the callback synchronously.
func (g *FakeGuest) emit(items []item) {
	if g.NoCallback || g.handler == nil {
		return
	}

	payload := binary.LittleEndian.AppendUint32(nil, uint32(len(items)))
	for _, it := range items {
		rec := binary.LittleEndian.AppendUint32(nil, it.count)
		rec = binary.LittleEndian.AppendUint32(rec, it.distance)
		rec = binary.LittleEndian.AppendUint32(rec, uint32(len(it.term)))
		rec = append(rec, it.term...)

		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(rec)))
		payload = append(payload, rec...)
	}

	g.Mem.Write(resultOffset, payload)
	g.handler(resultOffset, uint32(len(payload)))
}

type oobError struct{}

func (oobError) Error() string { return "fake guest: read out of bounds" }

var errOOB = oobError{}
