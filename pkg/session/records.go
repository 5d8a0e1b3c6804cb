package session

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/cornelk/hashmap"

	"github.com/srg/glucoble/pkg/glucose"
)

// Record pairs a measurement with the context notification sharing its sequence number
type Record struct {
	SequenceNumber uint16                      `json:"sequence_number"`
	Measurement    *glucose.Measurement        `json:"measurement,omitempty"`
	Context        *glucose.MeasurementContext `json:"context,omitempty"`
}

// Complete reports whether the measurement arrived and, when it announced a
// context, the context arrived too.
func (r Record) Complete() bool {
	if r.Measurement == nil {
		return false
	}
	return !r.Measurement.ContextFollows || r.Context != nil
}

func (r Record) String() string {
	switch {
	case r.Measurement == nil:
		return fmt.Sprintf("SequenceNumber[%d] Context[%s] (no measurement)", r.SequenceNumber, r.Context)
	case r.Context == nil:
		return r.Measurement.String()
	default:
		return fmt.Sprintf("%s Context[%s]", r.Measurement, r.Context)
	}
}

// Gap is an inclusive range of sequence numbers that never arrived
type Gap struct {
	From uint16 `json:"from"`
	To   uint16 `json:"to"`
}

func (g Gap) String() string {
	if g.From == g.To {
		return fmt.Sprintf("%d", g.From)
	}
	return fmt.Sprintf("%d-%d", g.From, g.To)
}

// RecordStore collects records of one device keyed by sequence number.
//
// Writes are expected from a single goroutine (the session decode loop);
// reads are safe from any goroutine.
type RecordStore struct {
	records *hashmap.Map[uint16, Record]
	lowest  atomic.Int32
	highest atomic.Int32
}

// NewRecordStore creates an empty store
func NewRecordStore() *RecordStore {
	s := &RecordStore{records: hashmap.New[uint16, Record]()}
	s.lowest.Store(-1)
	s.highest.Store(-1)
	return s
}

// AddMeasurement stores m and returns the sequence numbers skipped since the
// previous highest one, if any.
func (s *RecordStore) AddMeasurement(m glucose.Measurement) (Record, *Gap) {
	gap := s.track(m.SequenceNumber)
	rec := s.update(m.SequenceNumber, func(r *Record) { r.Measurement = &m })
	return rec, gap
}

// AddContext stores mc next to the measurement with the same sequence number
func (s *RecordStore) AddContext(mc glucose.MeasurementContext) Record {
	return s.update(mc.SequenceNumber, func(r *Record) { r.Context = &mc })
}

func (s *RecordStore) update(seq uint16, fn func(*Record)) Record {
	rec, ok := s.records.Get(seq)
	if !ok {
		rec = Record{SequenceNumber: seq}
	}
	fn(&rec)
	s.records.Set(seq, rec)
	return rec
}

// track updates the seen range and returns the hole opened by seq, if any.
// Sequence numbers at or below the highest one never open a gap.
func (s *RecordStore) track(seq uint16) *Gap {
	n := int32(seq)
	if low := s.lowest.Load(); low < 0 || n < low {
		s.lowest.Store(n)
	}

	high := s.highest.Load()
	if n <= high {
		return nil
	}
	s.highest.Store(n)
	if high < 0 || n == high+1 {
		return nil
	}
	return &Gap{From: uint16(high + 1), To: seq - 1}
}

// Get returns the record stored under seq
func (s *RecordStore) Get(seq uint16) (Record, bool) {
	return s.records.Get(seq)
}

// Len returns the number of stored sequence numbers
func (s *RecordStore) Len() int {
	return s.records.Len()
}

// Highest returns the highest measurement sequence number seen
func (s *RecordStore) Highest() (uint16, bool) {
	h := s.highest.Load()
	return uint16(h), h >= 0
}

// Records returns all stored records ordered by sequence number
func (s *RecordStore) Records() []Record {
	out := make([]Record, 0, s.records.Len())
	s.records.Range(func(_ uint16, r Record) bool {
		out = append(out, r)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out
}

// Missing returns the ranges between the lowest and highest sequence numbers
// for which no measurement was stored.
func (s *RecordStore) Missing() []Gap {
	low, high := s.lowest.Load(), s.highest.Load()
	if low < 0 {
		return nil
	}

	var gaps []Gap
	start := int32(-1)
	for n := low; n <= high; n++ {
		rec, ok := s.records.Get(uint16(n))
		present := ok && rec.Measurement != nil
		switch {
		case !present && start < 0:
			start = n
		case present && start >= 0:
			gaps = append(gaps, Gap{From: uint16(start), To: uint16(n - 1)})
			start = -1
		}
	}
	return gaps
}

// Incomplete returns records still waiting for a measurement or its announced context
func (s *RecordStore) Incomplete() []Record {
	var out []Record
	for _, r := range s.Records() {
		if !r.Complete() {
			out = append(out, r)
		}
	}
	return out
}
