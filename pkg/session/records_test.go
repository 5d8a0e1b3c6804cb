package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/glucoble/pkg/glucose"
)

func measurement(seq uint16, contextFollows bool) glucose.Measurement {
	return glucose.Measurement{SequenceNumber: seq, ContextFollows: contextFollows}
}

func TestRecordStore_Pairing(t *testing.T) {
	store := NewRecordStore()

	rec, gap := store.AddMeasurement(measurement(1, true))
	assert.Nil(t, gap)
	assert.False(t, rec.Complete(), "context announced but not received")

	rec = store.AddContext(glucose.MeasurementContext{SequenceNumber: 1})
	assert.True(t, rec.Complete())
	require.NotNil(t, rec.Measurement)
	assert.Equal(t, uint16(1), rec.Measurement.SequenceNumber)

	stored, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, rec, stored)
}

func TestRecordStore_ContextBeforeMeasurement(t *testing.T) {
	store := NewRecordStore()

	rec := store.AddContext(glucose.MeasurementContext{SequenceNumber: 7})
	assert.False(t, rec.Complete())
	assert.Len(t, store.Incomplete(), 1)

	_, ok := store.Highest()
	assert.False(t, ok, "contexts do not move the sequence window")

	rec, _ = store.AddMeasurement(measurement(7, true))
	assert.True(t, rec.Complete())
	assert.Empty(t, store.Incomplete())
}

func TestRecordStore_Gaps(t *testing.T) {
	tests := []struct {
		name    string
		seqs    []uint16
		gaps    []*Gap
		missing []Gap
	}{
		{
			name:    "contiguous",
			seqs:    []uint16{1, 2, 3},
			gaps:    []*Gap{nil, nil, nil},
			missing: nil,
		},
		{
			name:    "single hole",
			seqs:    []uint16{1, 3},
			gaps:    []*Gap{nil, {From: 2, To: 2}},
			missing: []Gap{{From: 2, To: 2}},
		},
		{
			name:    "late arrival fills hole",
			seqs:    []uint16{10, 14, 12},
			gaps:    []*Gap{nil, {From: 11, To: 13}, nil},
			missing: []Gap{{From: 11, To: 11}, {From: 13, To: 13}},
		},
		{
			name:    "duplicate",
			seqs:    []uint16{5, 5},
			gaps:    []*Gap{nil, nil},
			missing: nil,
		},
		{
			name:    "top of range",
			seqs:    []uint16{65533, 65535},
			gaps:    []*Gap{nil, {From: 65534, To: 65534}},
			missing: []Gap{{From: 65534, To: 65534}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewRecordStore()
			for i, seq := range tt.seqs {
				_, gap := store.AddMeasurement(measurement(seq, false))
				assert.Equal(t, tt.gaps[i], gap, "sequence %d", seq)
			}
			assert.Equal(t, tt.missing, store.Missing())
		})
	}
}

func TestRecordStore_RecordsSorted(t *testing.T) {
	store := NewRecordStore()
	for _, seq := range []uint16{9, 2, 5} {
		store.AddMeasurement(measurement(seq, false))
	}

	var seqs []uint16
	for _, r := range store.Records() {
		seqs = append(seqs, r.SequenceNumber)
	}
	assert.Equal(t, []uint16{2, 5, 9}, seqs)
	assert.Equal(t, 3, store.Len())
}

func TestRecordStore_Empty(t *testing.T) {
	store := NewRecordStore()
	assert.Nil(t, store.Missing())
	assert.Empty(t, store.Records())
	_, ok := store.Get(0)
	assert.False(t, ok)
}

func TestGap_String(t *testing.T) {
	assert.Equal(t, "4", Gap{From: 4, To: 4}.String())
	assert.Equal(t, "4-9", Gap{From: 4, To: 9}.String())
}
