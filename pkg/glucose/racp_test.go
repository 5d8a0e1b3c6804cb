package glucose

import (
	"testing"

	"github.com/srg/glucoble/pkg/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeControlPoint(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected ControlPoint
		text     string
	}{
		{
			name:     "request without operand",
			data:     []byte{0x01, 0x01},
			expected: ControlPoint{OpCode: OpReportStoredRecords, Operator: OperatorAllRecords, Operand: []byte{}},
			text:     "OpCode: 1 (Report Stored Records), Operator: 1 (All Records), Operand: 0x",
		},
		{
			name:     "response code keeps the last operand byte",
			data:     []byte{0x06, 0x00, 0x01, 0x01},
			expected: ControlPoint{OpCode: OpResponseCode, Operator: OperatorNull, Operand: []byte{0x01, 0x01}},
			text:     "OpCode: 6 (Response Code), Operator: 0 (Null), Operand: 0x0101, Response: Report Stored Records -> Success",
		},
		{
			name:     "number of records",
			data:     []byte{0x05, 0x00, 0x2A, 0x01},
			expected: ControlPoint{OpCode: OpNumberOfRecordsResponse, Operator: OperatorNull, Operand: []byte{0x2A, 0x01}},
			text:     "OpCode: 5 (Number of Stored Records Response), Operator: 0 (Null), Operand: 0x2A01, Records: 298",
		},
		{
			name:     "unknown opcode",
			data:     []byte{0x7F, 0x09, 0xAB},
			expected: ControlPoint{OpCode: 0x7F, Operator: 0x09, Operand: []byte{0xAB}},
			text:     "OpCode: 127 (Reserved(127)), Operator: 9 (Reserved(9)), Operand: 0xAB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DecodeControlPoint(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.text, result.String())
		})
	}
}

func TestDecodeControlPoint_TooShort(t *testing.T) {
	_, err := DecodeControlPoint([]byte{0x01})
	assert.ErrorIs(t, err, gatt.ErrOutOfBounds)
}

func TestControlPoint_Interpretation(t *testing.T) {
	cp, err := DecodeControlPoint([]byte{0x06, 0x00, 0x01, 0x06})
	require.NoError(t, err)

	req, code, ok := cp.ResponseCode()
	require.True(t, ok)
	assert.Equal(t, OpReportStoredRecords, req)
	assert.Equal(t, ResponseNoRecordsFound, code)

	_, ok = cp.NumberOfRecords()
	assert.False(t, ok)
}

func TestReportAllStoredRecords(t *testing.T) {
	cmd := ReportAllStoredRecords()
	assert.Equal(t, []byte{0x01, 0x01}, cmd.Bytes())
	assert.Equal(t, "0101", cmd.String())

	cp, err := DecodeControlPoint(cmd.Bytes())
	require.NoError(t, err)
	assert.Equal(t, OpReportStoredRecords, cp.OpCode)
	assert.Equal(t, OperatorAllRecords, cp.Operator)
}
