package glucose

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/srg/glucoble/pkg/gatt"
)

// OpCode is the first byte of a Record Access Control Point (0x2A52) value
type OpCode uint8

const (
	OpReportStoredRecords     OpCode = 0x01
	OpDeleteStoredRecords     OpCode = 0x02
	OpAbortOperation          OpCode = 0x03
	OpReportNumberOfRecords   OpCode = 0x04
	OpNumberOfRecordsResponse OpCode = 0x05
	OpResponseCode            OpCode = 0x06
)

var opCodeNames = map[OpCode]string{
	OpReportStoredRecords:     "Report Stored Records",
	OpDeleteStoredRecords:     "Delete Stored Records",
	OpAbortOperation:          "Abort Operation",
	OpReportNumberOfRecords:   "Report Number of Stored Records",
	OpNumberOfRecordsResponse: "Number of Stored Records Response",
	OpResponseCode:            "Response Code",
}

func (o OpCode) String() string { return lookupName(opCodeNames, o) }

func (o OpCode) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Operator is the second byte of a Record Access Control Point value
type Operator uint8

const (
	OperatorNull           Operator = 0x00
	OperatorAllRecords     Operator = 0x01
	OperatorLessOrEqual    Operator = 0x02
	OperatorGreaterOrEqual Operator = 0x03
	OperatorWithinRange    Operator = 0x04
	OperatorFirstRecord    Operator = 0x05
	OperatorLastRecord     Operator = 0x06
)

var operatorNames = map[Operator]string{
	OperatorNull:           "Null",
	OperatorAllRecords:     "All Records",
	OperatorLessOrEqual:    "Less Than or Equal To",
	OperatorGreaterOrEqual: "Greater Than or Equal To",
	OperatorWithinRange:    "Within Range Of",
	OperatorFirstRecord:    "First Record",
	OperatorLastRecord:     "Last Record",
}

func (o Operator) String() string { return lookupName(operatorNames, o) }

func (o Operator) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ResponseCode is the status carried by an OpResponseCode indication
type ResponseCode uint8

const (
	ResponseSuccess               ResponseCode = 0x01
	ResponseOpCodeNotSupported    ResponseCode = 0x02
	ResponseInvalidOperator       ResponseCode = 0x03
	ResponseOperatorNotSupported  ResponseCode = 0x04
	ResponseInvalidOperand        ResponseCode = 0x05
	ResponseNoRecordsFound        ResponseCode = 0x06
	ResponseAbortUnsuccessful     ResponseCode = 0x07
	ResponseProcedureNotCompleted ResponseCode = 0x08
	ResponseOperandNotSupported   ResponseCode = 0x09
)

var responseCodeNames = map[ResponseCode]string{
	ResponseSuccess:               "Success",
	ResponseOpCodeNotSupported:    "Op Code Not Supported",
	ResponseInvalidOperator:       "Invalid Operator",
	ResponseOperatorNotSupported:  "Operator Not Supported",
	ResponseInvalidOperand:        "Invalid Operand",
	ResponseNoRecordsFound:        "No Records Found",
	ResponseAbortUnsuccessful:     "Abort Unsuccessful",
	ResponseProcedureNotCompleted: "Procedure Not Completed",
	ResponseOperandNotSupported:   "Operand Not Supported",
}

func (r ResponseCode) String() string { return lookupName(responseCodeNames, r) }

func (r ResponseCode) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ControlPoint is a decoded Record Access Control Point value.
// Operand holds every byte after the operator, uninterpreted.
type ControlPoint struct {
	OpCode   OpCode        `json:"op_code"`
	Operator Operator      `json:"operator"`
	Operand  gatt.HexBytes `json:"operand"`
}

// DecodeControlPoint decodes a Record Access Control Point value
func DecodeControlPoint(data []byte) (ControlPoint, error) {
	if len(data) < 2 {
		return ControlPoint{}, fmt.Errorf("%w: record access control point needs at least 2 bytes, got %d",
			gatt.ErrOutOfBounds, len(data))
	}
	c := gatt.NewCursor(data)
	op, _ := c.ReadU8()
	operator, _ := c.ReadU8()
	return ControlPoint{
		OpCode:   OpCode(op),
		Operator: Operator(operator),
		Operand:  c.Rest(),
	}, nil
}

// ResponseCode interprets an OpResponseCode indication: the operand is the
// request op code followed by the response code.
func (cp ControlPoint) ResponseCode() (request OpCode, code ResponseCode, ok bool) {
	if cp.OpCode != OpResponseCode || len(cp.Operand) < 2 {
		return 0, 0, false
	}
	return OpCode(cp.Operand[0]), ResponseCode(cp.Operand[1]), true
}

// NumberOfRecords interprets an OpNumberOfRecordsResponse indication
func (cp ControlPoint) NumberOfRecords() (uint16, bool) {
	if cp.OpCode != OpNumberOfRecordsResponse || len(cp.Operand) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(cp.Operand), true
}

func (cp ControlPoint) String() string {
	parts := []string{
		fmt.Sprintf("OpCode: %d (%s)", uint8(cp.OpCode), cp.OpCode),
		fmt.Sprintf("Operator: %d (%s)", uint8(cp.Operator), cp.Operator),
		"Operand: 0x" + cp.Operand.String(),
	}
	if req, code, ok := cp.ResponseCode(); ok {
		parts = append(parts, fmt.Sprintf("Response: %s -> %s", req, code))
	}
	if n, ok := cp.NumberOfRecords(); ok {
		parts = append(parts, fmt.Sprintf("Records: %d", n))
	}
	return strings.Join(parts, ", ")
}

// Command is an outbound Record Access Control Point request
type Command [2]byte

// ReportAllStoredRecords returns the request that makes the meter send every stored record
func ReportAllStoredRecords() Command {
	return Command{byte(OpReportStoredRecords), byte(OperatorAllRecords)}
}

// Bytes returns the wire encoding of cmd
func (cmd Command) Bytes() []byte {
	return []byte{cmd[0], cmd[1]}
}

func (cmd Command) String() string {
	return strings.ToUpper(hex.EncodeToString(cmd[:]))
}
