// Package net implements the wire-level boundary between external
// collaborators and the core (spec §1 "Out of scope: the HTTP/WebSocket
// boundary..."). The binary framing for NewOrder/CancelOrder/Heartbeat is
// adapted directly from the teacher's internal/net/messages.go, generalized
// from float64 prices to int64 ticks (spec §4.4).
package net

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/saiputravu/lobex/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for specified field length")
)

// MessageType tags the inbound message kinds carried on the wire.
type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	LogBook
	Query
)

// ReportMessageType tags the outbound message kinds.
type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	StatusReport
	ErrorReport
	QueryReport
)

func (r ReportMessageType) String() string {
	switch r {
	case ExecutionReport:
		return "execution"
	case StatusReport:
		return "status"
	case ErrorReport:
		return "error"
	case QueryReport:
		return "query"
	default:
		return "unknown"
	}
}

// Message is implemented by every parsed inbound message.
type Message interface {
	GetType() MessageType
}

// Message format constants. NewOrderMessageHeaderLen grows by 6 bytes
// relative to the teacher's float64 layout (2 extra for AssetType, matching
// the widened int64 Price field: 8 bytes, unchanged width, but now signed
// ticks rather than an IEEE-754 double).
const (
	BaseMessageHeaderLen        = 2
	NewOrderMessageHeaderLen    = 2 + 2 + 2 + 4 + 8 + 8 + 1 + 1 // msgtype+asset+type+ticker+price+qty+side+unamelen
	CancelOrderMessageHeaderLen = 2 + 4 + 36                    // type+symbol+orderID (uuid string form)
)

// BaseMessage carries the shared message-type tag.
type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

// ParseMessage dispatches a raw inbound frame to its typed parser.
func ParseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case Heartbeat:
		return BaseMessage{TypeOf: Heartbeat}, nil
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	case Query:
		return parseQueryMessage(body)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

// NewOrderMessage is the wire shape of a SubmitOrder command (spec §6).
type NewOrderMessage struct {
	BaseMessage
	AssetType   common.AssetType
	OrderType   common.OrderType
	Side        common.Side
	Ticker      string
	Price       int64
	Quantity    uint64
	UsernameLen uint8
	Username    string
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	const fixedLen = 2 + 2 + 1 + 4 + 8 + 8 + 1 // assetType+orderType+side+ticker+price+qty+usernameLen
	if len(msg) < fixedLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.AssetType = common.AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderType = common.OrderType(binary.BigEndian.Uint16(msg[2:4]))
	m.Side = common.Side(msg[4])
	m.Ticker = string(msg[5:9])
	m.Price = int64(binary.BigEndian.Uint64(msg[9:17]))
	m.Quantity = binary.BigEndian.Uint64(msg[17:25])
	m.UsernameLen = msg[25]

	total := fixedLen + int(m.UsernameLen)
	if len(msg) < total {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Username = string(msg[26:total])
	return m, nil
}

// Encode serializes m back onto the wire (used by cmd/client).
func (m NewOrderMessage) Encode() []byte {
	usernameLen := len(m.Username)
	buf := make([]byte, BaseMessageHeaderLen+26+usernameLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	binary.BigEndian.PutUint16(buf[4:6], uint16(m.OrderType))
	buf[6] = byte(m.Side)

	ticker := make([]byte, 4)
	copy(ticker, m.Ticker)
	copy(buf[7:11], ticker)

	binary.BigEndian.PutUint64(buf[11:19], uint64(m.Price))
	binary.BigEndian.PutUint64(buf[19:27], m.Quantity)
	buf[27] = uint8(usernameLen)
	copy(buf[28:], m.Username)
	return buf
}

// Order builds the sequencer-facing submit request from this wire message.
func (m NewOrderMessage) Order() (common.Side, common.OrderType, common.AssetType, string, int64, uint64, string) {
	return m.Side, m.OrderType, m.AssetType, m.Ticker, m.Price, m.Quantity, m.Username
}

// CancelOrderMessage is the wire shape of a CancelOrder command.
type CancelOrderMessage struct {
	BaseMessage
	Symbol  string
	OrderID string
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageHeaderLen-BaseMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.Symbol = string(msg[0:4])
	m.OrderID = string(msg[4:40]) // UUID string form, padded/truncated to 36 bytes
	return m, nil
}

// Encode serializes m back onto the wire.
func (m CancelOrderMessage) Encode() []byte {
	buf := make([]byte, BaseMessageHeaderLen+4+36)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	ticker := make([]byte, 4)
	copy(ticker, m.Symbol)
	copy(buf[2:6], ticker)
	orderID := make([]byte, 36)
	copy(orderID, m.OrderID)
	copy(buf[6:42], orderID)
	return buf
}

// Report is the fixed-plus-variable outbound report format, adapted from
// the teacher's internal/net/messages.go Report (price widened to int64).
type Report struct {
	MessageType     ReportMessageType
	Side            common.Side
	Status          common.OrderStatus
	TransactionTime uint64
	Quantity        uint64
	Price           int64
	CounterpartyLen uint16
	ErrStrLen       uint32
	Ticker          string
	OrderID         string
	Err             string
	Counterparty    string
}

const reportFixedHeaderLen = 1 + 1 + 1 + 8 + 8 + 8 + 2 + 4 + 4 + 36

// Serialize packs r onto the wire.
func (r *Report) Serialize() []byte {
	totalSize := reportFixedHeaderLen + len(r.Err) + len(r.Counterparty)
	buf := make([]byte, totalSize)

	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Side)
	buf[2] = byte(r.Status)
	binary.BigEndian.PutUint64(buf[3:11], r.TransactionTime)
	binary.BigEndian.PutUint64(buf[11:19], r.Quantity)
	binary.BigEndian.PutUint64(buf[19:27], uint64(r.Price))
	binary.BigEndian.PutUint16(buf[27:29], r.CounterpartyLen)
	binary.BigEndian.PutUint32(buf[29:33], r.ErrStrLen)

	ticker := make([]byte, 4)
	copy(ticker, r.Ticker)
	copy(buf[33:37], ticker)

	orderID := make([]byte, 36)
	copy(orderID, r.OrderID)
	copy(buf[37:73], orderID)

	offset := reportFixedHeaderLen
	if r.ErrStrLen > 0 {
		copy(buf[offset:], r.Err)
	}
	offset += int(r.ErrStrLen)
	if r.CounterpartyLen > 0 {
		copy(buf[offset:], r.Counterparty)
	}
	return buf
}

// ErrorReportBytes serializes a standalone error report.
func ErrorReportBytes(err error) []byte {
	errStr := fmt.Sprintf("%v", err)
	r := Report{MessageType: ErrorReport, ErrStrLen: uint32(len(errStr)), Err: errStr}
	return r.Serialize()
}
