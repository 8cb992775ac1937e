package net

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
)

// QueryKind selects which read-only view a Query message asks for (spec
// §6 "Query surface (pull)"). This is new wire-protocol surface area the
// teacher never built (it only ever wrote LogBook, which dumps to the
// server's own log); gob is used here rather than hand-packed bytes
// because this is purely an external-boundary concern (spec §1: JSON
// encoding and the wire format generally are explicitly out of the core's
// scope) and gob keeps the new surface small without inventing a second
// bespoke binary layout.
type QueryKind string

const (
	QueryOrderBook  QueryKind = "orderbook"
	QueryRecent     QueryKind = "recent"
	QueryCandles    QueryKind = "candles"
	QueryStats      QueryKind = "stats"
	QueryServerInfo QueryKind = "server_info"
)

// QueryRequest is the gob payload of a Query message.
type QueryRequest struct {
	Kind     QueryKind
	Symbol   string
	Depth    int
	Limit    int
	Interval string
}

// QueryMessage wraps a parsed QueryRequest.
type QueryMessage struct {
	BaseMessage
	Request QueryRequest
}

func parseQueryMessage(body []byte) (QueryMessage, error) {
	if len(body) < 4 {
		return QueryMessage{}, ErrMessageTooShort
	}
	n := binary.BigEndian.Uint32(body[0:4])
	if uint32(len(body)-4) < n {
		return QueryMessage{}, ErrMessageTooShort
	}

	var req QueryRequest
	dec := gob.NewDecoder(bytes.NewReader(body[4 : 4+n]))
	if err := dec.Decode(&req); err != nil {
		return QueryMessage{}, err
	}
	return QueryMessage{BaseMessage: BaseMessage{TypeOf: Query}, Request: req}, nil
}

// Encode serializes a QueryRequest as a full Query message frame.
func (r QueryRequest) Encode() ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(r); err != nil {
		return nil, err
	}

	buf := make([]byte, BaseMessageHeaderLen+4+payload.Len())
	binary.BigEndian.PutUint16(buf[0:2], uint16(Query))
	binary.BigEndian.PutUint32(buf[2:6], uint32(payload.Len()))
	copy(buf[6:], payload.Bytes())
	return buf, nil
}

// QueryResponse is the gob payload of a QueryReport reply.
type QueryResponse struct {
	Err        string
	OrderBook  *OrderBookView
	Recent     []ExecutionView
	Candles    []CandleView
	Stats      *StatsView
	ServerInfo *ServerInfoView
}

// OrderBookView, ExecutionView, CandleView, StatsView and ServerInfoView
// are transport-shaped mirrors of the core's query-surface return types
// (internal/book.Snapshot, common.Execution, marketdata.Candle/Stats),
// kept separate from the core types so the wire format can evolve
// independently of internal representations.
type LevelView struct {
	Price      int64
	Volume     uint64
	OrderCount int
}

type OrderBookView struct {
	Symbol string
	Bids   []LevelView
	Asks   []LevelView
}

type ExecutionView struct {
	ExecID           string
	AggressorOrderID string
	MakerOrderID     string
	Side             int
	Price            int64
	Quantity         uint64
	TransactionUnix  int64
	Fee              string
}

type CandleView struct {
	OpenTime   int64
	CloseTime  int64
	Open       int64
	High       int64
	Low        int64
	Close      int64
	Volume     uint64
	TradeCount uint64
}

type StatsView struct {
	Open24h        int64
	High24h        int64
	Low24h         int64
	LastPrice      int64
	Volume24h      uint64
	PriceChangePct float64
	BestBid        int64
	HasBestBid     bool
	BestAsk        int64
	HasBestAsk     bool
}

type ServerInfoView struct {
	Address       string
	Port          int
	Connections   int
	Symbols       []string
	UptimeSeconds int64
}

// Encode serializes a QueryResponse as a full QueryReport frame.
func (resp QueryResponse) Encode() ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(resp); err != nil {
		return nil, err
	}
	buf := make([]byte, 1+4+payload.Len())
	buf[0] = byte(QueryReport)
	binary.BigEndian.PutUint32(buf[1:5], uint32(payload.Len()))
	copy(buf[5:], payload.Bytes())
	return buf, nil
}

// DecodeQueryResponse parses a QueryReport frame's body (after the leading
// type+length header has already been consumed by the caller).
func DecodeQueryResponse(body []byte) (QueryResponse, error) {
	var resp QueryResponse
	dec := gob.NewDecoder(bytes.NewReader(body))
	err := dec.Decode(&resp)
	return resp, err
}
