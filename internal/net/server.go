package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/lobex/internal/common"
	"github.com/saiputravu/lobex/internal/engine"
	"github.com/saiputravu/lobex/internal/marketdata"
	"github.com/saiputravu/lobex/internal/sequencer"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession tracks one connected TCP client, adapted from the teacher's
// internal/net/server.go ClientSession.
type ClientSession struct {
	conn net.Conn
}

// clientMessage links a parsed message to the connection it arrived on.
type clientMessage struct {
	clientAddress string
	message       Message
}

// Server is the TCP boundary in front of the sequencer and query surface
// (spec §6), adapted from the teacher's internal/net/server.go. Where the
// teacher's Engine interface exposed PlaceOrder/CancelOrder/LogBook
// directly, this Server instead goes through sequencer.Sequencer (the
// single-writer admission funnel) for mutating commands, and reads
// engine.Engine/marketdata.Feed directly for the read-only query surface.
type Server struct {
	address string
	port    int
	startedAt time.Time

	seq  *sequencer.Sequencer
	eng  *engine.Engine
	feeds map[string]*marketdata.Feed

	pool   *WorkerPool
	cancel context.CancelFunc

	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex
	clientMessages     chan clientMessage
}

// New constructs a Server listening on address:port, serving the given
// sequencer/engine/feeds.
func New(address string, port int, seq *sequencer.Sequencer, eng *engine.Engine, feeds map[string]*marketdata.Feed) *Server {
	return &Server{
		address:        address,
		port:           port,
		seq:            seq,
		eng:            eng,
		feeds:          feeds,
		pool:           NewWorkerPool(defaultNWorkers),
		clientSessions: make(map[string]ClientSession),
		clientMessages: make(chan clientMessage, 1),
	}
}

// Shutdown cancels the server's run context.
func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections until ctx is cancelled, dispatching each to the
// worker pool for read-and-parse, and the session handler for dispatch.
func (s *Server) Run(ctx context.Context) error {
	s.startedAt = time.Now()
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}
	// Closing the listener on cancellation unblocks Accept below.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			log.Info().Str("address", conn.RemoteAddr().String()).Msg("client connected")
			s.addClientSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

// sessionHandler drains parsed client messages and dispatches each,
// reporting handler errors back to the originating client.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.clientMessages:
			if err := s.handleMessage(msg); err != nil {
				log.Error().Err(err).Str("client", msg.clientAddress).Msg("error handling message")
				s.writeTo(msg.clientAddress, ErrorReportBytes(err))
			}
		}
	}
}

func (s *Server) handleMessage(msg clientMessage) error {
	switch msg.message.GetType() {
	case NewOrder:
		order, ok := msg.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		return s.handleNewOrder(msg.clientAddress, order)
	case CancelOrder:
		cancelMsg, ok := msg.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		return s.handleCancelOrder(msg.clientAddress, cancelMsg)
	case Query:
		queryMsg, ok := msg.message.(QueryMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		return s.handleQuery(msg.clientAddress, queryMsg)
	case Heartbeat:
		return nil
	case LogBook:
		log.Info().Strs("symbols", s.eng.Symbols()).Msg("logbook request")
		return nil
	default:
		return ErrInvalidMessageType
	}
}

func (s *Server) handleNewOrder(clientAddress string, m NewOrderMessage) error {
	side, orderType, assetType, symbol, price, qty, owner := m.Order()
	resp, err := s.seq.Submit(sequencer.SubmitRequest{
		Symbol:    symbol,
		Side:      side,
		OrderType: orderType,
		Price:     price,
		Quantity:  qty,
		Owner:     owner,
		AssetType: assetType,
	})
	if err != nil {
		return err
	}

	report := &Report{
		MessageType: StatusReport,
		Side:        side,
		Status:      resp.Status,
		OrderID:     resp.OrderID,
		Ticker:      symbol,
	}
	return s.writeTo(clientAddress, report.Serialize())
}

func (s *Server) handleCancelOrder(clientAddress string, m CancelOrderMessage) error {
	resp, err := s.seq.Cancel(m.Symbol, m.OrderID)
	if err != nil {
		return err
	}

	status := common.Cancelled
	if !resp.Found {
		status = common.New
	}
	report := &Report{
		MessageType: StatusReport,
		Status:      status,
		OrderID:     m.OrderID,
		Ticker:      m.Symbol,
	}
	return s.writeTo(clientAddress, report.Serialize())
}

func (s *Server) handleQuery(clientAddress string, m QueryMessage) error {
	resp := s.resolveQuery(m.Request)
	body, err := resp.Encode()
	if err != nil {
		return err
	}
	return s.writeTo(clientAddress, body)
}

// resolveQuery answers a QueryRequest from the engine/feed state (spec §6
// "Query surface"). An unknown symbol or interval produces a QueryResponse
// carrying Err rather than a protocol-level failure, mirroring how
// sequencer.Cancel treats "not found" as a normal outcome.
func (s *Server) resolveQuery(req QueryRequest) QueryResponse {
	switch req.Kind {
	case QueryOrderBook:
		se := s.eng.Symbol(req.Symbol)
		if se == nil {
			return QueryResponse{Err: "unknown symbol"}
		}
		snap := se.Snapshot(req.Depth)
		return QueryResponse{OrderBook: toOrderBookView(snap)}

	case QueryRecent:
		feed, ok := s.feeds[req.Symbol]
		if !ok {
			return QueryResponse{Err: "unknown symbol"}
		}
		execs := feed.Recent.Last(req.Symbol, req.Limit)
		return QueryResponse{Recent: toExecutionViews(execs)}

	case QueryCandles:
		feed, ok := s.feeds[req.Symbol]
		if !ok {
			return QueryResponse{Err: "unknown symbol"}
		}
		interval, ok := marketdata.ParseInterval(req.Interval)
		if !ok {
			return QueryResponse{Err: "unknown interval"}
		}
		candles := feed.Candles.GetCandles(req.Symbol, interval, req.Limit, true)
		return QueryResponse{Candles: toCandleViews(candles)}

	case QueryStats:
		feed, ok := s.feeds[req.Symbol]
		if !ok {
			return QueryResponse{Err: "unknown symbol"}
		}
		stats, ok := feed.Stats.Get(req.Symbol)
		if !ok {
			return QueryResponse{Err: "no executions yet"}
		}
		se := s.eng.Symbol(req.Symbol)
		bestBid, hasBid, bestAsk, hasAsk := se.TopOfBook()
		return QueryResponse{Stats: &StatsView{
			Open24h:        stats.Open24h,
			High24h:        stats.High24h,
			Low24h:         stats.Low24h,
			LastPrice:      stats.LastPrice,
			Volume24h:      stats.Volume24h,
			PriceChangePct: stats.PriceChangePct,
			BestBid:        bestBid.Price,
			HasBestBid:     hasBid,
			BestAsk:        bestAsk.Price,
			HasBestAsk:     hasAsk,
		}}

	case QueryServerInfo:
		s.clientSessionsLock.Lock()
		conns := len(s.clientSessions)
		s.clientSessionsLock.Unlock()
		return QueryResponse{ServerInfo: &ServerInfoView{
			Address:       s.address,
			Port:          s.port,
			Connections:   conns,
			Symbols:       s.eng.Symbols(),
			UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		}}

	default:
		return QueryResponse{Err: "unknown query kind"}
	}
}

// handleConnection reads and parses one message off conn, handing it to
// the session handler, and re-queues conn for its next read. Adapted from
// the teacher's internal/net/server.go handleConnection.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Msg("failed setting deadline")
		s.closeClient(conn)
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			log.Debug().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
			s.closeClient(conn)
			return nil
		}

		message, err := ParseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.writeTo(conn.RemoteAddr().String(), ErrorReportBytes(err))
			s.pool.AddTask(conn)
			return nil
		}

		s.clientMessages <- clientMessage{message: message, clientAddress: conn.RemoteAddr().String()}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) writeTo(clientAddress string, payload []byte) error {
	s.clientSessionsLock.Lock()
	session, ok := s.clientSessions[clientAddress]
	s.clientSessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}
	if _, err := session.conn.Write(payload); err != nil {
		s.deleteClientSession(clientAddress)
		return fmt.Errorf("writing to client: %w", err)
	}
	return nil
}

func (s *Server) closeClient(conn net.Conn) {
	address := conn.RemoteAddr().String()
	s.deleteClientSession(address)
	if err := conn.Close(); err != nil {
		log.Debug().Err(err).Str("address", address).Msg("error closing connection")
	}
}

func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	delete(s.clientSessions, address)
}
