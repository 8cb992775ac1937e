// Command client is a TCP CLI for lobex: place/cancel orders, and query
// the order book, recent executions, candles and stats. Adapted from the
// teacher's cmd/client/client.go flag-based shape, generalized to cobra
// subcommands and the int64-tick/gob-query wire format. The loadgen
// subcommand is new, supplementing the spec's core surface with the
// original implementation's order-simulation tooling (original_source's
// examples/order_simulation.rs), grounded in the pack's random-order
// generator idiom (lightsgoout-go-quantcup's GenerateRandomOrder).
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saiputravu/lobex/internal/common"
	lobexnet "github.com/saiputravu/lobex/internal/net"
)

func main() {
	var serverAddr string

	root := &cobra.Command{
		Use:   "lobex-client",
		Short: "Place orders against and query a running lobex server",
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:9001", "address of the lobex server")

	root.AddCommand(
		placeCmd(&serverAddr),
		cancelCmd(&serverAddr),
		bookCmd(&serverAddr),
		statsCmd(&serverAddr),
		candlesCmd(&serverAddr),
		recentCmd(&serverAddr),
		loadgenCmd(&serverAddr),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dial(addr string) (net.Conn, error) {
	return net.Dial("tcp", addr)
}

func placeCmd(addr *string) *cobra.Command {
	var owner, symbol, sideStr, typeStr, qtyStr string
	var price int64

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place one or more orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return fmt.Errorf("--owner is required")
			}

			side := common.Buy
			if strings.EqualFold(sideStr, "sell") {
				side = common.Sell
			}
			orderType := common.LimitOrder
			if strings.EqualFold(typeStr, "market") {
				orderType = common.MarketOrder
			}

			conn, err := dial(*addr)
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", *addr, err)
			}
			defer conn.Close()

			go printReports(conn)

			for _, qty := range parseQuantities(qtyStr) {
				msg := lobexnet.NewOrderMessage{
					AssetType: common.Equities,
					OrderType: orderType,
					Side:      side,
					Ticker:    symbol,
					Price:     price,
					Quantity:  qty,
					Username:  owner,
				}
				if _, err := conn.Write(msg.Encode()); err != nil {
					return fmt.Errorf("sending order: %w", err)
				}
				fmt.Printf("-> sent %s %s qty=%d price=%d\n", sideStr, symbol, qty, price)
				time.Sleep(5 * time.Millisecond)
			}

			time.Sleep(500 * time.Millisecond)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner username (required)")
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	cmd.Flags().StringVar(&sideStr, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&typeStr, "type", "limit", "limit or market")
	cmd.Flags().Int64Var(&price, "price", 10000, "limit price, in ticks")
	cmd.Flags().StringVar(&qtyStr, "qty", "10", "quantity, or comma-separated list")
	return cmd
}

func cancelCmd(addr *string) *cobra.Command {
	var symbol, orderID string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a resting order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orderID == "" {
				return fmt.Errorf("--order-id is required")
			}
			conn, err := dial(*addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			go printReports(conn)

			msg := lobexnet.CancelOrderMessage{Symbol: symbol, OrderID: orderID}
			if _, err := conn.Write(msg.Encode()); err != nil {
				return err
			}
			time.Sleep(250 * time.Millisecond)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	cmd.Flags().StringVar(&orderID, "order-id", "", "order id to cancel (required)")
	return cmd
}

func bookCmd(addr *string) *cobra.Command {
	var symbol string
	var depth int
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Print the current order book",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doQuery(*addr, lobexnet.QueryRequest{Kind: lobexnet.QueryOrderBook, Symbol: symbol, Depth: depth})
			if err != nil {
				return err
			}
			if resp.Err != "" {
				return fmt.Errorf("%s", resp.Err)
			}
			fmt.Printf("%s\n", resp.OrderBook.Symbol)
			fmt.Println("bids:")
			for _, l := range resp.OrderBook.Bids {
				fmt.Printf("  %d x %d (%d orders)\n", l.Price, l.Volume, l.OrderCount)
			}
			fmt.Println("asks:")
			for _, l := range resp.OrderBook.Asks {
				fmt.Printf("  %d x %d (%d orders)\n", l.Price, l.Volume, l.OrderCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	cmd.Flags().IntVar(&depth, "depth", 10, "number of price levels per side")
	return cmd
}

func statsCmd(addr *string) *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print rolling 24h market statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doQuery(*addr, lobexnet.QueryRequest{Kind: lobexnet.QueryStats, Symbol: symbol})
			if err != nil {
				return err
			}
			if resp.Err != "" {
				return fmt.Errorf("%s", resp.Err)
			}
			s := resp.Stats
			fmt.Printf("open=%d high=%d low=%d last=%d volume=%d change=%.4f%% bid=%d ask=%d\n",
				s.Open24h, s.High24h, s.Low24h, s.LastPrice, s.Volume24h, s.PriceChangePct, s.BestBid, s.BestAsk)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	return cmd
}

func candlesCmd(addr *string) *cobra.Command {
	var symbol, interval string
	var limit int
	cmd := &cobra.Command{
		Use:   "candles",
		Short: "Print recent candlesticks for an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doQuery(*addr, lobexnet.QueryRequest{Kind: lobexnet.QueryCandles, Symbol: symbol, Interval: interval, Limit: limit})
			if err != nil {
				return err
			}
			if resp.Err != "" {
				return fmt.Errorf("%s", resp.Err)
			}
			for _, c := range resp.Candles {
				fmt.Printf("open=%d..%d O=%d H=%d L=%d C=%d V=%d trades=%d\n",
					c.OpenTime, c.CloseTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.TradeCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	cmd.Flags().StringVar(&interval, "interval", "1m", "candle interval (1m,5m,15m,30m,1h,4h,1d,1w)")
	cmd.Flags().IntVar(&limit, "limit", 20, "max candles to return")
	return cmd
}

func recentCmd(addr *string) *cobra.Command {
	var symbol string
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print recent executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doQuery(*addr, lobexnet.QueryRequest{Kind: lobexnet.QueryRecent, Symbol: symbol, Limit: limit})
			if err != nil {
				return err
			}
			if resp.Err != "" {
				return fmt.Errorf("%s", resp.Err)
			}
			for _, e := range resp.Recent {
				fmt.Printf("%s price=%d qty=%d fee=%s at=%d\n", e.ExecID, e.Price, e.Quantity, e.Fee, e.TransactionUnix)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "max executions to return")
	return cmd
}

// loadgenCmd fires a stream of random limit orders at the server, grounded
// on the original implementation's order_simulation.rs and the pack's
// GenerateRandomOrder idiom. It exists to exercise the engine under load,
// not to validate any particular outcome.
func loadgenCmd(addr *string) *cobra.Command {
	var symbol, owner string
	var count int
	var minPrice, maxPrice int64
	var maxQty uint64
	var rate time.Duration

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate a stream of random orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dial(*addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			go printReports(conn)

			for i := 0; i < count; i++ {
				side := common.Buy
				if rand.Intn(2) == 1 {
					side = common.Sell
				}
				price := minPrice + rand.Int63n(maxPrice-minPrice+1)
				qty := uint64(rand.Int63n(int64(maxQty))) + 1

				msg := lobexnet.NewOrderMessage{
					AssetType: common.Equities,
					OrderType: common.LimitOrder,
					Side:      side,
					Ticker:    symbol,
					Price:     price,
					Quantity:  qty,
					Username:  owner,
				}
				if _, err := conn.Write(msg.Encode()); err != nil {
					return err
				}
				time.Sleep(rate)
			}

			time.Sleep(500 * time.Millisecond)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	cmd.Flags().StringVar(&owner, "owner", "loadgen", "owner username attached to generated orders")
	cmd.Flags().IntVar(&count, "count", 100, "number of orders to generate")
	cmd.Flags().Int64Var(&minPrice, "min-price", 9000, "minimum limit price, in ticks")
	cmd.Flags().Int64Var(&maxPrice, "max-price", 11000, "maximum limit price, in ticks")
	cmd.Flags().Uint64Var(&maxQty, "max-qty", 1000, "maximum order quantity")
	cmd.Flags().DurationVar(&rate, "rate", 5*time.Millisecond, "delay between generated orders")
	return cmd
}

func parseQuantities(input string) []uint64 {
	var out []uint64
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			out = append(out, val)
		}
	}
	return out
}

// doQuery sends a QueryRequest and reads back one QueryReport frame.
func doQuery(addr string, req lobexnet.QueryRequest) (lobexnet.QueryResponse, error) {
	conn, err := dial(addr)
	if err != nil {
		return lobexnet.QueryResponse{}, err
	}
	defer conn.Close()

	frame, err := req.Encode()
	if err != nil {
		return lobexnet.QueryResponse{}, err
	}
	if _, err := conn.Write(frame); err != nil {
		return lobexnet.QueryResponse{}, err
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	header := make([]byte, 5)
	if _, err := io.ReadFull(conn, header); err != nil {
		return lobexnet.QueryResponse{}, fmt.Errorf("reading query reply header: %w", err)
	}
	bodyLen := binary.BigEndian.Uint32(header[1:5])
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(conn, body); err != nil {
		return lobexnet.QueryResponse{}, fmt.Errorf("reading query reply body: %w", err)
	}
	return lobexnet.DecodeQueryResponse(body)
}

// printReports prints every StatusReport/ExecutionReport/ErrorReport the
// server sends back on conn until it closes, adapted from the teacher's
// cmd/client/client.go readReports.
func printReports(conn net.Conn) {
	for {
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
			}
			return
		}
		if n < 1 {
			continue
		}

		switch lobexnet.ReportMessageType(buf[0]) {
		case lobexnet.ErrorReport, lobexnet.StatusReport, lobexnet.ExecutionReport:
			printWireReport(buf[:n])
		case lobexnet.QueryReport:
			// Query replies are consumed synchronously by doQuery on their
			// own connection; a QueryReport arriving here indicates a
			// mismatched connection reuse and is ignored.
		}
	}
}

func printWireReport(buf []byte) {
	const fixedLen = 1 + 1 + 1 + 8 + 8 + 8 + 2 + 4
	if len(buf) < fixedLen+4+36 {
		return
	}
	msgType := lobexnet.ReportMessageType(buf[0])
	side := common.Side(buf[1])
	status := common.OrderStatus(buf[2])
	qty := binary.BigEndian.Uint64(buf[11:19])
	price := int64(binary.BigEndian.Uint64(buf[19:27]))
	counterpartyLen := binary.BigEndian.Uint16(buf[27:29])
	errStrLen := binary.BigEndian.Uint32(buf[29:33])
	ticker := strings.TrimRight(string(buf[33:37]), "\x00")
	orderID := strings.TrimRight(string(buf[37:73]), "\x00")

	rest := buf[73:]
	var errStr, counterparty string
	if int(errStrLen) <= len(rest) {
		errStr = string(rest[:errStrLen])
		rest = rest[errStrLen:]
	}
	if int(counterpartyLen) <= len(rest) {
		counterparty = string(rest[:counterpartyLen])
	}

	if msgType == lobexnet.ErrorReport {
		fmt.Printf("\n[error] %s\n", errStr)
		return
	}
	fmt.Printf("\n[%s] order=%s symbol=%s side=%s status=%s qty=%d price=%d counterparty=%s\n",
		msgType, orderID, ticker, side, status, qty, price, counterparty)
}
