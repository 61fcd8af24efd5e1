package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"tradewire/internal/audit"
	"tradewire/internal/gateway/exchange"
	"tradewire/internal/store/journal"

	"github.com/shopspring/decimal"
)

// errTransport stands in for any venue transport failure.
var errTransport = errors.New("venue unreachable")

// fakeClock advances instantly on Sleep so poll loops run without real
// waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return ctx.Err()
}

// fakeGateway is an in-memory venue. Orders fill according to fillAfter:
// a limit or protective order flips to Filled once GetOrder has been called
// that many times for it; market orders fill on placement. Reduce-only
// fills flatten the tracked position.
type fakeGateway struct {
	mu sync.Mutex

	rules  exchange.InstrumentRules
	margin decimal.Decimal
	pos    exchange.Position

	marketPrice decimal.Decimal
	fillAfter   map[exchange.OrderRole]int
	rejectAfter map[exchange.OrderRole]int
	fillPrice   map[exchange.OrderRole]decimal.Decimal
	fees        map[exchange.OrderRole]exchange.Fee

	placeErr    map[exchange.OrderRole]error
	cancelErr   error
	getOrderErr map[exchange.OrderRole]error

	// flatAfterReads > 0 zeroes the position once Position has been read
	// that many times, simulating a close from outside the engine.
	flatAfterReads int
	posReads       int

	nextID   int64
	orders   map[int64]*exchange.ManagedOrder
	polls    map[int64]int
	placed   []exchange.OrderRequest
	canceled []int64
	leverage []int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		rules: exchange.InstrumentRules{
			Symbol:            "BTCUSDT",
			TickSize:          dec("0.01"),
			StepSize:          dec("0.001"),
			PricePrecision:    2,
			QuantityPrecision: 3,
			MinNotional:       dec("5"),
		},
		margin:      dec("1000"),
		marketPrice: dec("50000"),
		fillAfter:   map[exchange.OrderRole]int{},
		rejectAfter: map[exchange.OrderRole]int{},
		fillPrice:   map[exchange.OrderRole]decimal.Decimal{},
		fees:        map[exchange.OrderRole]exchange.Fee{},
		placeErr:    map[exchange.OrderRole]error{},
		getOrderErr: map[exchange.OrderRole]error{},
		orders:      map[int64]*exchange.ManagedOrder{},
		polls:       map[int64]int{},
	}
}

func (g *fakeGateway) InstrumentRules(ctx context.Context, symbol string) (exchange.InstrumentRules, error) {
	return g.rules, nil
}

func (g *fakeGateway) Position(ctx context.Context, symbol string) (exchange.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posReads++
	if g.flatAfterReads > 0 && g.posReads >= g.flatAfterReads {
		g.pos = exchange.Position{Symbol: symbol}
	}
	return g.pos, nil
}

func (g *fakeGateway) AvailableMargin(ctx context.Context) (decimal.Decimal, error) {
	return g.margin, nil
}

func (g *fakeGateway) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leverage = append(g.leverage, leverage)
	return nil
}

func (g *fakeGateway) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.ManagedOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.placeErr[req.Role]; err != nil {
		return exchange.ManagedOrder{}, err
	}
	g.placed = append(g.placed, req)
	g.nextID++
	o := &exchange.ManagedOrder{
		ID:           g.nextID,
		ClientID:     req.ClientID,
		Symbol:       req.Symbol,
		Role:         req.Role,
		Side:         req.Side,
		Type:         req.Type,
		Quantity:     req.Quantity,
		Price:        req.Price,
		TriggerPrice: req.TriggerPrice,
		CallbackRate: req.CallbackRate,
		Status:       exchange.StatusPending,
		ReduceOnly:   req.ReduceOnly,
	}
	if req.Type == exchange.Market {
		g.fill(o)
	}
	g.orders[o.ID] = o
	return *o, nil
}

// fill marks an order filled at its configured price and settles the
// position the way the venue would.
func (g *fakeGateway) fill(o *exchange.ManagedOrder) {
	o.Status = exchange.StatusFilled
	price, ok := g.fillPrice[o.Role]
	if !ok {
		price = o.Price
		if price.Sign() <= 0 {
			price = g.marketPrice
		}
	}
	o.AvgFillPrice = price
	if o.ReduceOnly {
		g.pos = exchange.Position{Symbol: o.Symbol}
		return
	}
	qty := o.Quantity
	if o.Side == exchange.Sell {
		qty = qty.Neg()
	}
	g.pos = exchange.Position{Symbol: o.Symbol, Quantity: qty, EntryPrice: price}
}

func (g *fakeGateway) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	o, ok := g.orders[orderID]
	if !ok || o.Status.Terminal() {
		return exchange.ErrUnknownOrder
	}
	o.Status = exchange.StatusCanceled
	g.canceled = append(g.canceled, orderID)
	return nil
}

func (g *fakeGateway) GetOrder(ctx context.Context, symbol string, orderID int64) (exchange.ManagedOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return exchange.ManagedOrder{}, exchange.ErrUnknownOrder
	}
	if err := g.getOrderErr[o.Role]; err != nil {
		return exchange.ManagedOrder{}, err
	}
	g.polls[orderID]++
	if after, ok := g.rejectAfter[o.Role]; ok && o.Status == exchange.StatusPending && g.polls[orderID] >= after {
		o.Status = exchange.StatusRejected
	}
	if after, ok := g.fillAfter[o.Role]; ok && o.Status == exchange.StatusPending && g.polls[orderID] >= after {
		g.fill(o)
	}
	return *o, nil
}

func (g *fakeGateway) OpenOrders(ctx context.Context, symbol string) ([]exchange.ManagedOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []exchange.ManagedOrder
	for _, o := range g.orders {
		if !o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (g *fakeGateway) OrderFees(ctx context.Context, symbol string, orderID int64) (exchange.Fee, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if o, ok := g.orders[orderID]; ok {
		if fee, ok := g.fees[o.Role]; ok {
			return fee, nil
		}
	}
	return exchange.Fee{Amount: decimal.Zero, Asset: "USDT"}, nil
}

// placedByRole returns the submitted requests for one role, in order.
func (g *fakeGateway) placedByRole(role exchange.OrderRole) []exchange.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []exchange.OrderRequest
	for _, req := range g.placed {
		if req.Role == role {
			out = append(out, req)
		}
	}
	return out
}

// memRecorder collects audit records in memory.
type memRecorder struct {
	mu      sync.Mutex
	records []audit.TransactionRecord
}

func (r *memRecorder) Record(ctx context.Context, rec audit.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) byType(t audit.RecordType) []audit.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.TransactionRecord
	for _, rec := range r.records {
		if rec.Type == t {
			out = append(out, rec)
		}
	}
	return out
}

// memJournal collects order events in memory.
type memJournal struct {
	mu     sync.Mutex
	events []journal.OrderEvent
}

func (j *memJournal) Append(ctx context.Context, evt journal.OrderEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, evt)
	return nil
}

func (j *memJournal) byEvent(event string) []journal.OrderEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []journal.OrderEvent
	for _, evt := range j.events {
		if evt.Event == event {
			out = append(out, evt)
		}
	}
	return out
}
