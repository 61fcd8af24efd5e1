// Package binance implements the exchange.Gateway contract on Binance
// USD-M futures through the go-binance SDK.
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tradewire/internal/gateway/exchange"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// Binance error code for cancel/lookup of an order it no longer tracks.
const codeUnknownOrder = -2011

type Client struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) (*Client, error) {
	final := cfg.withDefaults()
	if strings.TrimSpace(final.APIKey) == "" || strings.TrimSpace(final.APISecret) == "" {
		return nil, fmt.Errorf("binance gateway requires api key and secret")
	}
	if final.UseTestnet {
		futures.UseTestnet = true
	}
	client := futures.NewClient(final.APIKey, final.APISecret)
	if final.RESTBaseURL != "" {
		client.BaseURL = final.RESTBaseURL
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Client{cfg: final, client: client}, nil
}

func (c *Client) InstrumentRules(ctx context.Context, symbol string) (exchange.InstrumentRules, error) {
	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return exchange.InstrumentRules{}, fmt.Errorf("fetch exchange info: %w", err)
	}
	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}
		rules := exchange.InstrumentRules{
			Symbol:            symbol,
			PricePrecision:    int32(s.PricePrecision),
			QuantityPrecision: int32(s.QuantityPrecision),
		}
		if f := s.PriceFilter(); f != nil {
			if rules.TickSize, err = decimal.NewFromString(f.TickSize); err != nil {
				return exchange.InstrumentRules{}, fmt.Errorf("parse tick size %q: %w", f.TickSize, err)
			}
		}
		if f := s.LotSizeFilter(); f != nil {
			if rules.StepSize, err = decimal.NewFromString(f.StepSize); err != nil {
				return exchange.InstrumentRules{}, fmt.Errorf("parse step size %q: %w", f.StepSize, err)
			}
		}
		if f := s.MinNotionalFilter(); f != nil {
			if rules.MinNotional, err = decimal.NewFromString(f.Notional); err != nil {
				return exchange.InstrumentRules{}, fmt.Errorf("parse min notional %q: %w", f.Notional, err)
			}
		}
		return rules, nil
	}
	return exchange.InstrumentRules{}, fmt.Errorf("symbol %s not listed on venue", symbol)
}

func (c *Client) Position(ctx context.Context, symbol string) (exchange.Position, error) {
	risks, err := c.client.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return exchange.Position{}, fmt.Errorf("fetch position: %w", err)
	}
	pos := exchange.Position{Symbol: symbol}
	if len(risks) == 0 {
		return pos, nil
	}
	// One-way position mode: a single entry per symbol.
	r := risks[0]
	if pos.Quantity, err = decimal.NewFromString(r.PositionAmt); err != nil {
		return exchange.Position{}, fmt.Errorf("parse position amount %q: %w", r.PositionAmt, err)
	}
	if pos.EntryPrice, err = decimal.NewFromString(r.EntryPrice); err != nil {
		return exchange.Position{}, fmt.Errorf("parse entry price %q: %w", r.EntryPrice, err)
	}
	return pos, nil
}

func (c *Client) AvailableMargin(ctx context.Context) (decimal.Decimal, error) {
	acct, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch account: %w", err)
	}
	margin, err := decimal.NewFromString(acct.AvailableBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse available balance %q: %w", acct.AvailableBalance, err)
	}
	return margin, nil
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if _, err := c.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx); err != nil {
		return fmt.Errorf("change leverage: %w", err)
	}
	return nil
}

func (c *Client) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.ManagedOrder, error) {
	svc := c.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(futures.SideType(req.Side)).
		Type(futures.OrderType(req.Type)).
		Quantity(req.Quantity.StringFixed(req.QuantityPrecision))
	if req.Price.Sign() > 0 {
		svc = svc.Price(req.Price.StringFixed(req.PricePrecision))
	}
	if req.TriggerPrice.Sign() > 0 {
		svc = svc.StopPrice(req.TriggerPrice.StringFixed(req.PricePrecision))
	}
	if req.CallbackRate.Sign() > 0 {
		svc = svc.CallbackRate(req.CallbackRate.StringFixed(1))
	}
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	if req.TimeInForce != "" {
		svc = svc.TimeInForce(futures.TimeInForceType(req.TimeInForce))
	}
	if req.ClientID != "" {
		svc = svc.NewClientOrderID(req.ClientID)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return exchange.ManagedOrder{}, fmt.Errorf("create order: %w", err)
	}
	order := exchange.ManagedOrder{
		ID:           res.OrderID,
		ClientID:     res.ClientOrderID,
		Symbol:       req.Symbol,
		Role:         req.Role,
		Side:         req.Side,
		Type:         req.Type,
		Quantity:     req.Quantity,
		Price:        req.Price,
		TriggerPrice: req.TriggerPrice,
		CallbackRate: req.CallbackRate,
		Status:       mapStatus(res.Status),
		ReduceOnly:   req.ReduceOnly,
	}
	if avg, err := decimal.NewFromString(res.AvgPrice); err == nil {
		order.AvgFillPrice = avg
	}
	return order, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	if _, err := c.client.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx); err != nil {
		if isUnknownOrder(err) {
			return fmt.Errorf("cancel order %d: %w", orderID, exchange.ErrUnknownOrder)
		}
		return fmt.Errorf("cancel order %d: %w", orderID, err)
	}
	return nil
}

func (c *Client) GetOrder(ctx context.Context, symbol string, orderID int64) (exchange.ManagedOrder, error) {
	res, err := c.client.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		if isUnknownOrder(err) {
			return exchange.ManagedOrder{}, fmt.Errorf("get order %d: %w", orderID, exchange.ErrUnknownOrder)
		}
		return exchange.ManagedOrder{}, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return mapOrder(res), nil
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]exchange.ManagedOrder, error) {
	res, err := c.client.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	out := make([]exchange.ManagedOrder, 0, len(res))
	for _, o := range res {
		out = append(out, mapOrder(o))
	}
	return out, nil
}

// OrderFees sums commissions over the account trades belonging to orderID.
// The venue reports fills per trade, not per order.
func (c *Client) OrderFees(ctx context.Context, symbol string, orderID int64) (exchange.Fee, error) {
	trades, err := c.client.NewListAccountTradeService().Symbol(symbol).Limit(tradeFetchLimit).Do(ctx)
	if err != nil {
		return exchange.Fee{}, fmt.Errorf("list account trades: %w", err)
	}
	fee := exchange.Fee{Amount: decimal.Zero}
	for _, t := range trades {
		if t.OrderID != orderID {
			continue
		}
		commission, err := decimal.NewFromString(t.Commission)
		if err != nil {
			continue
		}
		fee.Amount = fee.Amount.Add(commission)
		if fee.Asset == "" {
			fee.Asset = t.CommissionAsset
		}
	}
	return fee, nil
}

const tradeFetchLimit = 100

func isUnknownOrder(err error) bool {
	var apiErr *common.APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeUnknownOrder
}
