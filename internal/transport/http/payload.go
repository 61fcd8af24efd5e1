package webhookhttp

import (
	"fmt"
	"strings"

	"tradewire/internal/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

// signalSchema is the structural contract for inbound webhook bodies.
// Cross-field requirements (entry signals need sizing data) are checked
// after decoding, where the normalized action is known.
const signalSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["passphrase", "ticker", "strategy"],
  "properties": {
    "passphrase": {"type": "string", "minLength": 1},
    "ticker": {"type": "string", "minLength": 1},
    "leverage": {"type": "number", "exclusiveMinimum": 0},
    "percent_of_equity": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
    "strategy": {
      "type": "object",
      "additionalProperties": false,
      "required": ["order_id", "order_action"],
      "properties": {
        "order_id": {"type": "string", "minLength": 1},
        "order_action": {"type": "string", "minLength": 1}
      }
    },
    "bar": {
      "type": "object",
      "additionalProperties": false,
      "required": ["order_price"],
      "properties": {
        "order_price": {"type": "number", "exclusiveMinimum": 0}
      }
    },
    "take_profit_percent": {"type": "number", "minimum": 0},
    "stop_loss_percent": {"type": "number", "minimum": 0},
    "trailing_stop_percentage": {"type": "number", "minimum": 0}
  }
}`

var compiledSchema = jsonschema.MustCompileString("signal.json", signalSchema)

// SignalPayload is the decoded webhook body, field names matching the
// alerting platform's JSON.
type SignalPayload struct {
	Passphrase      string          `json:"passphrase"`
	Ticker          string          `json:"ticker"`
	Leverage        decimal.Decimal `json:"leverage"`
	PercentOfEquity decimal.Decimal `json:"percent_of_equity"`
	Strategy        struct {
		OrderID     string `json:"order_id"`
		OrderAction string `json:"order_action"`
	} `json:"strategy"`
	Bar *struct {
		OrderPrice decimal.Decimal `json:"order_price"`
	} `json:"bar"`
	TakeProfitPercent decimal.Decimal `json:"take_profit_percent"`
	StopLossPercent   decimal.Decimal `json:"stop_loss_percent"`
	TrailingStopPct   decimal.Decimal `json:"trailing_stop_percentage"`
}

// routeKind classifies a signal by its order_id prefix.
type routeKind int

const (
	routeUnknown routeKind = iota
	routeSwitch
	routeExit
)

func routeOf(orderID string) routeKind {
	id := strings.ToLower(strings.TrimSpace(orderID))
	switch {
	case strings.HasPrefix(id, "switch"):
		return routeSwitch
	case strings.HasPrefix(id, "exit"), strings.HasPrefix(id, "flat"):
		return routeExit
	default:
		return routeUnknown
	}
}

// ToIntent converts a validated payload into the engine's intent. An exit
// route forces the exit side regardless of the declared action.
func (p SignalPayload) ToIntent(kind routeKind) (types.TradeIntent, error) {
	side, err := types.ParseSide(p.Strategy.OrderAction)
	if err != nil {
		return types.TradeIntent{}, err
	}
	if kind == routeExit {
		side = types.SideExit
	}

	intent := types.TradeIntent{
		Symbol:        strings.ToUpper(strings.TrimSpace(p.Ticker)),
		Side:          side,
		SignalID:      p.Strategy.OrderID,
		Leverage:      p.Leverage,
		TakeProfitPct: p.TakeProfitPercent,
		StopLossPct:   p.StopLossPercent,
		TrailingPct:   p.TrailingStopPct,
	}
	if p.Bar != nil {
		intent.Price = p.Bar.OrderPrice
	}
	if p.PercentOfEquity.Sign() > 0 {
		intent.EquityFraction = p.PercentOfEquity.Div(decimal.NewFromInt(100))
	}

	if side != types.SideExit {
		var missing []string
		if intent.Leverage.Sign() <= 0 {
			missing = append(missing, "leverage")
		}
		if intent.EquityFraction.Sign() <= 0 {
			missing = append(missing, "percent_of_equity")
		}
		if intent.Price.Sign() <= 0 {
			missing = append(missing, "bar.order_price")
		}
		if len(missing) > 0 {
			return types.TradeIntent{}, fmt.Errorf("missing required fields for %s signal: %s",
				side, strings.Join(missing, ", "))
		}
	}
	return intent, nil
}
