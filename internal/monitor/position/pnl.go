package position

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PnL is the unrealized profit of an open buy if it were sold at the best bid.
type PnL struct {
	Symbol    string
	Buy       decimal.Decimal // quote spent on the buy
	Sell      decimal.Decimal // quote received after fee
	Change    decimal.Decimal // Sell - Buy
	ChangePct decimal.Decimal
	BuyValue  decimal.Decimal // average buy price
	SellValue decimal.Decimal // best bid
}

func (p PnL) String() string {
	return fmt.Sprintf("buy: %s sell: %s change: %s%% %s$ (buy value: %s sell value: %s)",
		p.Buy.StringFixed(2),
		p.Sell.StringFixed(2),
		p.ChangePct.StringFixed(2),
		p.Change.StringFixed(2),
		p.BuyValue.StringFixed(6),
		p.SellValue.StringFixed(6),
	)
}
