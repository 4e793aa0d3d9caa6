package monitor

import "github.com/shopspring/decimal"

// ComputeSpread converts a Shanghai CNY/kg quote into USD per troy ounce and
// returns the converted price together with its spread against COMEX.
// Pure over positive, well-formed inputs; absence is handled by the caller.
func ComputeSpread(comexUSD, shanghaiCNY, fxRate, ouncesPerKg decimal.Decimal) (shanghaiUSD, spreadUSD decimal.Decimal) {
	shanghaiUSD = shanghaiCNY.Div(fxRate).Div(ouncesPerKg)
	spreadUSD = shanghaiUSD.Sub(comexUSD)
	return shanghaiUSD, spreadUSD
}
