package model

import "github.com/shopspring/decimal"

// Stocks is the static instrument catalog. Loaded once, never mutated.
var Stocks = []Stock{
	{Symbol: "RELIANCE", Name: "Reliance Industries", Sector: "Energy", BasePrice: decimal.NewFromInt(2450), Volatility: 0.4, LotSize: 1},
	{Symbol: "TCS", Name: "Tata Consultancy Services", Sector: "IT", BasePrice: decimal.NewFromInt(3750), Volatility: 0.35, LotSize: 1},
	{Symbol: "HDFCBANK", Name: "HDFC Bank", Sector: "Banking", BasePrice: decimal.NewFromInt(1650), Volatility: 0.3, LotSize: 1},
	{Symbol: "INFY", Name: "Infosys", Sector: "IT", BasePrice: decimal.NewFromInt(1520), Volatility: 0.4, LotSize: 1},
	{Symbol: "ICICIBANK", Name: "ICICI Bank", Sector: "Banking", BasePrice: decimal.NewFromInt(1180), Volatility: 0.35, LotSize: 1},
	{Symbol: "SBIN", Name: "State Bank of India", Sector: "Banking", BasePrice: decimal.NewFromInt(780), Volatility: 0.45, LotSize: 1},
	{Symbol: "BHARTIARTL", Name: "Bharti Airtel", Sector: "Telecom", BasePrice: decimal.NewFromInt(1420), Volatility: 0.35, LotSize: 1},
	{Symbol: "TATAMOTORS", Name: "Tata Motors", Sector: "Auto", BasePrice: decimal.NewFromInt(850), Volatility: 0.55, LotSize: 1},
	{Symbol: "WIPRO", Name: "Wipro", Sector: "IT", BasePrice: decimal.NewFromInt(480), Volatility: 0.4, LotSize: 1},
	{Symbol: "ADANIENT", Name: "Adani Enterprises", Sector: "Diversified", BasePrice: decimal.NewFromInt(2850), Volatility: 0.7, LotSize: 1},
}

// Scenarios is the static market-regime catalog.
var Scenarios = []ScenarioConfig{
	{
		ID:                   "bullish",
		Name:                 "Bull Run",
		Description:          "Strong upward momentum with occasional pullbacks",
		TrendBias:            0.6,
		VolatilityMultiplier: 1.0,
		FakeBreakoutChance:   0.1,
		NewsEventChance:      0.05,
	},
	{
		ID:                   "bearish",
		Name:                 "Bear Market",
		Description:          "Downward pressure with dead cat bounces",
		TrendBias:            -0.6,
		VolatilityMultiplier: 1.2,
		FakeBreakoutChance:   0.15,
		NewsEventChance:      0.08,
	},
	{
		ID:                   "range",
		Name:                 "Range Bound",
		Description:          "Sideways movement within tight bands",
		TrendBias:            0,
		VolatilityMultiplier: 0.6,
		FakeBreakoutChance:   0.25,
		NewsEventChance:      0.03,
	},
	{
		ID:                   "volatile",
		Name:                 "High Volatility",
		Description:          "Wild swings in both directions",
		TrendBias:            0,
		VolatilityMultiplier: 2.0,
		FakeBreakoutChance:   0.2,
		NewsEventChance:      0.15,
	},
}

// StockBySymbol resolves a catalog stock, falling back to the first entry
// when the symbol is unknown.
func StockBySymbol(symbol string) Stock {
	for _, s := range Stocks {
		if s.Symbol == symbol {
			return s
		}
	}
	return Stocks[0]
}

// ScenarioByID resolves a scenario, falling back to the first entry when the
// id is unknown.
func ScenarioByID(id string) ScenarioConfig {
	for _, s := range Scenarios {
		if s.ID == id {
			return s
		}
	}
	return Scenarios[0]
}
