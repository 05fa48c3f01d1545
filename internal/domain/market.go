package domain

// Market identifies which venue universe a symbol belongs to.
type Market string

const (
	MarketStocks Market = "stocks"
	MarketCrypto Market = "crypto"
)

func (m Market) IsValid() bool {
	return m == MarketStocks || m == MarketCrypto
}

// SupportedStocks lists the tracked equity symbols.
var SupportedStocks = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"META", "TSLA", "JPM", "V", "JNJ",
}

// SupportedCrypto lists the tracked crypto symbols.
var SupportedCrypto = []string{
	"BTC", "ETH", "SOL", "XRP", "ADA",
	"DOGE", "DOT", "AVAX", "LINK", "MATIC",
}

// CoinGeckoID maps crypto symbols to CoinGecko API identifiers.
var CoinGeckoID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
}

// CoinGeckoIDToSymbol is the reverse mapping.
var CoinGeckoIDToSymbol map[string]string

func init() {
	CoinGeckoIDToSymbol = make(map[string]string, len(CoinGeckoID))
	for sym, id := range CoinGeckoID {
		CoinGeckoIDToSymbol[id] = sym
	}
}

// AllSymbols returns every tracked symbol across both markets.
func AllSymbols() []string {
	out := make([]string, 0, len(SupportedStocks)+len(SupportedCrypto))
	out = append(out, SupportedStocks...)
	out = append(out, SupportedCrypto...)
	return out
}

// MarketOf resolves the market a symbol trades in. The second return is
// false for unknown symbols.
func MarketOf(symbol string) (Market, bool) {
	if _, ok := CoinGeckoID[symbol]; ok {
		return MarketCrypto, true
	}
	for _, s := range SupportedStocks {
		if s == symbol {
			return MarketStocks, true
		}
	}
	return "", false
}

// SupportedIntervals defines the candle intervals we store.
var SupportedIntervals = []string{"5m", "15m", "1h", "4h", "1d"}

func IsSupportedInterval(interval string) bool {
	for _, si := range SupportedIntervals {
		if si == interval {
			return true
		}
	}
	return false
}
