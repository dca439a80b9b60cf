package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// Amount strings are display artifacts, not critical data: parsing
// never fails, it degrades to (0, "USD").

var amountPattern = regexp.MustCompile(`([^\s\d.,]+)?\s*([\d.,]+)\s*([A-Z]{3})?`)

// currencySymbols maps display symbols to ISO 4217 codes. The dollar
// variants match before the bare "$" because the symbol group is
// greedy.
var currencySymbols = map[string]string{
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"￥":   "JPY",
	"$":   "USD",
	"₽":   "RUB",
	"₹":   "INR",
	"₩":   "KRW",
	"₱":   "PHP",
	"฿":   "THB",
	"₫":   "VND",
	"R$":  "BRL",
	"A$":  "AUD",
	"CA$": "CAD",
	"HK$": "HKD",
	"NT$": "TWD",
	"NZ$": "NZD",
	"MX$": "MXN",
}

// ParseAmount parses a superchat display string like "$9.99" or
// "￥1,500" into a decimal value and an ISO currency code. A trailing
// 3-letter code wins over a leading symbol; unrecognized symbols are
// upper-cased and returned as-is; unparseable input yields (0, "USD").
func ParseAmount(s string) (float64, string) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil && v >= 0 {
			return v, "USD"
		}
		return 0, "USD"
	}
	symbol, digits, code := m[1], m[2], m[3]
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0, "USD"
	}
	switch {
	case code != "":
		return v, strings.ToUpper(code)
	case symbol != "":
		if iso, ok := currencySymbols[symbol]; ok {
			return v, iso
		}
		return v, strings.ToUpper(symbol)
	default:
		return v, "USD"
	}
}
