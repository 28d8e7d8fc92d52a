package model

import "strings"

// Currency Types
type Currency string

const (
	CurrencyAED Currency = "AED"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyTRY Currency = "TRY"
	CurrencyTHB Currency = "THB"
	CurrencyGEL Currency = "GEL"
)

// DefaultCurrency applies when no keyword matches. Source documents are
// overwhelmingly UAE off-plan sales.
const DefaultCurrency = CurrencyAED

type currencyRule struct {
	keyword  string
	currency Currency
}

// Ordered: more specific keywords first.
var currencyTable = []currencyRule{
	{"dubai", CurrencyAED},
	{"abu dhabi", CurrencyAED},
	{"sharjah", CurrencyAED},
	{"ajman", CurrencyAED},
	{"ras al khaimah", CurrencyAED},
	{"palm jumeirah", CurrencyAED},
	{"jumeirah", CurrencyAED},
	{"downtown", CurrencyAED},
	{"business bay", CurrencyAED},
	{"uae", CurrencyAED},
	{"london", CurrencyGBP},
	{"manchester", CurrencyGBP},
	{"united kingdom", CurrencyGBP},
	{"istanbul", CurrencyTRY},
	{"antalya", CurrencyTRY},
	{"bodrum", CurrencyTRY},
	{"turkey", CurrencyTRY},
	{"bangkok", CurrencyTHB},
	{"phuket", CurrencyTHB},
	{"pattaya", CurrencyTHB},
	{"thailand", CurrencyTHB},
	{"tbilisi", CurrencyGEL},
	{"batumi", CurrencyGEL},
	{"georgia", CurrencyGEL},
	{"lisbon", CurrencyEUR},
	{"barcelona", CurrencyEUR},
	{"madrid", CurrencyEUR},
	{"paris", CurrencyEUR},
	{"berlin", CurrencyEUR},
	{"limassol", CurrencyEUR},
	{"cyprus", CurrencyEUR},
	{"miami", CurrencyUSD},
	{"new york", CurrencyUSD},
	{"united states", CurrencyUSD},
}

// CurrencyFor infers the price currency from a free-text location.
func CurrencyFor(location string) Currency {
	loc := strings.ToLower(location)
	for _, rule := range currencyTable {
		if strings.Contains(loc, rule.keyword) {
			return rule.currency
		}
	}
	return DefaultCurrency
}
