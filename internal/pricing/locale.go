package pricing

import (
	"strconv"
	"strings"
)

// Locale is a coarse pricing region.
type Locale string

const (
	LocaleUS      Locale = "US"
	LocaleIndia   Locale = "INDIA"
	LocaleDefault Locale = "default"
)

// Price keys read by the catalog.
const (
	KeyBasic    = "basic"
	KeyStandard = "standard"
	KeyPremium  = "premium"
	KeyExtra    = "Extra"
	KeyExtended = "Extended"
	KeyUrgent   = "Urgent"
)

var priceTable = map[Locale]map[string]int{
	LocaleUS: {
		KeyBasic:    100,
		KeyStandard: 150,
		KeyPremium:  200,
		KeyExtra:    10,
		KeyExtended: 25,
		KeyUrgent:   30,
	},
	LocaleIndia: {
		KeyBasic:    3000,
		KeyStandard: 5000,
		KeyPremium:  7500,
		KeyExtra:    500,
		KeyExtended: 1500,
		KeyUrgent:   2000,
	},
	LocaleDefault: {
		KeyBasic:    100,
		KeyStandard: 150,
		KeyPremium:  200,
		KeyExtra:    10,
		KeyExtended: 25,
		KeyUrgent:   30,
	},
}

// PriceFor returns the integer price of key in the locale's table. Unknown
// locales read the default column; unknown keys price at zero.
func PriceFor(locale Locale, key string) int {
	if table, ok := priceTable[locale]; ok {
		if price, ok := table[key]; ok {
			return price
		}
	}
	return priceTable[LocaleDefault][key]
}

// FromCountryCode maps an ISO country code to a pricing locale.
func FromCountryCode(code string) Locale {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "US":
		return LocaleUS
	case "IN":
		return LocaleIndia
	default:
		return LocaleDefault
	}
}

// ParseLocale accepts the canonical names and falls back to default.
func ParseLocale(value string) Locale {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "US":
		return LocaleUS
	case "INDIA", "IN":
		return LocaleIndia
	default:
		return LocaleDefault
	}
}

// Currency returns the ISO currency code charged in the locale.
func Currency(locale Locale) string {
	if locale == LocaleIndia {
		return "INR"
	}
	return "USD"
}

// CurrencySymbol returns the display symbol for the locale.
func CurrencySymbol(locale Locale) string {
	if locale == LocaleIndia {
		return "₹"
	}
	return "$"
}

// FormatPrice renders a price with the locale's currency symbol.
func FormatPrice(locale Locale, price int) string {
	return CurrencySymbol(locale) + strconv.Itoa(price)
}
