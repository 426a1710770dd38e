package cardmarket

import (
	"regexp"
	"strconv"
	"strings"
)

// integer with optional thousands groups: "245", "1.234", "1,234"
const integerPattern = `\d{1,3}(?:[.,\x{00A0}\x{202F}]\d{3})+|\d+`

// integer part, a 2 digit decimal part, then €
const currencyPattern = `(` + integerPattern + `)[.,](\d{2})[\s\x{00A0}\x{202F}]*€`

var (
	currencyRegex = regexp.MustCompile(currencyPattern)
	integerRegex  = regexp.MustCompile(integerPattern)
	separators    = strings.NewReplacer(".", "", ",", "", "\u00a0", "", "\u202f", "")
)

// ParseCurrency finds the first "1.234,56 €" style amount in text. Both comma
// and dot are accepted as decimal separator as long as exactly two decimals
// follow it.
func ParseCurrency(text string) (float64, bool) {
	groups := currencyRegex.FindStringSubmatch(text)
	if groups == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(separators.Replace(groups[1])+"."+groups[2], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// parseInt reads the first integer in text, thousands separators included.
func parseInt(text string) (int, bool) {
	match := integerRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(separators.Replace(match))
	if err != nil {
		return 0, false
	}
	return value, true
}
