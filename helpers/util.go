package helpers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var priceDigits = regexp.MustCompile(`\d[\d,]*`)

// ParsePrice extracts the first whole-unit amount from text such as
// "NT$ 19,000" or "$1,299起". Decimal fractions are dropped.
func ParsePrice(text string) (int, error) {
	match := priceDigits.FindString(text)
	if match == "" {
		return 0, errors.New("no price in text")
	}
	value, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
