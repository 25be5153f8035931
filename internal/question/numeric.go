package question

import (
	"math/big"
	"strings"
)

// normalizeNumber parses integers, decimals and fractions and returns the
// value in lowest terms ("7", "-3/4"). Equivalent forms normalize
// identically: "007", "7.0" and "14/2" all become "7"; "0.5" and "2/4"
// become "1/2".
func normalizeNumber(s string) (string, bool) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return "", false
	}
	// Rat.SetString also accepts hex and exponent forms; learners never
	// mean those.
	if strings.ContainsAny(s, "xXeEpP_") {
		return "", false
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, den := s[:i], s[i+1:]
		if num == "" || den == "" || strings.ContainsAny(den, "+-.") {
			return "", false
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", false
	}
	return r.RatString(), true
}
