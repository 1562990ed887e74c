// Package hscode normalizes Harmonized System commodity codes and assigns
// them to processing stages. Classifier output arrives in mixed formats
// ("0801.12", "1704.10.00", "080112"); the Comtrade API wants bare 6-digit
// codes.
package hscode

// CleanCode normalizes a raw HS code to the 6-digit Comtrade form: strip
// every non-digit, truncate to the first 6 digits, right-pad shorter codes
// with zeros. Returns false when no digits remain. The operation is
// idempotent.
func CleanCode(raw string) (string, bool) {
	digits := make([]byte, 0, 6)
	for i := 0; i < len(raw) && len(digits) < 6; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) == 0 {
		return "", false
	}
	for len(digits) < 6 {
		digits = append(digits, '0')
	}
	return string(digits), true
}

// ValidCode reports whether code is a well-formed HS code: 2, 4, or 6
// digits, numeric only.
func ValidCode(code string) bool {
	switch len(code) {
	case 2, 4, 6:
	default:
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
