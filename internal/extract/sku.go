package extract

import (
	"regexp"
	"strings"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// CanonicalSKU normalizes a raw SKU to digits only. Leading
// apostrophes are stripped first; historical rows carry one because it
// was used to stop spreadsheets from reformatting long numbers. An
// empty result means the value was never a SKU and the record should
// be dropped.
func CanonicalSKU(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "'")
	return nonDigitRe.ReplaceAllString(s, "")
}
