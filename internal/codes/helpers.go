package codes

import (
	"fmt"
	"strconv"
)

// toInt coerces an int or float64 argument to an int, as accepted from
// CLI/API callers that may hand either representation.
func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("codes: cannot interpret %v as an integer", value)
	}
}

// zeroPad renders n left-padded with zeros to width, matching the
// reference implementation's code_zfill formatting.
func zeroPad(n, width int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		return "-" + s
	}
	return s
}
