package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// TenorMonths converts tenor strings like "3M", "1Y" or "10Y" to a number of months.
func TenorMonths(tenor string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if len(s) < 2 {
		return 0, fmt.Errorf("TenorMonths: invalid tenor %q", tenor)
	}
	unit := s[len(s)-1]
	v, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("TenorMonths: invalid tenor %q: %w", tenor, err)
	}
	switch unit {
	case 'M':
		return v, nil
	case 'Y':
		return 12 * v, nil
	default:
		return 0, fmt.Errorf("TenorMonths: unsupported unit in %q", tenor)
	}
}
