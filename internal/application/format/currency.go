package format

import (
	"fmt"
	"strconv"
	"strings"
)

const rupeeSign = "₹"

// ParseINR reads a rupee amount such as "₹1,25,500.00" or "45,50,000" into paise.
// Grouping commas are ignored wherever they appear.
func ParseINR(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, rupeeSign)
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)

	negative := strings.HasPrefix(clean, "-")
	clean = strings.TrimPrefix(clean, "-")

	whole, frac, hasFrac := strings.Cut(clean, ".")
	if !isDigits(whole) {
		return 0, fmt.Errorf("invalid rupee amount %q", s)
	}

	rupees, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rupee amount %q: %w", s, err)
	}

	var paise int64
	if hasFrac {
		if len(frac) > 2 || !isDigits(frac) {
			return 0, fmt.Errorf("invalid paise in amount %q", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		paise, _ = strconv.ParseInt(frac, 10, 64)
	}

	total := rupees*100 + paise
	if negative {
		total = -total
	}
	return total, nil
}

// FormatINR renders paise with Indian digit grouping, e.g. ₹1,25,500.00
func FormatINR(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, rupeeSign, groupIndian(paise/100), paise%100)
}

// FormatINRWhole renders whole rupees without the paise part, e.g. ₹45,50,000
func FormatINRWhole(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return sign + rupeeSign + groupIndian(paise/100)
}

// FormatCrores renders an amount in crores with two decimals, e.g. ₹2.10Cr
func FormatCrores(paise int64) string {
	return fmt.Sprintf("%s%.2fCr", rupeeSign, float64(paise)/100/1e7)
}

// groupIndian puts a comma before the last three digits and then every two
func groupIndian(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatCount groups a non-negative count the Indian way, e.g. 1,245 or 12,54,000
func FormatCount(n int) string {
	return groupIndian(int64(n))
}
