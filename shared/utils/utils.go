package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var sortCodePattern = regexp.MustCompile(`^\d{2}-?\d{2}-?\d{2}$`)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// NormalizeSortCode keeps only the digits of a sort code ("11-11-11" -> "111111").
func NormalizeSortCode(sortCode string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, sortCode)
}

// FormatSortCode renders six digits in the dashed form "11-11-11".
func FormatSortCode(sortCode string) string {
	d := NormalizeSortCode(sortCode)
	if len(d) != 6 {
		return sortCode
	}
	return d[0:2] + "-" + d[2:4] + "-" + d[4:6]
}

// ValidateSortCode validates the sort code format (six digits, dashes optional)
func ValidateSortCode(sortCode string) bool {
	return sortCodePattern.MatchString(strings.TrimSpace(sortCode))
}

// ValidateAccountNo validates that an account number is a positive integer
func ValidateAccountNo(accountNo int64) bool {
	return accountNo > 0
}
