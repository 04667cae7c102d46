package ledger

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/eaglebank/ledger-service/shared/models"
	"github.com/eaglebank/ledger-service/shared/utils"
)

// MatchRecipient checks optional payee details against the destination
// account. Names match on normalized equality (case-folded, whitespace
// collapsed); sort codes match on their digits only. Empty inputs are not
// checked.
func MatchRecipient(acct *models.Account, name, sortCode string) error {
	if sortCode != "" && utils.NormalizeSortCode(sortCode) != utils.NormalizeSortCode(acct.SortCode) {
		return fmt.Errorf("%w: sort code %s does not match account %d", ErrRecipientMismatch, sortCode, acct.AccountNo)
	}
	if name != "" && normalizeName(name) != normalizeName(acct.Name) {
		return fmt.Errorf("%w: name %q does not match account %d", ErrRecipientMismatch, name, acct.AccountNo)
	}
	return nil
}

func normalizeName(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == ','
	})
	return strings.ToLower(strings.Join(fields, " "))
}
