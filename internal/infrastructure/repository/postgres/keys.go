package postgres

import (
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// keyPredicate renders the shared id-or-guid lookup filter. arg is the
// positional placeholder index the predicate should use.
func keyPredicate(key domain.Key, arg int) (string, any) {
	if key.ID > 0 {
		return fmt.Sprintf("id = $%d", arg), key.ID
	}
	return fmt.Sprintf("guid = $%d", arg), key.GUID
}
