package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Key identifies an entity by numeric id or external guid.
// Exactly one of the two fields is set.
type Key struct {
	ID   int64
	GUID string
}

func KeyFromID(id int64) Key { return Key{ID: id} }

func KeyFromGUID(guid string) Key { return Key{GUID: guid} }

// ParseKey accepts either a decimal id or a guid string. Guids are
// validated up front: the guid columns are typed uuid, and an
// unparseable value would otherwise turn into a database syntax error
// instead of a clean invalid-input rejection.
func ParseKey(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Key{}, WrapError(ErrInvalidInput, "parse key", errors.New("empty key"))
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if id <= 0 {
			return Key{}, WrapError(ErrInvalidInput, "parse key", errors.New("non-positive id"))
		}
		return Key{ID: id}, nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return Key{}, WrapError(ErrInvalidInput, "parse key",
			fmt.Errorf("key %q is neither a positive id nor a uuid", raw))
	}
	return Key{GUID: raw}, nil
}

func (k Key) IsZero() bool { return k.ID == 0 && k.GUID == "" }

func (k Key) String() string {
	if k.ID > 0 {
		return strconv.FormatInt(k.ID, 10)
	}
	return k.GUID
}

// Page describes offset pagination for list reads.
type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	out := p
	if out.Number < 1 {
		out.Number = 1
	}
	if out.Size < 1 {
		out.Size = 20
	}
	if out.Size > 200 {
		out.Size = 200
	}
	return out
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }
