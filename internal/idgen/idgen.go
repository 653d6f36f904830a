package idgen

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh identifier of the form "<prefix>_<ulid>", lower-cased
// so ids stay uniform with the rest of the JSON payloads.
func New(prefix string) string {
	id := strings.ToLower(ulid.Make().String())
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
