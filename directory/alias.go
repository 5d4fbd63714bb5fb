package directory

import (
	"fmt"
	"strings"
)

// =============================================================================
// ALIAS TABLE - Secondary email -> canonical identity
// =============================================================================

// AliasTable maps secondary email spellings to a canonical identity.
// Resolution is idempotent: a canonical email resolves to itself, and a
// resolved email is always already canonical. The table is built once at
// startup and never mutated.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable validates and builds an alias table from a secondary->canonical
// mapping. Construction fails if any canonical target is itself a secondary
// key (a chain) or if a mapping loops back on itself, since either would break
// the idempotence guarantee.
func NewAliasTable(mapping map[string]string) (*AliasTable, error) {
	aliases := make(map[string]string, len(mapping))
	for from, to := range mapping {
		aliases[NormalizeEmail(from)] = NormalizeEmail(to)
	}
	for from, to := range aliases {
		if from == to {
			return nil, fmt.Errorf("alias %q maps to itself: %w", from, ErrAliasCycle)
		}
		if _, chained := aliases[to]; chained {
			return nil, fmt.Errorf("alias target %q is itself an alias: %w", to, ErrAliasCycle)
		}
	}
	return &AliasTable{aliases: aliases}, nil
}

// EmptyAliasTable returns a table with no mappings (identity resolution).
func EmptyAliasTable() *AliasTable {
	return &AliasTable{aliases: map[string]string{}}
}

// Resolve returns the canonical email for any spelling. Unknown emails are
// returned unchanged (identity default), normalized to lowercase.
func (t *AliasTable) Resolve(email string) string {
	e := NormalizeEmail(email)
	if canonical, ok := t.aliases[e]; ok {
		return canonical
	}
	return e
}

// NormalizeEmail lowercases and trims an email for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
