/*
chain.go - Supervisor chain construction

PURPOSE:
  Builds the ordered list of approvers for an employee by walking the
  manager-of relationship upward. The chain defines who signs off on a
  sabbatical plan and the order approvers are displayed and notified in;
  it does NOT define approval precedence (approvals are commutative).

TERMINATION:
  The walk stops at the first of:
  1. An employee with no manager (top of org)
  2. A manager who resolves to network-admin, by allow-list or by
     leadership title (included as the final link)
  3. MaxHops hops (directory cycle / misconfiguration guard)

  Case 3 marks the chain Truncated and logs a structural warning instead of
  looping forever. The truncated chain is still usable.

DEDUPLICATION:
  Every hop is alias-resolved before comparison, so the same manager reached
  via different alias spellings appears once.

SEE ALSO:
  - types.go: Directory interface
  - access/resolver.go: Uses chain membership for supervisor access
*/
package directory

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultMaxHops bounds chain walks against directory cycles.
const DefaultMaxHops = 10

// ChainLink is one approver in a supervisor chain.
type ChainLink struct {
	Email    string // canonical
	Name     string
	JobTitle string
}

// Chain is an ordered supervisor chain, nearest manager first.
type Chain struct {
	Links     []ChainLink
	Truncated bool // hop bound reached before a natural terminus
}

// Emails returns the ordered canonical emails of the chain.
func (c Chain) Emails() []string {
	out := make([]string, len(c.Links))
	for i, l := range c.Links {
		out[i] = l.Email
	}
	return out
}

// Contains reports whether a canonical email appears anywhere in the chain.
func (c Chain) Contains(email string) bool {
	for _, l := range c.Links {
		if l.Email == email {
			return true
		}
	}
	return false
}

// =============================================================================
// CHAIN BUILDER
// =============================================================================

// ChainBuilder walks manager relationships through the directory.
type ChainBuilder struct {
	Directory Directory
	Aliases   *AliasTable

	// IsAdmin reports whether a looked-up manager is a network admin. A
	// chain ends at the first admin, with the admin included. The hook
	// receives the full record because adminship can come from an
	// allow-list or from the job title; the employee's Email field is
	// already canonical when the hook runs.
	IsAdmin func(emp Employee) bool

	// MaxHops caps the walk. Zero means DefaultMaxHops.
	MaxHops int

	Log logrus.FieldLogger
}

// Build walks from emp upward and returns the supervisor chain.
// A manager email that cannot be found in the directory ends the chain at
// that point rather than failing the whole build: the engine would rather
// collect the approvers it can prove than reject a plan submission over one
// stale directory row. Upstream outages still propagate.
func (b *ChainBuilder) Build(ctx context.Context, emp Employee) (Chain, error) {
	maxHops := b.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	var chain Chain
	seen := map[string]bool{b.Aliases.Resolve(emp.Email): true}
	next := b.Aliases.Resolve(emp.ManagerEmail)

	for hop := 0; next != ""; hop++ {
		if hop >= maxHops {
			chain.Truncated = true
			if b.Log != nil {
				b.Log.WithFields(logrus.Fields{
					"employee": emp.Email,
					"max_hops": maxHops,
				}).Warn("supervisor chain truncated; possible directory cycle")
			}
			break
		}
		if seen[next] {
			// Same identity reached twice via aliasing or a short cycle.
			chain.Truncated = true
			if b.Log != nil {
				b.Log.WithField("employee", emp.Email).Warn("supervisor chain revisited a member; stopping")
			}
			break
		}
		seen[next] = true

		mgr, err := b.Directory.Lookup(ctx, next)
		if err != nil {
			if IsNotFound(err) {
				break
			}
			return Chain{}, fmt.Errorf("chain walk at %s: %w", next, err)
		}

		mgr.Email = b.Aliases.Resolve(mgr.Email)
		chain.Links = append(chain.Links, ChainLink{
			Email:    mgr.Email,
			Name:     mgr.Name,
			JobTitle: mgr.JobTitle,
		})

		if b.IsAdmin != nil && b.IsAdmin(mgr) {
			break
		}
		next = b.Aliases.Resolve(mgr.ManagerEmail)
	}

	return chain, nil
}
