package access

import (
	"context"
	"fmt"

	"github.com/firstline/sabbatical-engine/directory"
)

// =============================================================================
// RESOLVER - Actor x application -> access level
// =============================================================================

// Target is the slice of an application the resolver needs: whose it is and
// which school it belongs to. Keeping this narrow keeps the resolver free of
// any dependency on the application model.
type Target struct {
	EmployeeEmail    string
	EmployeeLocation string
}

// Resolver computes access levels. It is a pure function of directory state
// and init-time configuration; it performs no writes.
type Resolver struct {
	Directory directory.Directory
	Aliases   *directory.AliasTable
	Chains    *directory.ChainBuilder

	admins             map[string]bool
	schoolLeaderTitles []string
}

// NewResolver builds a resolver from the configured admin allow-list and
// school-leader title set. Admin emails are alias-resolved so that list
// entries written with a secondary spelling still match.
func NewResolver(dir directory.Directory, aliases *directory.AliasTable, chains *directory.ChainBuilder, networkAdmins, schoolLeaderTitles []string) *Resolver {
	admins := make(map[string]bool, len(networkAdmins))
	for _, e := range networkAdmins {
		admins[aliases.Resolve(e)] = true
	}
	return &Resolver{
		Directory:          dir,
		Aliases:            aliases,
		Chains:             chains,
		admins:             admins,
		schoolLeaderTitles: schoolLeaderTitles,
	}
}

// IsAdmin reports allow-list membership for a canonical email.
func (r *Resolver) IsAdmin(email string) bool {
	return r.admins[r.Aliases.Resolve(email)]
}

// IsNetworkAdmin reports whether an employee resolves to network-admin,
// whether by allow-list membership or by leadership title. Wired into the
// chain builder so walks stop at the first network admin regardless of how
// that admin is designated.
func (r *Resolver) IsNetworkAdmin(emp directory.Employee) bool {
	return r.admins[r.Aliases.Resolve(emp.Email)] ||
		ClassifyTitle(emp.JobTitle, r.schoolLeaderTitles) == TitleNetworkLeader
}

// Resolve classifies actorEmail against the target application.
//
// Failure semantics are asymmetric on purpose:
//   - an unknown ACTOR can still be a network admin via the allow-list, but
//     never anything title- or chain-based (no record, no title, no reports)
//   - an unknown TARGET employee resolves to LevelNone (fail-closed)
//   - a directory outage propagates; the caller may retry
func (r *Resolver) Resolve(ctx context.Context, actorEmail string, target Target) (Access, error) {
	actor := r.Aliases.Resolve(actorEmail)

	// 1. Allow-list membership needs no directory at all.
	if r.admins[actor] {
		return Access{Level: LevelNetworkAdmin}, nil
	}

	actorRec, err := r.Directory.Lookup(ctx, actor)
	if err != nil {
		if directory.IsNotFound(err) {
			return Access{Level: LevelNone}, nil
		}
		return Access{}, fmt.Errorf("resolve actor %s: %w", actor, err)
	}

	// 2 & 3. Title-based classification short-circuits chain walking.
	switch ClassifyTitle(actorRec.JobTitle, r.schoolLeaderTitles) {
	case TitleNetworkLeader:
		return Access{Level: LevelNetworkAdmin}, nil
	case TitleSchoolLeader:
		if actorRec.Location != "" && actorRec.Location == target.EmployeeLocation {
			return Access{Level: LevelSchoolLeader, Location: actorRec.Location, ReadOnly: true}, nil
		}
		// A school leader for a different school holds nothing here, but may
		// still be the target's supervisor. Fall through to the chain check.
	}

	// 4. Supervisor relationship: direct manager or anywhere in the chain.
	targetRec, err := r.Directory.Lookup(ctx, r.Aliases.Resolve(target.EmployeeEmail))
	if err != nil {
		if directory.IsNotFound(err) {
			return Access{Level: LevelNone}, nil
		}
		return Access{}, fmt.Errorf("resolve target %s: %w", target.EmployeeEmail, err)
	}

	if r.Aliases.Resolve(targetRec.ManagerEmail) == actor {
		return Access{Level: LevelSupervisor}, nil
	}
	chain, err := r.Chains.Build(ctx, targetRec)
	if err != nil {
		return Access{}, err
	}
	if chain.Contains(actor) {
		return Access{Level: LevelSupervisor}, nil
	}

	return Access{Level: LevelNone}, nil
}
