/*
Package access computes what an actor may do to a sabbatical application.

PURPOSE:
  Given an actor's canonical email, their directory record, and a target
  application's school, the resolver classifies the actor into one of four
  access levels. Every permission check in the engine goes through this one
  pure computation; nothing else in the codebase inspects job titles or
  allow-lists.

LEVELS (strictly ordered):
  None         no visibility
  Supervisor   read + approve, only for their direct/indirect reports
  SchoolLeader read-only, only for applications from their own school
  NetworkAdmin read + approve + administer, every school

RESOLUTION ORDER (first match wins; the order IS the tie-break policy):
  1. allow-list membership            -> NetworkAdmin
  2. leadership title keyword match   -> NetworkAdmin
  3. school-leader title exact match  -> SchoolLeader (own school only)
  4. supervisor chain membership      -> Supervisor
  5. otherwise                        -> None

SEE ALSO:
  - resolver.go: the resolution algorithm
  - title.go: pure job-title classification
*/
package access

// Level is an actor's access level relative to one application.
type Level int

const (
	LevelNone Level = iota
	LevelSupervisor
	LevelSchoolLeader
	LevelNetworkAdmin
)

func (l Level) String() string {
	switch l {
	case LevelSupervisor:
		return "supervisor"
	case LevelSchoolLeader:
		return "school-leader"
	case LevelNetworkAdmin:
		return "network-admin"
	default:
		return "none"
	}
}

// AtLeast reports whether l grants every capability of other.
// NetworkAdmin implies every lower level.
func (l Level) AtLeast(other Level) bool { return l >= other }

// Access is the resolved relationship between an actor and an application.
type Access struct {
	Level    Level
	Location string // actor's school, set for SchoolLeader scoping
	ReadOnly bool   // true for SchoolLeader
}

// CanApprove reports whether this access level may move an application
// through actor-gated transitions. School leaders observe, never approve.
func (a Access) CanApprove() bool {
	return !a.ReadOnly && a.Level.AtLeast(LevelSupervisor)
}

// CanView reports any visibility at all.
func (a Access) CanView() bool { return a.Level > LevelNone }
