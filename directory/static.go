package directory

import (
	"context"
	"sync"
)

// =============================================================================
// STATIC DIRECTORY - Map-backed implementation (tests, seeding, demos)
// =============================================================================

// StaticDirectory serves Employee records from memory. The production server
// reads the employee table loaded into the record store; this implementation
// backs tests and the demo seed.
type StaticDirectory struct {
	mu        sync.RWMutex
	employees map[string]Employee
	down      bool
}

func NewStaticDirectory(employees ...Employee) *StaticDirectory {
	d := &StaticDirectory{employees: make(map[string]Employee, len(employees))}
	for _, e := range employees {
		d.employees[NormalizeEmail(e.Email)] = e
	}
	return d
}

// Add inserts or replaces a record.
func (d *StaticDirectory) Add(e Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[NormalizeEmail(e.Email)] = e
}

// SetUnavailable makes every Lookup fail with ErrDirectoryUnavailable.
// Used to test fail-closed behavior.
func (d *StaticDirectory) SetUnavailable(down bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.down = down
}

func (d *StaticDirectory) Lookup(_ context.Context, email string) (Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.down {
		return Employee{}, ErrDirectoryUnavailable
	}
	e, ok := d.employees[NormalizeEmail(email)]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}
