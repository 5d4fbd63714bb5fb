/*
seed.go - Demo data loader

PURPOSE:
  Loads a small demonstration org chart into the directory so the engine can
  be exercised end to end without a real HRIS sync. Dev convenience only;
  the endpoint is mounted only when a Seeder is wired in.

THE DEMO ORG:
  dana.reed        Teacher, Ashe, hired 2012 (eligible)
  marcus.hall      Teacher, Ashe, hired 2023 (not eligible)
  priya.anand      Assistant Principal, Ashe - manages dana and marcus
  sam.okafor       Principal, Ashe - school leader title
  lena.voss        Ex Dir of Schools - network leader by title keyword
  talent@...       is expected on the network_admins allow-list, not here

SEE ALSO:
  - store/sqlite: SaveEmployee persists the records
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/firstline/sabbatical-engine/directory"
)

// EmployeeSaver persists directory records. Satisfied by the sqlite store.
type EmployeeSaver interface {
	SaveEmployee(ctx context.Context, e directory.Employee) error
}

// Seeder loads demo directory data.
type Seeder struct {
	Saver EmployeeSaver
	Log   logrus.FieldLogger
}

func demoEmployees() []directory.Employee {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []directory.Employee{
		{
			Email: "dana.reed@firstline.example", Name: "Dana Reed",
			HireDate: date(2012, time.August, 1), JobTitle: "Teacher",
			Location: "Ashe", ManagerEmail: "priya.anand@firstline.example",
		},
		{
			Email: "marcus.hall@firstline.example", Name: "Marcus Hall",
			HireDate: date(2023, time.August, 1), JobTitle: "Teacher",
			Location: "Ashe", ManagerEmail: "priya.anand@firstline.example",
		},
		{
			Email: "priya.anand@firstline.example", Name: "Priya Anand",
			HireDate: date(2015, time.July, 1), JobTitle: "Assistant Principal",
			Location: "Ashe", ManagerEmail: "sam.okafor@firstline.example",
		},
		{
			Email: "sam.okafor@firstline.example", Name: "Sam Okafor",
			HireDate: date(2010, time.July, 1), JobTitle: "Principal",
			Location: "Ashe", ManagerEmail: "lena.voss@firstline.example",
		},
		{
			Email: "lena.voss@firstline.example", Name: "Lena Voss",
			HireDate: date(2008, time.July, 1), JobTitle: "Ex Dir of Schools",
			Location: "Network Office", ManagerEmail: "",
		},
	}
}

// Load writes the demo org chart.
// POST /api/seed
func (s *Seeder) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees := demoEmployees()
	for _, e := range employees {
		if err := s.Saver.SaveEmployee(ctx, e); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to seed directory", err)
			return
		}
	}
	if s.Log != nil {
		s.Log.WithField("employees", len(employees)).Info("demo directory seeded")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seeded": len(employees),
	})
}
