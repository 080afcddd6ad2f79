package tests

import (
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"schoolstats/backend/internal/gateway"
	"schoolstats/backend/internal/records"
	"schoolstats/backend/internal/shared"
	"schoolstats/backend/internal/stats"
	"schoolstats/backend/internal/store/memory"
)

// TestEnv holds all the running components for the test
type TestEnv struct {
	Router http.Handler
	Store  *memory.Store
}

// setupGatewayTestEnv serves the reports of a small in-memory school:
// class A with students s1 and s2, taught math by t1.
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	math := records.Subject{ID: "math", Name: "Math"}
	store := memory.New()
	store.AddSubjects(math)
	store.AddClasses(records.Class{
		ID:       "A",
		Name:     "Class A",
		Subjects: []records.SubjectRef{records.RefTo[records.Subject]("math")},
		Students: []string{"s1", "s2"},
	})
	store.AddTeachers(
		records.Teacher{
			ID:          "t1",
			Name:        "Teacher One",
			Assignments: []records.Assignment{{Subject: records.RefTo[records.Subject]("math"), Class: records.RefTo[records.Class]("A")}},
		},
		records.Teacher{ID: "t2", Name: "No Classes"},
	)
	for _, id := range []string{"s1", "s2"} {
		store.AddStudents(records.Student{
			ID:    id,
			Name:  "Student " + id,
			Class: records.RefTo[records.Class]("A"),
			Attendance: []records.AttendanceRecord{
				{Subject: records.Embed(math), Date: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), Status: records.StatusPresent},
			},
			IsActive: true,
		})
	}
	store.AddExams(records.Exam{ID: "e1", Title: "Quiz", Subject: records.RefTo[records.Subject]("math"), Class: records.RefTo[records.Class]("A")})
	store.AddResults(
		records.ExamResult{ID: "r1", StudentID: "s1", ExamID: "e1", Percentage: 91},
		records.ExamResult{ID: "r2", StudentID: "s2", ExamID: "e1", Percentage: 48},
	)

	cfg := stats.Config{Concurrency: 4, FetchTimeout: time.Second, DiscrepancyTolerance: 5}
	agg := stats.NewAggregator(store, cfg, log.New(io.Discard, "", 0))

	router := gateway.SetupRoutes(agg, shared.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	})

	return &TestEnv{Router: router, Store: store}
}
