package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"schoolstats/backend/internal/records"
)

// Source is the fetch capability the aggregator reads from. Implementations
// must be safe for concurrent use. Missing entities should be reported with
// resolver.ErrNotFound or a codes.NotFound status.
type Source interface {
	Students(ctx context.Context) ([]records.Student, error)
	Student(ctx context.Context, id string) (records.Student, error)
	Teacher(ctx context.Context, id string) (records.Teacher, error)
	Class(ctx context.Context, id string) (records.Class, error)
	Subject(ctx context.Context, id string) (records.Subject, error)
	Exam(ctx context.Context, id string) (records.Exam, error)
	Attendance(ctx context.Context, studentID string) ([]records.AttendanceRecord, error)
	Results(ctx context.Context, studentID string) ([]records.ExamResult, error)
}

// ErrBaseRoster marks a failure to load the data a report cannot do without.
var ErrBaseRoster = errors.New("base roster unavailable")

// BaseRosterError reports which base entity could not be loaded. It matches
// both ErrBaseRoster and the underlying error.
type BaseRosterError struct {
	Entity string
	ID     string
	Err    error
}

func (e *BaseRosterError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: cannot load %s: %v", ErrBaseRoster, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s: cannot load %s %s: %v", ErrBaseRoster, e.Entity, e.ID, e.Err)
}

func (e *BaseRosterError) Unwrap() []error {
	return []error{ErrBaseRoster, e.Err}
}

// ============================================================================
// Config
// ============================================================================

type Config struct {
	Concurrency          int           `validate:"min=1,max=64"`
	FetchTimeout         time.Duration `validate:"gt=0"`
	DiscrepancyTolerance float64       `validate:"gte=0,lte=100"`
}

func DefaultConfig() Config {
	return Config{
		Concurrency:          8,
		FetchTimeout:         5 * time.Second,
		DiscrepancyTolerance: 5,
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid report config: %w", err)
	}
	return nil
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.DiscrepancyTolerance < 0 {
		c.DiscrepancyTolerance = d.DiscrepancyTolerance
	}
	return c
}
