// ============================================================================
// backend/internal/store/memory/memory.go
// In-memory record source with call counting and fault injection
// ============================================================================

package memory

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schoolstats/backend/internal/records"
)

// Operations that can be counted, delayed or failed.
const (
	OpStudents   = "students"
	OpStudent    = "student"
	OpTeacher    = "teacher"
	OpClass      = "class"
	OpSubject    = "subject"
	OpExam       = "exam"
	OpAttendance = "attendance"
	OpResults    = "results"
)

// Any matches every id of an operation in Fail and Delay.
const Any = "*"

// Store keeps records in memory. Missing entities are reported with a
// codes.NotFound status, the same way the Mongo store does.
type Store struct {
	mu       sync.RWMutex
	students []records.Student
	teachers map[string]records.Teacher
	classes  map[string]records.Class
	subjects map[string]records.Subject
	exams    map[string]records.Exam
	results  map[string][]records.ExamResult

	faults map[string]error
	delays map[string]time.Duration
	calls  map[string]int
	totals map[string]int
}

func New() *Store {
	return &Store{
		teachers: make(map[string]records.Teacher),
		classes:  make(map[string]records.Class),
		subjects: make(map[string]records.Subject),
		exams:    make(map[string]records.Exam),
		results:  make(map[string][]records.ExamResult),
		faults:   make(map[string]error),
		delays:   make(map[string]time.Duration),
		calls:    make(map[string]int),
		totals:   make(map[string]int),
	}
}

// ============================================================================
// Seeding
// ============================================================================

// AddStudents appends students; a student with a known id replaces the old one.
func (s *Store) AddStudents(students ...records.Student) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range students {
		replaced := false
		for i := range s.students {
			if s.students[i].ID == st.ID {
				s.students[i] = st
				replaced = true
				break
			}
		}
		if !replaced {
			s.students = append(s.students, st)
		}
	}
	return s
}

func (s *Store) AddTeachers(teachers ...records.Teacher) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range teachers {
		s.teachers[t.ID] = t
	}
	return s
}

func (s *Store) AddClasses(classes ...records.Class) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range classes {
		s.classes[c.ID] = c
	}
	return s
}

func (s *Store) AddSubjects(subjects ...records.Subject) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subjects {
		s.subjects[sub.ID] = sub
	}
	return s
}

func (s *Store) AddExams(exams ...records.Exam) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range exams {
		s.exams[e.ID] = e
	}
	return s
}

func (s *Store) AddResults(results ...records.ExamResult) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.results[r.StudentID] = append(s.results[r.StudentID], r)
	}
	return s
}

// ============================================================================
// Fault injection and observability
// ============================================================================

// Fail makes op on id (or on every id with Any) return err.
func (s *Store) Fail(op, id string, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[key(op, id)] = err
	return s
}

// Delay makes op on id (or on every id with Any) block for d or until the
// caller's context is done.
func (s *Store) Delay(op, id string, d time.Duration) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[key(op, id)] = d
	return s
}

// Calls returns how many times op was called for id.
func (s *Store) Calls(op, id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[key(op, id)]
}

// TotalCalls returns how many times op was called for any id.
func (s *Store) TotalCalls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[op]
}

func key(op, id string) string {
	return op + ":" + id
}

func (s *Store) enter(ctx context.Context, op, id string) error {
	s.mu.Lock()
	s.calls[key(op, id)]++
	s.totals[op]++
	d, ok := s.delays[key(op, id)]
	if !ok {
		d = s.delays[key(op, Any)]
	}
	err, ok := s.faults[key(op, id)]
	if !ok {
		err = s.faults[key(op, Any)]
	}
	s.mu.Unlock()

	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// ============================================================================
// Source
// ============================================================================

func (s *Store) Students(ctx context.Context) ([]records.Student, error) {
	if err := s.enter(ctx, OpStudents, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]records.Student{}, s.students...), nil
}

func (s *Store) Student(ctx context.Context, id string) (records.Student, error) {
	if err := s.enter(ctx, OpStudent, id); err != nil {
		return records.Student{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.ID == id {
			return st, nil
		}
	}
	return records.Student{}, status.Errorf(codes.NotFound, "student %s not found", id)
}

func (s *Store) Teacher(ctx context.Context, id string) (records.Teacher, error) {
	return lookup(ctx, s, OpTeacher, id, s.teachers)
}

func (s *Store) Class(ctx context.Context, id string) (records.Class, error) {
	return lookup(ctx, s, OpClass, id, s.classes)
}

func (s *Store) Subject(ctx context.Context, id string) (records.Subject, error) {
	return lookup(ctx, s, OpSubject, id, s.subjects)
}

func (s *Store) Exam(ctx context.Context, id string) (records.Exam, error) {
	return lookup(ctx, s, OpExam, id, s.exams)
}

// Attendance returns the records embedded in the student. An unknown student
// has no attendance.
func (s *Store) Attendance(ctx context.Context, studentID string) ([]records.AttendanceRecord, error) {
	if err := s.enter(ctx, OpAttendance, studentID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.ID == studentID {
			return append([]records.AttendanceRecord(nil), st.Attendance...), nil
		}
	}
	return nil, nil
}

func (s *Store) Results(ctx context.Context, studentID string) ([]records.ExamResult, error) {
	if err := s.enter(ctx, OpResults, studentID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]records.ExamResult(nil), s.results[studentID]...), nil
}

func lookup[T any](ctx context.Context, s *Store, op, id string, m map[string]T) (T, error) {
	var zero T
	if err := s.enter(ctx, op, id); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := m[id]
	if !ok {
		return zero, status.Errorf(codes.NotFound, "%s %s not found", op, id)
	}
	return v, nil
}
