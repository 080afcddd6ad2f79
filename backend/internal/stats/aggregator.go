// ============================================================================
// backend/internal/stats/aggregator.go
// Builds roster, student, class and teacher reports from a Source
// ============================================================================

package stats

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"schoolstats/backend/internal/fanout"
	"schoolstats/backend/internal/records"
	"schoolstats/backend/internal/resolver"
	"schoolstats/backend/internal/roster"
)

// Aggregator is safe for concurrent use; every report call gets its own
// resolver and warning list.
type Aggregator struct {
	src Source
	cfg Config
	log *log.Logger
}

// NewAggregator creates an aggregator reading from src. Unset config fields
// take their defaults; a nil logger means log.Default().
func NewAggregator(src Source, cfg Config, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{src: src, cfg: cfg.withDefaults(), log: logger}
}

// ============================================================================
// Reports
// ============================================================================

// TeacherRoster lists the students reachable through the teacher's assignments.
func (a *Aggregator) TeacherRoster(ctx context.Context, teacherID string) (*RosterReport, error) {
	r := a.newRun()
	teacher, students, err := r.loadTeacherAndStudents(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	ro := roster.StudentsForTeacher(ctx, r.res, teacher, students)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.rosterReport(ctx, ro.Students, ro), nil
}

// SubjectRoster narrows the teacher's roster to the classes where subjectID is
// taught by that teacher.
func (a *Aggregator) SubjectRoster(ctx context.Context, teacherID, subjectID string) (*RosterReport, error) {
	r := a.newRun()
	teacher, students, err := r.loadTeacherAndStudents(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	ro := roster.StudentsForTeacher(ctx, r.res, teacher, students)
	selected := ro.Students
	if !ro.NoAssignments {
		selected = roster.StudentsForSubjectInClass(ctx, r.res, teacher, subjectID, ro.Students)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.rosterReport(ctx, selected, ro), nil
}

func (a *Aggregator) StudentReport(ctx context.Context, studentID string) (*StudentReport, error) {
	r := a.newRun()
	student, err := loadBase(ctx, r, "student", studentID, a.src.Student)
	if err != nil {
		return nil, err
	}

	ds, err := r.collect(ctx, []records.Student{student})
	if err != nil {
		return nil, err
	}

	subjects := []string{}
	if ref, ok := r.res.Class(ctx, student.Class); ok {
		class, _ := ref.Resolved()
		subjects = r.subjectNames(ctx, class)
	}

	recs := ds.attendance[student.ID]
	results := ds.results[student.ID]
	report := &StudentReport{
		RunID:               r.id,
		Student:             r.entry(ctx, student),
		Subjects:            subjects,
		Attendance:          AttendanceStats(recs),
		AttendanceBySubject: AttendanceBySubject(recs),
		Exams:               BuildExamReport(results, ds.exams),
	}
	if len(student.ExamResults) > 0 {
		legacy := BuildExamReport(LegacyResults(student))
		report.LegacyExams = &legacy
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Warnings = r.finish()
	return report, nil
}

// ClassReport covers every member of the class: students it enumerates and
// students referencing it. Results of exams set for another class are left out.
func (a *Aggregator) ClassReport(ctx context.Context, classID string) (*ClassReport, error) {
	r := a.newRun()
	class, err := loadBase(ctx, r, "class", classID, a.src.Class)
	if err != nil {
		return nil, err
	}
	students, err := r.loadStudents(ctx)
	if err != nil {
		return nil, err
	}

	for _, note := range roster.CheckMembership(class, students) {
		r.warn(note)
	}
	members := roster.Members(class, students)

	ds, err := r.collect(ctx, members)
	if err != nil {
		return nil, err
	}

	var (
		recs    []records.AttendanceRecord
		results []records.ExamResult
	)
	entries := make([]RosterEntry, 0, len(members))
	for _, s := range members {
		entries = append(entries, r.entry(ctx, s))
		recs = append(recs, ds.attendance[s.ID]...)
		for _, res := range ds.results[s.ID] {
			if exam, ok := ds.exams[res.ExamID]; ok && !exam.Class.IsZero() && exam.Class.ID() != class.ID {
				continue
			}
			results = append(results, res)
		}
	}

	report := &ClassReport{
		RunID:      r.id,
		ClassID:    class.ID,
		ClassName:  class.Name,
		Subjects:   r.subjectNames(ctx, class),
		Students:   entries,
		TotalCount: len(entries),
		Attendance: AttendanceStats(recs),
		Exams:      BuildExamReport(results, ds.exams),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Warnings = r.finish()
	return report, nil
}

// TeacherReport summarises the teacher's roster. Attendance and exam results
// only count when their subject is one the teacher teaches in the student's
// class; results whose exam is unknown are left out.
func (a *Aggregator) TeacherReport(ctx context.Context, teacherID string) (*TeacherReport, error) {
	r := a.newRun()
	teacher, students, err := r.loadTeacherAndStudents(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	ro := roster.StudentsForTeacher(ctx, r.res, teacher, students)
	for _, w := range ro.Warnings {
		r.warn(w)
	}

	report := &TeacherReport{
		RunID:         r.id,
		TeacherID:     teacher.ID,
		TeacherName:   teacher.Name,
		Placements:    []roster.Placement{},
		NoAssignments: ro.NoAssignments,
		Students:      []StudentRow{},
	}

	var (
		allRecs    []records.AttendanceRecord
		allResults []records.ExamResult
		exams      map[string]records.Exam
	)

	if !ro.NoAssignments {
		reach := ro.Reach
		scope := reach.Scope()
		if len(reach.Placements) > 0 {
			report.Placements = reach.Placements
		}

		ds, err := r.collect(ctx, ro.Students)
		if err != nil {
			return nil, err
		}
		exams = ds.exams

		unknown := 0
		for _, s := range ro.Students {
			classRef, _ := r.res.Class(ctx, s.Class)
			classID := classRef.ID()

			var recs []records.AttendanceRecord
			for _, rec := range ds.attendance[s.ID] {
				if scope.Covers(classID, rec.Subject.ID()) {
					recs = append(recs, rec)
				}
			}

			var results []records.ExamResult
			for _, res := range ds.results[s.ID] {
				exam, ok := ds.exams[res.ExamID]
				if !ok {
					unknown++
					continue
				}
				if scope.Covers(classID, exam.Subject.ID()) {
					results = append(results, res)
				}
			}

			report.Students = append(report.Students, StudentRow{
				RosterEntry:    r.entry(ctx, s),
				Subjects:       reach.SubjectsForClass(classID),
				AttendanceRate: AttendanceStats(recs).Rate,
				AverageScore:   ExamStats(results, ds.exams).AverageScore,
				Submissions:    len(results),
			})
			allRecs = append(allRecs, recs...)
			allResults = append(allResults, results...)
		}
		if unknown > 0 {
			r.warn(fmt.Sprintf("%d results with an unknown exam left out of teacher %s report", unknown, teacher.ID))
		}
	}

	report.TotalCount = len(report.Students)
	report.Attendance = AttendanceStats(allRecs)
	report.Exams = BuildExamReport(allResults, exams)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Warnings = r.finish()
	return report, nil
}

// ============================================================================
// Per-request state
// ============================================================================

type run struct {
	a   *Aggregator
	id  string
	res *resolver.Resolver

	mu       sync.Mutex
	warnings []string
	seen     map[string]struct{}
}

func (a *Aggregator) newRun() *run {
	return &run{
		a:    a,
		id:   uuid.NewString(),
		res:  resolver.New(a.src.Subject, a.src.Class, resolver.WithTimeout(a.cfg.FetchTimeout)),
		seen: make(map[string]struct{}),
	}
}

func (r *run) opts() fanout.Options {
	return fanout.Options{Limit: r.a.cfg.Concurrency, Timeout: r.a.cfg.FetchTimeout}
}

// warn records msg once and logs it. Empty messages are ignored.
func (r *run) warn(msg string) {
	if msg == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[msg]; dup {
		return
	}
	r.seen[msg] = struct{}{}
	r.warnings = append(r.warnings, msg)
	r.a.log.Printf("WARN: [run %s] %s", r.id, msg)
}

// finish folds the resolver's notes into the run and returns all warnings.
func (r *run) finish() []string {
	for _, w := range r.res.Warnings() {
		r.warn(w)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.warnings) == 0 {
		return nil
	}
	return append([]string(nil), r.warnings...)
}

// loadBase fetches an entity the report cannot be built without.
func loadBase[T any](ctx context.Context, r *run, entity, id string, fetch func(context.Context, string) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.a.cfg.FetchTimeout)
	defer cancel()

	v, err := fetch(callCtx, id)
	if err == nil {
		return v, nil
	}
	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	r.a.log.Printf("WARN: [run %s] cannot load %s %s: %v", r.id, entity, id, err)
	return zero, &BaseRosterError{Entity: entity, ID: id, Err: err}
}

func (r *run) loadStudents(ctx context.Context) ([]records.Student, error) {
	return loadBase(ctx, r, "students", "", func(ctx context.Context, _ string) ([]records.Student, error) {
		return r.a.src.Students(ctx)
	})
}

func (r *run) loadTeacherAndStudents(ctx context.Context, teacherID string) (records.Teacher, []records.Student, error) {
	teacher, err := loadBase(ctx, r, "teacher", teacherID, r.a.src.Teacher)
	if err != nil {
		return records.Teacher{}, nil, err
	}
	students, err := r.loadStudents(ctx)
	if err != nil {
		return records.Teacher{}, nil, err
	}
	return teacher, students, nil
}

func (r *run) rosterReport(ctx context.Context, students []records.Student, ro roster.Roster) *RosterReport {
	for _, w := range ro.Warnings {
		r.warn(w)
	}
	entries := make([]RosterEntry, 0, len(students))
	for _, s := range students {
		entries = append(entries, r.entry(ctx, s))
	}
	return &RosterReport{
		RunID:         r.id,
		Students:      entries,
		TotalCount:    len(entries),
		NoAssignments: ro.NoAssignments,
		Warnings:      r.finish(),
	}
}

func (r *run) entry(ctx context.Context, s records.Student) RosterEntry {
	e := RosterEntry{
		ID:         s.ID,
		Name:       s.Name,
		RollNumber: s.RollNumber,
		ClassID:    s.Class.ID(),
		IsActive:   s.IsActive,
	}
	if ref, ok := r.res.Class(ctx, s.Class); ok {
		c, _ := ref.Resolved()
		e.ClassName = c.Name
	}
	return e
}

func (r *run) subjectNames(ctx context.Context, class records.Class) []string {
	names := make([]string, 0, len(class.Subjects))
	for _, ref := range class.Subjects {
		names = append(names, r.res.SubjectName(ctx, ref))
	}
	return names
}

// ============================================================================
// Sub-fetches
// ============================================================================

// dataset holds the per-student records of one report, keyed by student id.
// Attendance subjects are resolved where possible and exams carry resolved
// subjects.
type dataset struct {
	attendance map[string][]records.AttendanceRecord
	results    map[string][]records.ExamResult
	exams      map[string]records.Exam
}

type fetchJob struct {
	studentID string
	results   bool
}

type fetched struct {
	attendance []records.AttendanceRecord
	results    []records.ExamResult
}

// collect fetches attendance and results of every student with bounded
// concurrency, then the distinct exams they refer to. A failed fetch leaves
// that student with no records and a warning.
func (r *run) collect(ctx context.Context, students []records.Student) (*dataset, error) {
	jobs := make([]fetchJob, 0, 2*len(students))
	for _, s := range students {
		jobs = append(jobs, fetchJob{studentID: s.ID}, fetchJob{studentID: s.ID, results: true})
	}

	out := fanout.Map(ctx, r.opts(), jobs, func(ctx context.Context, j fetchJob) (fetched, error) {
		if j.results {
			res, err := r.a.src.Results(ctx, j.studentID)
			return fetched{results: res}, err
		}
		att, err := r.a.src.Attendance(ctx, j.studentID)
		return fetched{attendance: att}, err
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds := &dataset{
		attendance: make(map[string][]records.AttendanceRecord, len(students)),
		results:    make(map[string][]records.ExamResult, len(students)),
	}
	var subjectRefs []records.SubjectRef
	for i, s := range students {
		att := outcomeOf(fanout.Result[[]records.AttendanceRecord]{Value: out[2*i].Value.attendance, Err: out[2*i].Err})
		res := outcomeOf(fanout.Result[[]records.ExamResult]{Value: out[2*i+1].Value.results, Err: out[2*i+1].Err})
		r.warn(att.Warning("attendance", s.ID))
		r.warn(res.Warning("exam results", s.ID))

		for _, rec := range att.Values {
			subjectRefs = append(subjectRefs, rec.Subject)
		}
		ds.attendance[s.ID] = att.Values
		ds.results[s.ID] = res.Values

		for _, note := range Discrepancies(res.Values, r.a.cfg.DiscrepancyTolerance) {
			r.warn(note)
		}
	}

	r.resolveSubjects(ctx, subjectRefs)
	for id, recs := range ds.attendance {
		ds.attendance[id] = r.withSubjects(ctx, recs)
	}

	exams, err := r.fetchExams(ctx, students, ds.results)
	if err != nil {
		return nil, err
	}
	ds.exams = exams
	return ds, nil
}

// resolveSubjects warms the resolver with the distinct unresolved subject ids
// of refs, resolving them concurrently.
func (r *run) resolveSubjects(ctx context.Context, refs []records.SubjectRef) {
	var pending []records.SubjectRef
	seen := make(map[string]struct{})
	for _, ref := range refs {
		if _, ok := ref.Resolved(); ok || ref.IsZero() {
			continue
		}
		if _, dup := seen[ref.ID()]; dup {
			continue
		}
		seen[ref.ID()] = struct{}{}
		pending = append(pending, ref)
	}

	fanout.Map(ctx, r.opts(), pending, func(ctx context.Context, ref records.SubjectRef) (bool, error) {
		_, ok := r.res.Subject(ctx, ref)
		return ok, nil
	})
}

// withSubjects returns a copy of recs with resolved subject references.
func (r *run) withSubjects(ctx context.Context, recs []records.AttendanceRecord) []records.AttendanceRecord {
	if recs == nil {
		return nil
	}
	out := make([]records.AttendanceRecord, len(recs))
	for i, rec := range recs {
		rec.Subject, _ = r.res.Subject(ctx, rec.Subject)
		out[i] = rec
	}
	return out
}

func (r *run) fetchExams(ctx context.Context, students []records.Student, results map[string][]records.ExamResult) (map[string]records.Exam, error) {
	var ids []string
	seen := make(map[string]struct{})
	for _, s := range students {
		for _, res := range results[s.ID] {
			if _, dup := seen[res.ExamID]; dup || res.ExamID == "" {
				continue
			}
			seen[res.ExamID] = struct{}{}
			ids = append(ids, res.ExamID)
		}
	}

	out := fanout.Map(ctx, r.opts(), ids, r.a.src.Exam)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// subjects are resolved in their own batch so a slow exam fetch cannot
	// starve the lookup of a subject other exams share
	var subjectRefs []records.SubjectRef
	for _, o := range out {
		if o.Err == nil {
			subjectRefs = append(subjectRefs, o.Value.Subject)
		}
	}
	r.resolveSubjects(ctx, subjectRefs)

	exams := make(map[string]records.Exam, len(ids))
	for i, o := range out {
		switch {
		case o.Err == nil:
			exam := o.Value
			exam.Subject, _ = r.res.Subject(ctx, exam.Subject)
			exams[ids[i]] = exam
		case resolver.IsNotFound(o.Err):
			r.warn(fmt.Sprintf("exam %s not found", ids[i]))
		default:
			r.warn(fmt.Sprintf("exam %s fetch failed: %v", ids[i], o.Err))
		}
	}
	return exams, nil
}
