// ============================================================================
// backend/internal/stats/folds.go
// Pure folds from attendance records and exam results to summary metrics
// ============================================================================

package stats

import (
	"fmt"
	"math"

	"schoolstats/backend/internal/grading"
	"schoolstats/backend/internal/records"
)

// round rounds half up to the nearest integer
func round(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}

func percentOf(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return round(100 * float64(part) / float64(whole))
}

// ============================================================================
// Attendance
// ============================================================================

// AttendanceStats counts present days over all records. Every record counts as
// one day, including repeated records for the same subject and date.
func AttendanceStats(recs []records.AttendanceRecord) AttendanceReport {
	present := 0
	for _, rec := range recs {
		if rec.Status == records.StatusPresent {
			present++
		}
	}
	return AttendanceReport{
		PresentDays: present,
		TotalDays:   len(recs),
		Rate:        percentOf(present, len(recs)),
	}
}

// AttendanceBySubject computes AttendanceStats per subject, in order of each
// subject's first record.
func AttendanceBySubject(recs []records.AttendanceRecord) []SubjectAttendance {
	groups := make(map[string][]records.AttendanceRecord)
	var order []string
	for _, rec := range recs {
		name := subjectLabel(rec.Subject)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], rec)
	}

	out := make([]SubjectAttendance, 0, len(order))
	for _, name := range order {
		out = append(out, SubjectAttendance{Subject: name, AttendanceReport: AttendanceStats(groups[name])})
	}
	return out
}

func subjectLabel(ref records.SubjectRef) string {
	if s, ok := ref.Resolved(); ok && s.Name != "" {
		return s.Name
	}
	if ref.ID() != "" {
		return ref.ID()
	}
	return records.UnknownSubject
}

// ============================================================================
// Exams
// ============================================================================

func examFor(exams map[string]records.Exam, id string) *records.Exam {
	if e, ok := exams[id]; ok {
		return &e
	}
	return nil
}

// ExamStats summarises a result set. Percentages are clamped to [0, 100];
// results whose exam is not in exams use the default pass threshold.
func ExamStats(results []records.ExamResult, exams map[string]records.Exam) ExamSummary {
	if len(results) == 0 {
		return ExamSummary{}
	}

	var (
		sum, highest, lowest float64
		passed               int
		timeSum              float64
		timed                int
	)
	for i, r := range results {
		p := grading.Clamp(r.Percentage)
		sum += p
		if i == 0 || p > highest {
			highest = p
		}
		if i == 0 || p < lowest {
			lowest = p
		}
		if grading.Passed(r, examFor(exams, r.ExamID)) {
			passed++
		}
		if r.TimeSpent != nil && *r.TimeSpent >= 0 {
			timeSum += float64(*r.TimeSpent)
			timed++
		}
	}

	summary := ExamSummary{
		TotalSubmissions: len(results),
		AverageScore:     round(sum / float64(len(results))),
		PassRate:         percentOf(passed, len(results)),
		HighestScore:     round(highest),
		LowestScore:      round(lowest),
	}
	if timed > 0 {
		summary.AverageTime = round(timeSum / float64(timed))
	}
	return summary
}

// SubjectName returns the resolved subject name of the result's exam, or
// records.UnknownSubject.
func SubjectName(result records.ExamResult, exams map[string]records.Exam) string {
	exam := examFor(exams, result.ExamID)
	if exam == nil {
		return records.UnknownSubject
	}
	if s, ok := exam.Subject.Resolved(); ok && s.Name != "" {
		return s.Name
	}
	return records.UnknownSubject
}

// SubjectBreakdown groups results by subject name and summarises each group.
// Groups appear in order of their first result.
func SubjectBreakdown(results []records.ExamResult, exams map[string]records.Exam) []SubjectStats {
	groups := make(map[string][]records.ExamResult)
	var order []string
	for _, r := range results {
		name := SubjectName(r, exams)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], r)
	}

	out := make([]SubjectStats, 0, len(order))
	for _, name := range order {
		out = append(out, SubjectStats{Subject: name, ExamSummary: ExamStats(groups[name], exams)})
	}
	return out
}

// GradeDistribution counts results per grade band; all bands are present.
func GradeDistribution(results []records.ExamResult) map[grading.Band]int {
	dist := make(map[grading.Band]int, len(grading.Bands))
	for _, b := range grading.Bands {
		dist[b] = 0
	}
	for _, r := range results {
		dist[grading.GradeBand(r.Percentage)]++
	}
	return dist
}

// TierCounts counts results per color tier; all tiers are present.
func TierCounts(results []records.ExamResult) map[grading.Tier]int {
	counts := make(map[grading.Tier]int, len(grading.Tiers))
	for _, t := range grading.Tiers {
		counts[t] = 0
	}
	for _, r := range results {
		counts[grading.ColorTier(r.Percentage)]++
	}
	return counts
}

// BuildExamReport folds results into a full exam report (without warnings).
func BuildExamReport(results []records.ExamResult, exams map[string]records.Exam) ExamReport {
	return ExamReport{
		ExamSummary:       ExamStats(results, exams),
		GradeDistribution: GradeDistribution(results),
		TierCounts:        TierCounts(results),
		SubjectBreakdown:  SubjectBreakdown(results, exams),
	}
}

// Discrepancies flags results whose stored percentage differs from
// 100*score/totalQuestions by more than tolerance points. Stored values are
// never corrected.
func Discrepancies(results []records.ExamResult, tolerance float64) []string {
	var notes []string
	for _, r := range results {
		if r.TotalQuestions <= 0 {
			continue
		}
		computed := 100 * r.Score / float64(r.TotalQuestions)
		if math.Abs(computed-r.Percentage) > tolerance {
			notes = append(notes, fmt.Sprintf("result %s: stored percentage %.1f differs from score-based %.1f",
				r.ID, r.Percentage, computed))
		}
	}
	return notes
}

// ============================================================================
// Legacy embedded results
// ============================================================================

// LegacyResults adapts a student's embedded legacy exam entries so the exam
// folds can summarise them. Each entry gets a synthetic exam carrying its
// subject name.
func LegacyResults(student records.Student) ([]records.ExamResult, map[string]records.Exam) {
	results := make([]records.ExamResult, 0, len(student.ExamResults))
	exams := make(map[string]records.Exam, len(student.ExamResults))

	for i, entry := range student.ExamResults {
		id := fmt.Sprintf("%s-legacy-%d", student.ID, i+1)

		pct := entry.Percentage
		if pct == 0 && entry.TotalMarks > 0 {
			pct = 100 * entry.Score / entry.TotalMarks
		}

		exam := records.Exam{ID: id, Title: entry.ExamTitle}
		if entry.Subject != "" {
			exam.Subject = records.Embed(records.Subject{ID: entry.Subject, Name: entry.Subject})
		}
		exams[id] = exam

		results = append(results, records.ExamResult{
			ID:          id,
			StudentID:   student.ID,
			ExamID:      id,
			Score:       entry.Score,
			Percentage:  pct,
			SubmittedAt: entry.Date,
		})
	}
	return results, exams
}
