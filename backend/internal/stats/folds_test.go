package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolstats/backend/internal/grading"
	"schoolstats/backend/internal/records"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func present(subject records.SubjectRef) records.AttendanceRecord {
	return records.AttendanceRecord{Subject: subject, Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Status: records.StatusPresent}
}

func absent(subject records.SubjectRef) records.AttendanceRecord {
	return records.AttendanceRecord{Subject: subject, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Status: records.StatusAbsent}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{12.5, 13},
		{66.666, 67},
		{59.49, 59},
		{99.5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round(tt.in), "round(%v)", tt.in)
	}
}

func TestAttendanceStats(t *testing.T) {
	math := records.RefTo[records.Subject]("math")

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, AttendanceReport{}, AttendanceStats(nil))
	})

	t.Run("rate rounded half up", func(t *testing.T) {
		recs := []records.AttendanceRecord{present(math), absent(math), absent(math), absent(math),
			absent(math), absent(math), absent(math), absent(math)}
		got := AttendanceStats(recs)
		assert.Equal(t, 1, got.PresentDays)
		assert.Equal(t, 8, got.TotalDays)
		assert.Equal(t, 13, got.Rate)
	})

	t.Run("duplicate records count as days", func(t *testing.T) {
		rec := present(math)
		got := AttendanceStats([]records.AttendanceRecord{rec, rec, absent(math)})
		assert.Equal(t, AttendanceReport{PresentDays: 2, TotalDays: 3, Rate: 67}, got)
	})
}

func TestAttendanceBySubject(t *testing.T) {
	recs := []records.AttendanceRecord{
		present(records.Embed(records.Subject{ID: "sci", Name: "Science"})),
		absent(records.RefTo[records.Subject]("art")),
		present(records.Embed(records.Subject{ID: "sci", Name: "Science"})),
		absent(records.SubjectRef{}),
	}

	got := AttendanceBySubject(recs)
	require.Len(t, got, 3)
	assert.Equal(t, "Science", got[0].Subject)
	assert.Equal(t, 100, got[0].Rate)
	assert.Equal(t, 2, got[0].TotalDays)
	assert.Equal(t, "art", got[1].Subject)
	assert.Equal(t, 0, got[1].Rate)
	assert.Equal(t, records.UnknownSubject, got[2].Subject)
}

func examResults() ([]records.ExamResult, map[string]records.Exam) {
	exams := map[string]records.Exam{
		"e1": {ID: "e1", Subject: records.Embed(records.Subject{ID: "math", Name: "Math"}), TotalMarks: intPtr(100), PassingMarks: intPtr(40)},
		"e2": {ID: "e2", Subject: records.Embed(records.Subject{ID: "sci", Name: "Science"})},
	}
	results := []records.ExamResult{
		{ID: "r1", ExamID: "e2", Percentage: 95, TimeSpent: intPtr(30)},
		{ID: "r2", ExamID: "e1", Percentage: 45, TimeSpent: intPtr(45)},
		{ID: "r3", ExamID: "e2", Percentage: 55},
		{ID: "r4", ExamID: "e1", Percentage: 120, Passed: boolPtr(false)},
		{ID: "r5", ExamID: "gone", Percentage: -5},
	}
	return results, exams
}

func TestExamStats(t *testing.T) {
	results, exams := examResults()

	got := ExamStats(results, exams)
	assert.Equal(t, ExamSummary{
		TotalSubmissions: 5,
		AverageScore:     59, // 95+45+55+100+0
		PassRate:         40, // r1 and r2
		HighestScore:     100,
		LowestScore:      0,
		AverageTime:      38,
	}, got)
}

func TestExamStats_Empty(t *testing.T) {
	assert.Equal(t, ExamSummary{}, ExamStats(nil, nil))
}

func TestExamStats_UnknownExamUsesDefaultThreshold(t *testing.T) {
	results := []records.ExamResult{
		{ID: "a", ExamID: "x", Percentage: 60},
		{ID: "b", ExamID: "x", Percentage: 59.9},
	}
	assert.Equal(t, 50, ExamStats(results, nil).PassRate)
}

func TestSubjectBreakdown(t *testing.T) {
	results, exams := examResults()

	got := SubjectBreakdown(results, exams)
	require.Len(t, got, 3)
	assert.Equal(t, "Science", got[0].Subject)
	assert.Equal(t, 2, got[0].TotalSubmissions)
	assert.Equal(t, 75, got[0].AverageScore)
	assert.Equal(t, "Math", got[1].Subject)
	assert.Equal(t, 2, got[1].TotalSubmissions)
	assert.Equal(t, 50, got[1].PassRate)
	assert.Equal(t, records.UnknownSubject, got[2].Subject)
}

func TestGradeDistribution(t *testing.T) {
	t.Run("all bands present when empty", func(t *testing.T) {
		dist := GradeDistribution(nil)
		assert.Len(t, dist, len(grading.Bands))
		for _, b := range grading.Bands {
			assert.Zero(t, dist[b])
		}
	})

	t.Run("counts sum to results", func(t *testing.T) {
		results, _ := examResults()
		dist := GradeDistribution(results)

		total := 0
		for _, n := range dist {
			total += n
		}
		assert.Equal(t, len(results), total)
		assert.Equal(t, 2, dist[grading.BandAPlus])
		assert.Equal(t, 1, dist[grading.BandC])
		assert.Equal(t, 2, dist[grading.BandF])
	})
}

func TestTierCounts(t *testing.T) {
	results, _ := examResults()
	counts := TierCounts(results)

	assert.Len(t, counts, len(grading.Tiers))
	assert.Equal(t, 2, counts[grading.TierSuccess])
	assert.Equal(t, 0, counts[grading.TierWarning])
	assert.Equal(t, 3, counts[grading.TierDanger])
}

func TestBuildExamReport(t *testing.T) {
	results, exams := examResults()
	report := BuildExamReport(results, exams)

	assert.Equal(t, ExamStats(results, exams), report.ExamSummary)
	assert.Len(t, report.SubjectBreakdown, 3)
	assert.Nil(t, report.Warnings)

	empty := BuildExamReport(nil, nil)
	assert.Len(t, empty.GradeDistribution, len(grading.Bands))
	assert.Empty(t, empty.SubjectBreakdown)
	assert.NotNil(t, empty.SubjectBreakdown)
}

func TestDiscrepancies(t *testing.T) {
	results := []records.ExamResult{
		{ID: "ok", Score: 8, TotalQuestions: 10, Percentage: 80},
		{ID: "close", Score: 8, TotalQuestions: 10, Percentage: 84},
		{ID: "off", Score: 4, TotalQuestions: 10, Percentage: 80},
		{ID: "no-questions", Score: 4, Percentage: 80},
	}

	notes := Discrepancies(results, 5)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "result off")

	assert.Len(t, Discrepancies(results, 0), 2)
}

func TestLegacyResults(t *testing.T) {
	student := records.Student{
		ID: "s1",
		ExamResults: []records.LegacyExamEntry{
			{ExamTitle: "Quiz", Subject: "Math", Score: 18, TotalMarks: 20},
			{ExamTitle: "Final", Subject: "Math", Score: 50, TotalMarks: 100, Percentage: 50},
			{ExamTitle: "Essay", Score: 7, Percentage: 70},
		},
	}

	results, exams := LegacyResults(student)
	require.Len(t, results, 3)
	assert.InDelta(t, 90.0, results[0].Percentage, 1e-9)
	assert.Equal(t, 50.0, results[1].Percentage)

	report := BuildExamReport(results, exams)
	assert.Equal(t, 70, report.AverageScore)
	require.Len(t, report.SubjectBreakdown, 2)
	assert.Equal(t, "Math", report.SubjectBreakdown[0].Subject)
	assert.Equal(t, records.UnknownSubject, report.SubjectBreakdown[1].Subject)
}
