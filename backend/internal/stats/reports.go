package stats

import (
	"schoolstats/backend/internal/grading"
	"schoolstats/backend/internal/roster"
)

// AttendanceReport summarises attendance records. Rate is a rounded percentage.
type AttendanceReport struct {
	PresentDays int      `json:"present_days"`
	TotalDays   int      `json:"total_days"`
	Rate        int      `json:"rate"`
	Warnings    []string `json:"warnings,omitempty"`
}

// SubjectAttendance is the attendance of one subject.
type SubjectAttendance struct {
	Subject string `json:"subject"`
	AttendanceReport
}

// ExamSummary holds the headline exam metrics, all rounded half up.
type ExamSummary struct {
	TotalSubmissions int `json:"total_submissions"`
	AverageScore     int `json:"average_score"`
	PassRate         int `json:"pass_rate"`
	HighestScore     int `json:"highest_score"`
	LowestScore      int `json:"lowest_score"`
	AverageTime      int `json:"average_time"`
}

// SubjectStats is the exam summary of one subject.
type SubjectStats struct {
	Subject string `json:"subject"`
	ExamSummary
}

type ExamReport struct {
	ExamSummary
	GradeDistribution map[grading.Band]int `json:"grade_distribution"`
	TierCounts        map[grading.Tier]int `json:"tier_counts"`
	SubjectBreakdown  []SubjectStats       `json:"subject_breakdown"`
	Warnings          []string             `json:"warnings,omitempty"`
}

// RosterEntry is the public view of a student in a report.
type RosterEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number,omitempty"`
	ClassID    string `json:"class_id,omitempty"`
	ClassName  string `json:"class_name,omitempty"`
	IsActive   bool   `json:"is_active"`
}

type RosterReport struct {
	RunID         string        `json:"run_id,omitempty"`
	Students      []RosterEntry `json:"students"`
	TotalCount    int           `json:"total_count"`
	NoAssignments bool          `json:"no_assignments"`
	Warnings      []string      `json:"warnings,omitempty"`
}

type StudentReport struct {
	RunID               string              `json:"run_id"`
	Student             RosterEntry         `json:"student"`
	Subjects            []string            `json:"subjects"`
	Attendance          AttendanceReport    `json:"attendance"`
	AttendanceBySubject []SubjectAttendance `json:"attendance_by_subject"`
	Exams               ExamReport          `json:"exams"`
	LegacyExams         *ExamReport         `json:"legacy_exams,omitempty"`
	Warnings            []string            `json:"warnings,omitempty"`
}

type ClassReport struct {
	RunID      string           `json:"run_id"`
	ClassID    string           `json:"class_id"`
	ClassName  string           `json:"class_name"`
	Subjects   []string         `json:"subjects"`
	Students   []RosterEntry    `json:"students"`
	TotalCount int              `json:"total_count"`
	Attendance AttendanceReport `json:"attendance"`
	Exams      ExamReport       `json:"exams"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// StudentRow is one line of a teacher report, restricted to the teacher's scope.
type StudentRow struct {
	RosterEntry
	Subjects       []string `json:"subjects"`
	AttendanceRate int      `json:"attendance_rate"`
	AverageScore   int      `json:"average_score"`
	Submissions    int      `json:"submissions"`
}

type TeacherReport struct {
	RunID         string             `json:"run_id"`
	TeacherID     string             `json:"teacher_id"`
	TeacherName   string             `json:"teacher_name"`
	Placements    []roster.Placement `json:"placements"`
	NoAssignments bool               `json:"no_assignments"`
	Students      []StudentRow       `json:"students"`
	TotalCount    int                `json:"total_count"`
	Attendance    AttendanceReport   `json:"attendance"`
	Exams         ExamReport         `json:"exams"`
	Warnings      []string           `json:"warnings,omitempty"`
}
