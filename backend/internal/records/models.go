// ============================================================================
// backend/internal/records/models.go
// Academic record entities consumed by the aggregation engine
// ============================================================================

package records

import (
	"time"
)

// UnknownSubject labels results and placements whose subject cannot be resolved.
const UnknownSubject = "Unknown Subject"

// ============================================================================
// Curriculum Models
// ============================================================================

// Subject represents a subject taught in one or more classes
type Subject struct {
	ID        string   `bson:"_id" json:"id"`
	Name      string   `bson:"name" json:"name"`
	Code      string   `bson:"code,omitempty" json:"code,omitempty"`
	Sessions  int      `bson:"sessions,omitempty" json:"sessions,omitempty"`
	TeacherID string   `bson:"teacher_id,omitempty" json:"teacher_id,omitempty"`
	Class     ClassRef `bson:"class,omitempty" json:"class,omitempty"`
}

func (s Subject) refKey() string  { return s.ID }
func (s Subject) refName() string { return s.Name }

// Class represents a class (form/section) with its subjects and enrolled students
type Class struct {
	ID       string       `bson:"_id" json:"id"`
	Name     string       `bson:"name" json:"name"`
	Subjects []SubjectRef `bson:"subjects,omitempty" json:"subjects,omitempty"`
	Students []string     `bson:"students,omitempty" json:"students,omitempty"` // inverse of Student.Class
}

func (c Class) refKey() string  { return c.ID }
func (c Class) refName() string { return c.Name }

// HasStudent reports whether the class enumerates studentID
func (c Class) HasStudent(studentID string) bool {
	for _, id := range c.Students {
		if id == studentID {
			return true
		}
	}
	return false
}

// ============================================================================
// Teacher Models
// ============================================================================

// Assignment pairs a subject with the class a teacher teaches it in
type Assignment struct {
	Subject SubjectRef `bson:"subject" json:"subject"`
	Class   ClassRef   `bson:"class" json:"class"`
}

// Teacher represents a teacher with either a legacy single subject/class pair
// or a list of assignments. Assignments supersede the legacy pair when non-empty.
type Teacher struct {
	ID          string       `bson:"_id" json:"id"`
	Name        string       `bson:"name" json:"name"`
	Email       string       `bson:"email,omitempty" json:"email,omitempty"`
	Subject     SubjectRef   `bson:"subject,omitempty" json:"subject,omitempty"`
	Class       ClassRef     `bson:"class,omitempty" json:"class,omitempty"`
	Assignments []Assignment `bson:"assignments,omitempty" json:"assignments,omitempty"`
}

// EffectiveAssignments returns the assignments that define the teacher's reach
func (t Teacher) EffectiveAssignments() []Assignment {
	if len(t.Assignments) > 0 {
		return t.Assignments
	}
	if !t.Class.IsZero() {
		return []Assignment{{Subject: t.Subject, Class: t.Class}}
	}
	return nil
}

// IsLegacy reports whether the teacher's reach comes from the legacy pair
func (t Teacher) IsLegacy() bool {
	return len(t.Assignments) == 0 && !t.Class.IsZero()
}

// HasAssignments reports whether the teacher has any assignment in either form
func (t Teacher) HasAssignments() bool {
	return len(t.EffectiveAssignments()) > 0
}

// ============================================================================
// Student Models
// ============================================================================

// AttendanceStatus is the status of a single attendance record
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// AttendanceRecord is one day's attendance of a student for a subject.
// Several records for the same subject and date may exist upstream.
type AttendanceRecord struct {
	Subject SubjectRef       `bson:"subject" json:"subject"`
	Date    time.Time        `bson:"date" json:"date"`
	Status  AttendanceStatus `bson:"status" json:"status"`
}

// LegacyExamEntry is an exam result embedded in the student document,
// kept separately from ExamResult documents.
type LegacyExamEntry struct {
	ExamTitle  string    `bson:"exam_title" json:"exam_title"`
	Subject    string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Score      float64   `bson:"score" json:"score"`
	TotalMarks float64   `bson:"total_marks,omitempty" json:"total_marks,omitempty"`
	Percentage float64   `bson:"percentage,omitempty" json:"percentage,omitempty"`
	Date       time.Time `bson:"date,omitempty" json:"date,omitempty"`
}

// Student represents a student; Class is absent for unassigned students
type Student struct {
	ID          string             `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	RollNumber  string             `bson:"roll_number,omitempty" json:"roll_number,omitempty"`
	Class       ClassRef           `bson:"class,omitempty" json:"class,omitempty"`
	Attendance  []AttendanceRecord `bson:"attendance,omitempty" json:"attendance,omitempty"`
	ExamResults []LegacyExamEntry  `bson:"exam_results,omitempty" json:"exam_results,omitempty"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
}

// ============================================================================
// Exam Models
// ============================================================================

// Exam represents an exam for a subject in a class.
// TotalMarks and PassingMarks are nil when the exam does not declare them.
type Exam struct {
	ID             string     `bson:"_id" json:"id"`
	Title          string     `bson:"title" json:"title"`
	Subject        SubjectRef `bson:"subject" json:"subject"`
	Class          ClassRef   `bson:"class" json:"class"`
	TotalQuestions int        `bson:"total_questions,omitempty" json:"total_questions,omitempty"`
	TotalMarks     *int       `bson:"total_marks,omitempty" json:"total_marks,omitempty"`
	PassingMarks   *int       `bson:"passing_marks,omitempty" json:"passing_marks,omitempty"`
	IsActive       bool       `bson:"is_active" json:"is_active"`
}

// ExamResult is a student's submission for an exam. Percentage is authoritative;
// TimeSpent (seconds) and Passed are optional.
type ExamResult struct {
	ID             string    `bson:"_id" json:"id"`
	StudentID      string    `bson:"student_id" json:"student_id"`
	ExamID         string    `bson:"exam_id" json:"exam_id"`
	Score          float64   `bson:"score" json:"score"`
	TotalQuestions int       `bson:"total_questions,omitempty" json:"total_questions,omitempty"`
	Percentage     float64   `bson:"percentage" json:"percentage"`
	TimeSpent      *int      `bson:"time_spent,omitempty" json:"time_spent,omitempty"`
	SubmittedAt    time.Time `bson:"submitted_at" json:"submitted_at"`
	Passed         *bool     `bson:"passed,omitempty" json:"passed,omitempty"`
}
