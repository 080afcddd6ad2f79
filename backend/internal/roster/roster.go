// ============================================================================
// backend/internal/roster/roster.go
// Joins teachers' assignments with the student collection
// ============================================================================

package roster

import (
	"context"
	"fmt"

	"schoolstats/backend/internal/records"
	"schoolstats/backend/internal/resolver"
)

// Placement is one resolved (subject, class) pair a teacher is responsible for.
// SubjectID is empty for a legacy teacher that only declares a class.
type Placement struct {
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name,omitempty"`
}

// Reach is the resolved set of placements of one teacher.
type Reach struct {
	Placements []Placement
	Legacy     bool
	Warnings   []string
}

// Roster is the set of students reachable by a teacher. NoAssignments
// distinguishes a teacher without assignments from one whose assignments
// match no student. Reach holds the placements the roster was built from.
type Roster struct {
	Students      []records.Student
	NoAssignments bool
	Reach         Reach
	Warnings      []string
}

// ResolveAssignments resolves the teacher's effective assignments in
// declaration order. An assignment whose class cannot be resolved is skipped;
// the other assignments still contribute.
func ResolveAssignments(ctx context.Context, res *resolver.Resolver, teacher records.Teacher) Reach {
	reach := Reach{Legacy: teacher.IsLegacy()}

	for i, a := range teacher.EffectiveAssignments() {
		p := Placement{ClassID: a.Class.ID()}

		classRef, ok := res.Class(ctx, a.Class)
		switch {
		case ok:
			c, _ := classRef.Resolved()
			p.ClassName = c.Name
		case reach.Legacy:
			// the legacy pair is matched on the raw class id
		default:
			reach.Warnings = append(reach.Warnings,
				fmt.Sprintf("teacher %s assignment %d: class %s not found, skipped", teacher.ID, i+1, a.Class.ID()))
			continue
		}

		if !a.Subject.IsZero() {
			p.SubjectID = a.Subject.ID()
			p.SubjectName = res.SubjectName(ctx, a.Subject)
		}
		reach.Placements = append(reach.Placements, p)
	}

	return reach
}

// ClassIDs returns the distinct class ids of the placements in first-seen order.
func (r Reach) ClassIDs() []string {
	seen := make(map[string]struct{}, len(r.Placements))
	var ids []string
	for _, p := range r.Placements {
		if _, dup := seen[p.ClassID]; dup {
			continue
		}
		seen[p.ClassID] = struct{}{}
		ids = append(ids, p.ClassID)
	}
	return ids
}

// SubjectsForClass returns the names of the subjects taught in classID, in
// declaration order with repeated subjects listed once.
func (r Reach) SubjectsForClass(classID string) []string {
	names := []string{}
	seen := make(map[string]struct{})
	for _, p := range r.Placements {
		if p.ClassID != classID || p.SubjectID == "" {
			continue
		}
		if _, dup := seen[p.SubjectID]; dup {
			continue
		}
		seen[p.SubjectID] = struct{}{}
		names = append(names, p.SubjectName)
	}
	return names
}

// ClassesForSubject returns the ids of the classes where subjectID is taught.
func (r Reach) ClassesForSubject(subjectID string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, p := range r.Placements {
		if p.SubjectID != subjectID {
			continue
		}
		if _, dup := seen[p.ClassID]; dup {
			continue
		}
		seen[p.ClassID] = struct{}{}
		ids = append(ids, p.ClassID)
	}
	return ids
}

// ============================================================================
// Join operations
// ============================================================================

// StudentsForTeacher returns the students whose class is one of the teacher's
// assignment classes. Students without a resolvable class are never included.
func StudentsForTeacher(ctx context.Context, res *resolver.Resolver, teacher records.Teacher, students []records.Student) Roster {
	if !teacher.HasAssignments() {
		return Roster{Students: []records.Student{}, NoAssignments: true}
	}

	reach := ResolveAssignments(ctx, res, teacher)
	return Roster{
		Students: InClasses(ctx, res, students, reach.ClassIDs()),
		Reach:    reach,
		Warnings: reach.Warnings,
	}
}

// SubjectsTaughtToStudent returns the names of the subjects the teacher teaches
// in the student's class, in assignment order. The result is empty when the
// student is unassigned or no assignment matches.
func SubjectsTaughtToStudent(ctx context.Context, res *resolver.Resolver, teacher records.Teacher, student records.Student) []string {
	classRef, ok := res.Class(ctx, student.Class)
	if !ok {
		return []string{}
	}
	return ResolveAssignments(ctx, res, teacher).SubjectsForClass(classRef.ID())
}

// StudentsForSubjectInClass narrows a teacher's roster to the students sitting
// in one of the classes where the teacher teaches subjectID.
func StudentsForSubjectInClass(ctx context.Context, res *resolver.Resolver, teacher records.Teacher, subjectID string, roster []records.Student) []records.Student {
	classIDs := ResolveAssignments(ctx, res, teacher).ClassesForSubject(subjectID)
	return InClasses(ctx, res, roster, classIDs)
}

// InClasses filters students to those whose class resolves to one of classIDs.
// Input order is kept and repeated student ids are collapsed.
func InClasses(ctx context.Context, res *resolver.Resolver, students []records.Student, classIDs []string) []records.Student {
	out := []records.Student{}
	if len(classIDs) == 0 {
		return out
	}

	wanted := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(students))
	for _, s := range students {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		classRef, ok := res.Class(ctx, s.Class)
		if !ok {
			continue
		}
		if _, in := wanted[classRef.ID()]; !in {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
