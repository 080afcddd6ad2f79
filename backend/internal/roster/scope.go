package roster

import (
	"fmt"

	"schoolstats/backend/internal/records"
)

// Scope maps a class id to the subject ids a teacher teaches there.
// A nil subject set means every subject of the class is in scope.
type Scope map[string]map[string]struct{}

// Scope derives the teacher's class/subject scope from the placements.
func (r Reach) Scope() Scope {
	scope := make(Scope)
	for _, p := range r.Placements {
		subjects, known := scope[p.ClassID]
		if p.SubjectID == "" {
			scope[p.ClassID] = nil
			continue
		}
		if known && subjects == nil {
			continue
		}
		if !known {
			subjects = make(map[string]struct{})
			scope[p.ClassID] = subjects
		}
		subjects[p.SubjectID] = struct{}{}
	}
	return scope
}

// Covers reports whether subjectID in classID is within the scope.
func (s Scope) Covers(classID, subjectID string) bool {
	subjects, ok := s[classID]
	if !ok {
		return false
	}
	if subjects == nil {
		return true
	}
	_, ok = subjects[subjectID]
	return ok
}

// CoversSubject reports whether subjectID is taught in any class of the scope.
func (s Scope) CoversSubject(subjectID string) bool {
	for classID := range s {
		if s.Covers(classID, subjectID) {
			return true
		}
	}
	return false
}

// ============================================================================
// Class membership
// ============================================================================

// Members returns the students that belong to class, either by referencing it
// or by being enumerated in it, in input order.
func Members(class records.Class, students []records.Student) []records.Student {
	out := []records.Student{}
	seen := make(map[string]struct{})
	for _, s := range students {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		if s.Class.ID() == class.ID || class.HasStudent(s.ID) {
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// CheckMembership reports every break of the class/student inverse relation:
// a student referencing the class must be enumerated by it and vice versa.
func CheckMembership(class records.Class, students []records.Student) []string {
	var notes []string

	byID := make(map[string]records.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
		if s.Class.ID() == class.ID && !class.HasStudent(s.ID) {
			notes = append(notes, fmt.Sprintf("student %s references class %s but is not enumerated by it", s.ID, class.ID))
		}
	}

	for _, id := range class.Students {
		s, ok := byID[id]
		switch {
		case !ok:
			notes = append(notes, fmt.Sprintf("class %s enumerates unknown student %s", class.ID, id))
		case s.Class.IsZero():
			notes = append(notes, fmt.Sprintf("class %s enumerates student %s who is unassigned", class.ID, id))
		case s.Class.ID() != class.ID:
			notes = append(notes, fmt.Sprintf("class %s enumerates student %s who references class %s", class.ID, id, s.Class.ID()))
		}
	}

	return notes
}
