package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolstats/backend/internal/records"
	"schoolstats/backend/internal/resolver"
)

var (
	math    = records.Subject{ID: "math", Name: "Math"}
	science = records.Subject{ID: "sci", Name: "Science"}
	classA  = records.Class{ID: "A", Name: "Class A", Students: []string{"s1", "s2"}}
	classB  = records.Class{ID: "B", Name: "Class B", Students: []string{"s3"}}
)

func newResolver() *resolver.Resolver {
	subjects := map[string]records.Subject{math.ID: math, science.ID: science}
	classes := map[string]records.Class{classA.ID: classA, classB.ID: classB}

	return resolver.New(
		func(_ context.Context, id string) (records.Subject, error) {
			if s, ok := subjects[id]; ok {
				return s, nil
			}
			return records.Subject{}, resolver.ErrNotFound
		},
		func(_ context.Context, id string) (records.Class, error) {
			if c, ok := classes[id]; ok {
				return c, nil
			}
			return records.Class{}, resolver.ErrNotFound
		},
	)
}

func studentIDs(students []records.Student) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}

// mixes bare ids and embedded objects on purpose
func scenario() (records.Teacher, []records.Student) {
	teacher := records.Teacher{
		ID:   "t1",
		Name: "T",
		Assignments: []records.Assignment{
			{Subject: records.RefTo[records.Subject]("math"), Class: records.RefTo[records.Class]("A")},
			{Subject: records.Embed(science), Class: records.Embed(classA)},
			{Subject: records.Embed(math), Class: records.RefTo[records.Class]("B")},
		},
	}
	students := []records.Student{
		{ID: "s1", Name: "S1", Class: records.RefTo[records.Class]("A")},
		{ID: "s2", Name: "S2", Class: records.Embed(classA)},
		{ID: "s3", Name: "S3", Class: records.RefTo[records.Class]("B")},
		{ID: "s4", Name: "S4"},
	}
	return teacher, students
}

func TestStudentsForTeacher_Scenario(t *testing.T) {
	ctx := context.Background()
	teacher, students := scenario()
	res := newResolver()

	r := StudentsForTeacher(ctx, res, teacher, students)
	assert.False(t, r.NoAssignments)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, []string{"s1", "s2", "s3"}, studentIDs(r.Students))

	assert.Equal(t, []string{"Math", "Science"}, SubjectsTaughtToStudent(ctx, res, teacher, students[0]))
	assert.Equal(t, []string{"Math"}, SubjectsTaughtToStudent(ctx, res, teacher, students[2]))
	assert.Equal(t, []string{}, SubjectsTaughtToStudent(ctx, res, teacher, students[3]))
}

func TestStudentsForTeacher_CarriesReach(t *testing.T) {
	ctx := context.Background()
	teacher, students := scenario()
	res := newResolver()

	r := StudentsForTeacher(ctx, res, teacher, students)
	require.Len(t, r.Reach.Placements, 3)
	assert.Equal(t, []string{"A", "B"}, r.Reach.ClassIDs())
	assert.Equal(t, []string{"Math", "Science"}, r.Reach.SubjectsForClass("A"))
	assert.True(t, r.Reach.Scope().Covers("B", "math"))
	assert.False(t, r.Reach.Scope().Covers("B", "sci"))

	none := StudentsForTeacher(ctx, res, records.Teacher{ID: "t3"}, students)
	assert.Empty(t, none.Reach.Placements)
}

func TestStudentsForTeacher_DeduplicatesClasses(t *testing.T) {
	ctx := context.Background()
	teacher := records.Teacher{
		ID: "t2",
		Assignments: []records.Assignment{
			{Subject: records.RefTo[records.Subject]("math"), Class: records.RefTo[records.Class]("A")},
			{Subject: records.RefTo[records.Subject]("sci"), Class: records.RefTo[records.Class]("A")},
			{Subject: records.RefTo[records.Subject]("math"), Class: records.Embed(classA)},
		},
	}
	_, students := scenario()
	// the same student listed twice upstream
	students = append(students, students[0])

	r := StudentsForTeacher(ctx, newResolver(), teacher, students)
	assert.Equal(t, []string{"s1", "s2"}, studentIDs(r.Students))
}

func TestStudentsForTeacher_NoAssignments(t *testing.T) {
	_, students := scenario()
	r := StudentsForTeacher(context.Background(), newResolver(), records.Teacher{ID: "t3"}, students)

	assert.True(t, r.NoAssignments)
	assert.Empty(t, r.Students)
	assert.NotNil(t, r.Students)
}

func TestStudentsForTeacher_AssignmentsMatchingNobody(t *testing.T) {
	teacher := records.Teacher{
		ID:          "t4",
		Assignments: []records.Assignment{{Subject: records.Embed(math), Class: records.Embed(classB)}},
	}
	students := []records.Student{{ID: "s1", Class: records.RefTo[records.Class]("A")}}

	r := StudentsForTeacher(context.Background(), newResolver(), teacher, students)
	assert.False(t, r.NoAssignments)
	assert.Empty(t, r.Students)
}

func TestStudentsForTeacher_LegacyPair(t *testing.T) {
	teacher := records.Teacher{
		ID:      "t5",
		Subject: records.RefTo[records.Subject]("sci"),
		Class:   records.RefTo[records.Class]("B"),
	}
	_, students := scenario()

	ctx := context.Background()
	res := newResolver()
	r := StudentsForTeacher(ctx, res, teacher, students)
	assert.Equal(t, []string{"s3"}, studentIDs(r.Students))
	assert.Equal(t, []string{"Science"}, SubjectsTaughtToStudent(ctx, res, teacher, students[2]))
}

func TestStudentsForTeacher_AssignmentsSupersedeLegacy(t *testing.T) {
	teacher := records.Teacher{
		ID:          "t6",
		Class:       records.RefTo[records.Class]("B"),
		Assignments: []records.Assignment{{Subject: records.Embed(math), Class: records.RefTo[records.Class]("A")}},
	}
	_, students := scenario()

	r := StudentsForTeacher(context.Background(), newResolver(), teacher, students)
	assert.Equal(t, []string{"s1", "s2"}, studentIDs(r.Students))
}

func TestStudentsForTeacher_InconsistentAssignment(t *testing.T) {
	teacher := records.Teacher{
		ID: "t7",
		Assignments: []records.Assignment{
			{Subject: records.Embed(math), Class: records.RefTo[records.Class]("ghost")},
			{Subject: records.Embed(math), Class: records.RefTo[records.Class]("B")},
		},
	}
	_, students := scenario()
	res := newResolver()

	r := StudentsForTeacher(context.Background(), res, teacher, students)
	assert.Equal(t, []string{"s3"}, studentIDs(r.Students))
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "class ghost not found")
	assert.Contains(t, res.Warnings(), "class ghost not found")
}

func TestStudentsForTeacher_UnresolvableStudentClass(t *testing.T) {
	teacher, _ := scenario()
	students := []records.Student{
		{ID: "s8", Class: records.RefTo[records.Class]("deleted")},
		{ID: "s1", Class: records.RefTo[records.Class]("A")},
	}

	r := StudentsForTeacher(context.Background(), newResolver(), teacher, students)
	assert.Equal(t, []string{"s1"}, studentIDs(r.Students))
}

func TestStudentsForSubjectInClass(t *testing.T) {
	ctx := context.Background()
	teacher, students := scenario()
	res := newResolver()
	roster := StudentsForTeacher(ctx, res, teacher, students).Students

	assert.Equal(t, []string{"s1", "s2", "s3"}, studentIDs(StudentsForSubjectInClass(ctx, res, teacher, "math", roster)))
	assert.Equal(t, []string{"s1", "s2"}, studentIDs(StudentsForSubjectInClass(ctx, res, teacher, "sci", roster)))
	assert.Empty(t, StudentsForSubjectInClass(ctx, res, teacher, "art", roster))
}

func TestReachScope(t *testing.T) {
	ctx := context.Background()
	teacher, _ := scenario()
	scope := ResolveAssignments(ctx, newResolver(), teacher).Scope()

	assert.True(t, scope.Covers("A", "math"))
	assert.True(t, scope.Covers("A", "sci"))
	assert.True(t, scope.Covers("B", "math"))
	assert.False(t, scope.Covers("B", "sci"))
	assert.False(t, scope.Covers("C", "math"))
	assert.True(t, scope.CoversSubject("sci"))

	legacy := records.Teacher{ID: "t8", Class: records.RefTo[records.Class]("B")}
	legacyScope := ResolveAssignments(ctx, newResolver(), legacy).Scope()
	assert.True(t, legacyScope.Covers("B", "anything"))
	assert.False(t, legacyScope.Covers("A", "math"))
}

func TestCheckMembership(t *testing.T) {
	class := records.Class{ID: "A", Name: "Class A", Students: []string{"s1", "s3", "s9", "s4"}}
	students := []records.Student{
		{ID: "s1", Class: records.RefTo[records.Class]("A")},
		{ID: "s2", Class: records.Embed(classA)},
		{ID: "s3", Class: records.RefTo[records.Class]("B")},
		{ID: "s4"},
	}

	notes := CheckMembership(class, students)
	assert.Equal(t, []string{
		"student s2 references class A but is not enumerated by it",
		"class A enumerates student s3 who references class B",
		"class A enumerates unknown student s9",
		"class A enumerates student s4 who is unassigned",
	}, notes)

	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, studentIDs(Members(class, students)))
}
