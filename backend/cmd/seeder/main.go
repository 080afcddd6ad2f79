package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"schoolstats/backend/internal/records"
	"schoolstats/backend/internal/shared"
)

// Seed ids for the demonstration school
const (
	ClassA = "form-1a"
	ClassB = "form-1b"

	MathID    = "math-1a"
	ScienceID = "sci-1a"
	EnglishID = "eng-1b"

	TeacherMath    = "teacher-001" // assignments in form 1A
	TeacherLegacy  = "teacher-002" // legacy subject/class pair in form 1B
	TeacherNoClass = "teacher-003" // no assignments
)

// StudentSeed describes one seeded student and their marks
type StudentSeed struct {
	ID      string
	Name    string
	Roll    string
	Class   string
	Present int // of sessionDays days per subject
	Scores  map[string]float64
	Legacy  bool // also carries embedded exam results
}

const sessionDays = 10

var classNames = map[string]string{ClassA: "Form 1A", ClassB: "Form 1B"}

func main() {
	log.Println("Starting Report Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	// Drop everything so reference shapes start from a known state
	if err := db.Drop(context.Background()); err != nil {
		log.Fatalf("Failed to drop database: %v", err)
	}
	log.Println("Database cleared successfully.")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Art is keyed by an ObjectID to exercise hex id lookups
	artID := primitive.NewObjectID()

	// --- 1. Curriculum ---
	seedCurriculum(ctx, db, artID)

	// --- 2. Teachers ---
	seedTeachers(ctx, db, artID)

	// --- 3. Students, Exams and Results ---
	students := []StudentSeed{
		{ID: "student-001", Name: "John Student", Roll: "1A-01", Class: ClassA, Present: 9, Scores: map[string]float64{"exam-math-1": 86, "exam-sci-1": 72}},
		{ID: "student-002", Name: "Alice Wonderland", Roll: "1A-02", Class: ClassA, Present: 10, Scores: map[string]float64{"exam-math-1": 94, "exam-sci-1": 88}},
		{ID: "student-003", Name: "Bob Builder", Roll: "1A-03", Class: ClassA, Present: 6, Scores: map[string]float64{"exam-math-1": 41}, Legacy: true},
		{ID: "student-004", Name: "Carol Danvers", Roll: "1B-01", Class: ClassB, Present: 8, Scores: map[string]float64{"exam-eng-1": 63}},
		{ID: "student-005", Name: "Dan Unassigned", Roll: "", Class: "", Present: 0},
	}
	seedStudents(ctx, db, students)
	seedExams(ctx, db)
	seedResults(ctx, db, students)

	// --- 4. Indexes ---
	if err := shared.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Error creating indexes: %v", err)
	}

	log.Println("All data seeding completed successfully.")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func insertAll(ctx context.Context, col *mongo.Collection, what string, docs []interface{}) {
	if _, err := col.InsertMany(ctx, docs); err != nil {
		log.Fatalf("Error seeding %s: %v", what, err)
	}
	log.Printf("Seeded %d %s", len(docs), what)
}

func seedCurriculum(ctx context.Context, db *mongo.Database, artID primitive.ObjectID) {
	log.Println("--- Seeding Classes & Subjects ---")

	subjects := []interface{}{
		records.Subject{ID: MathID, Name: "Mathematics", Code: "MATH", Sessions: sessionDays, TeacherID: TeacherMath, Class: records.RefTo[records.Class](ClassA)},
		records.Subject{ID: ScienceID, Name: "Science", Code: "SCI", Sessions: sessionDays, Class: records.RefTo[records.Class](ClassA)},
		records.Subject{ID: EnglishID, Name: "English", Code: "ENG", Sessions: sessionDays, TeacherID: TeacherLegacy, Class: records.RefTo[records.Class](ClassB)},
		bson.M{"_id": artID, "name": "Art", "code": "ART", "class": ClassA},
	}
	insertAll(ctx, db.Collection(shared.SubjectsCollection), "subjects", subjects)

	classes := []interface{}{
		records.Class{
			ID:   ClassA,
			Name: classNames[ClassA],
			// Mixed reference shapes: bare ids and an embedded subject
			Subjects: []records.SubjectRef{
				records.RefTo[records.Subject](MathID),
				records.Embed(records.Subject{ID: ScienceID, Name: "Science"}),
				records.RefTo[records.Subject](artID.Hex()),
			},
			Students: []string{"student-001", "student-002", "student-003"},
		},
		records.Class{
			ID:       ClassB,
			Name:     classNames[ClassB],
			Subjects: []records.SubjectRef{records.RefTo[records.Subject](EnglishID)},
			Students: []string{"student-004"},
		},
	}
	insertAll(ctx, db.Collection(shared.ClassesCollection), "classes", classes)
}

func seedTeachers(ctx context.Context, db *mongo.Database, artID primitive.ObjectID) {
	log.Println("--- Seeding Teachers ---")

	teachers := []interface{}{
		records.Teacher{
			ID:    TeacherMath,
			Name:  "Dr. Jane Professor",
			Email: "faculty@example.com",
			Assignments: []records.Assignment{
				{Subject: records.RefTo[records.Subject](MathID), Class: records.RefTo[records.Class](ClassA)},
				{Subject: records.RefTo[records.Subject](artID.Hex()), Class: records.Embed(records.Class{ID: ClassA, Name: classNames[ClassA]})},
			},
		},
		records.Teacher{
			ID:      TeacherLegacy,
			Name:    "Prof. Alan Turing",
			Email:   "faculty2@example.com",
			Subject: records.RefTo[records.Subject](EnglishID),
			Class:   records.RefTo[records.Class](ClassB),
		},
		records.Teacher{ID: TeacherNoClass, Name: "Ms. Ada Lovelace", Email: "faculty3@example.com"},
	}
	insertAll(ctx, db.Collection(shared.TeachersCollection), "teachers", teachers)
}

func seedStudents(ctx context.Context, db *mongo.Database, seeds []StudentSeed) {
	log.Println("--- Seeding Students & Attendance ---")

	start := time.Now().AddDate(0, 0, -sessionDays)
	docs := make([]interface{}, 0, len(seeds))

	for i, s := range seeds {
		student := records.Student{ID: s.ID, Name: s.Name, RollNumber: s.Roll, IsActive: true}
		if s.Class != "" {
			// Alternate between bare and embedded class references
			if i%2 == 0 {
				student.Class = records.RefTo[records.Class](s.Class)
			} else {
				student.Class = records.Embed(records.Class{ID: s.Class, Name: classNames[s.Class]})
			}
		}

		subject := MathID
		if s.Class == ClassB {
			subject = EnglishID
		}
		for day := 0; day < sessionDays && s.Class != ""; day++ {
			st := records.StatusAbsent
			if day < s.Present {
				st = records.StatusPresent
			}
			student.Attendance = append(student.Attendance, records.AttendanceRecord{
				Subject: records.RefTo[records.Subject](subject),
				Date:    start.AddDate(0, 0, day),
				Status:  st,
			})
		}

		if s.Legacy {
			student.ExamResults = []records.LegacyExamEntry{
				{ExamTitle: "Term 1 Mathematics", Subject: "Mathematics", Score: 32, TotalMarks: 50, Date: start},
				{ExamTitle: "Term 1 Science", Subject: "Science", Score: 18, TotalMarks: 40, Percentage: 45, Date: start},
			}
		}

		docs = append(docs, student)
	}
	insertAll(ctx, db.Collection(shared.StudentsCollection), "students", docs)
}

func seedExams(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Exams ---")

	marks := func(v int) *int { return &v }
	exams := []interface{}{
		records.Exam{ID: "exam-math-1", Title: "Algebra Quiz", Subject: records.RefTo[records.Subject](MathID), Class: records.RefTo[records.Class](ClassA), TotalQuestions: 20, TotalMarks: marks(100), PassingMarks: marks(50), IsActive: true},
		records.Exam{ID: "exam-sci-1", Title: "Cells Quiz", Subject: records.Embed(records.Subject{ID: ScienceID, Name: "Science"}), Class: records.RefTo[records.Class](ClassA), TotalQuestions: 10, IsActive: true},
		records.Exam{ID: "exam-eng-1", Title: "Essay", Subject: records.RefTo[records.Subject](EnglishID), Class: records.RefTo[records.Class](ClassB), IsActive: true},
	}
	insertAll(ctx, db.Collection(shared.ExamsCollection), "exams", exams)
}

func seedResults(ctx context.Context, db *mongo.Database, seeds []StudentSeed) {
	log.Println("--- Seeding Exam Results ---")

	questions := map[string]int{"exam-math-1": 20, "exam-sci-1": 10}
	submitted := time.Now().AddDate(0, 0, -2)
	var docs []interface{}

	for _, s := range seeds {
		for examID, pct := range s.Scores {
			spent := 600 + int(pct)*3
			result := records.ExamResult{
				ID:             fmt.Sprintf("RES-%s-%s", s.ID, examID),
				StudentID:      s.ID,
				ExamID:         examID,
				TotalQuestions: questions[examID],
				Percentage:     pct,
				TimeSpent:      &spent,
				SubmittedAt:    submitted,
			}
			if n := questions[examID]; n > 0 {
				result.Score = float64(int(pct * float64(n) / 100))
			}
			docs = append(docs, result)
		}
	}

	// A result for an exam that no longer exists
	docs = append(docs, records.ExamResult{
		ID: "RES-orphan", StudentID: "student-002", ExamID: "exam-retired", Percentage: 55, SubmittedAt: submitted,
	})
	insertAll(ctx, db.Collection(shared.ExamResultsCollection), "exam results", docs)
}
