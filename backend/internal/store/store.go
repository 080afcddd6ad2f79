// ============================================================================
// backend/internal/store/store.go
// MongoDB-backed record source for the report aggregator
// ============================================================================

package store

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schoolstats/backend/internal/records"
	"schoolstats/backend/internal/shared"
)

// Store reads school records from MongoDB. Errors are gRPC statuses:
// NotFound for missing documents, DeadlineExceeded or Canceled when the
// context ends, Internal otherwise.
type Store struct {
	db          *mongo.Database
	studentsCol *mongo.Collection
	classesCol  *mongo.Collection
	subjectsCol *mongo.Collection
	teachersCol *mongo.Collection
	examsCol    *mongo.Collection
	resultsCol  *mongo.Collection
}

// NewStore creates a Store over db
func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:          db,
		studentsCol: db.Collection(shared.StudentsCollection),
		classesCol:  db.Collection(shared.ClassesCollection),
		subjectsCol: db.Collection(shared.SubjectsCollection),
		teachersCol: db.Collection(shared.TeachersCollection),
		examsCol:    db.Collection(shared.ExamsCollection),
		resultsCol:  db.Collection(shared.ExamResultsCollection),
	}
}

// Students returns every student document. Documents that fail to decode are
// logged and skipped.
func (s *Store) Students(ctx context.Context) ([]records.Student, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.studentsCol.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, queryError(err, "students", "")
	}
	defer cursor.Close(ctx)

	students := []records.Student{}
	for cursor.Next(ctx) {
		var student records.Student
		if err := cursor.Decode(&student); err != nil {
			log.Printf("WARN: skipping undecodable student document: %v", err)
			continue
		}
		students = append(students, student)
	}
	if err := cursor.Err(); err != nil {
		return nil, queryError(err, "students", "")
	}
	return students, nil
}

func (s *Store) Student(ctx context.Context, id string) (records.Student, error) {
	return findByID[records.Student](ctx, s.studentsCol, "student", id)
}

func (s *Store) Teacher(ctx context.Context, id string) (records.Teacher, error) {
	return findByID[records.Teacher](ctx, s.teachersCol, "teacher", id)
}

func (s *Store) Class(ctx context.Context, id string) (records.Class, error) {
	return findByID[records.Class](ctx, s.classesCol, "class", id)
}

func (s *Store) Subject(ctx context.Context, id string) (records.Subject, error) {
	return findByID[records.Subject](ctx, s.subjectsCol, "subject", id)
}

func (s *Store) Exam(ctx context.Context, id string) (records.Exam, error) {
	return findByID[records.Exam](ctx, s.examsCol, "exam", id)
}

// Attendance returns the attendance records embedded in the student document.
// A missing student has no attendance.
func (s *Store) Attendance(ctx context.Context, studentID string) ([]records.AttendanceRecord, error) {
	findOptions := options.FindOne().SetProjection(bson.M{"attendance": 1})

	var doc struct {
		Attendance []records.AttendanceRecord `bson:"attendance"`
	}
	err := s.studentsCol.FindOne(ctx, shared.IDFilter("_id", studentID), findOptions).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError(err, "attendance of student", studentID)
	}
	return doc.Attendance, nil
}

// Results returns the student's exam results ordered by submission time.
func (s *Store) Results(ctx context.Context, studentID string) ([]records.ExamResult, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}})

	cursor, err := s.resultsCol.Find(ctx, shared.IDFilter("student_id", studentID), findOptions)
	if err != nil {
		return nil, queryError(err, "exam results of student", studentID)
	}
	defer cursor.Close(ctx)

	var results []records.ExamResult
	for cursor.Next(ctx) {
		var result records.ExamResult
		if err := cursor.Decode(&result); err != nil {
			log.Printf("WARN: skipping undecodable exam result of student %s: %v", studentID, err)
			continue
		}
		results = append(results, result)
	}
	if err := cursor.Err(); err != nil {
		return nil, queryError(err, "exam results of student", studentID)
	}
	return results, nil
}

func findByID[T any](ctx context.Context, col *mongo.Collection, what, id string) (T, error) {
	var v T
	if id == "" {
		return v, status.Errorf(codes.InvalidArgument, "%s id is required", what)
	}
	if err := col.FindOne(ctx, shared.IDFilter("_id", id)).Decode(&v); err != nil {
		return v, queryError(err, what, id)
	}
	return v, nil
}

// queryError maps a driver error onto a gRPC status
func queryError(err error, what, id string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return status.Errorf(codes.NotFound, "%s %s not found", what, id)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "retrieving %s %s: %v", what, id, err)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return status.Errorf(codes.DeadlineExceeded, "retrieving %s %s: %v", what, id, err)
	default:
		log.Printf("Error retrieving %s %s: %v", what, id, err)
		return status.Errorf(codes.Internal, "failed to retrieve %s %s", what, id)
	}
}
