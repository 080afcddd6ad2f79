package tests

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schoolstats/backend/internal/store/memory"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Degraded  bool            `json:"degraded"`
	Retryable bool            `json:"retryable"`
	Data      json.RawMessage `json:"data"`
}

func get(t *testing.T, env *TestEnv, path string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return rr.Code, body
}

func TestGateway_Reports(t *testing.T) {
	env := setupGatewayTestEnv(t)

	t.Run("Health", func(t *testing.T) {
		code, body := get(t, env, "/api/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, body.Success)
	})

	t.Run("Teacher Roster", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/teachers/t1/roster")
		require.Equal(t, http.StatusOK, code)
		assert.True(t, body.Success)
		assert.False(t, body.Degraded)

		var data struct {
			TotalCount    int  `json:"total_count"`
			NoAssignments bool `json:"no_assignments"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Equal(t, 2, data.TotalCount)
		assert.False(t, data.NoAssignments)
	})

	t.Run("Teacher Without Assignments", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/teachers/t2/roster")
		require.Equal(t, http.StatusOK, code)

		var data struct {
			NoAssignments bool `json:"no_assignments"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.True(t, data.NoAssignments)
	})

	t.Run("Subject Roster", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/teachers/t1/subjects/art/roster")
		require.Equal(t, http.StatusOK, code)

		var data struct {
			TotalCount int `json:"total_count"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Zero(t, data.TotalCount)
	})

	t.Run("Teacher Report", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/teachers/t1")
		require.Equal(t, http.StatusOK, code)

		var data struct {
			Exams struct {
				AverageScore      int            `json:"average_score"`
				PassRate          int            `json:"pass_rate"`
				GradeDistribution map[string]int `json:"grade_distribution"`
			} `json:"exams"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Equal(t, 70, data.Exams.AverageScore)
		assert.Equal(t, 50, data.Exams.PassRate)
		assert.Equal(t, 1, data.Exams.GradeDistribution["A+"])
		assert.Equal(t, 1, data.Exams.GradeDistribution["F"])
		assert.Len(t, data.Exams.GradeDistribution, 6)
	})

	t.Run("Student Report", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/students/s2")
		require.Equal(t, http.StatusOK, code)

		var data struct {
			Student struct {
				ClassName string `json:"class_name"`
			} `json:"student"`
			Attendance struct {
				Rate int `json:"rate"`
			} `json:"attendance"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Equal(t, "Class A", data.Student.ClassName)
		assert.Equal(t, 100, data.Attendance.Rate)
	})

	t.Run("Class Report", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/classes/A")
		require.Equal(t, http.StatusOK, code)

		var data struct {
			TotalCount int      `json:"total_count"`
			Subjects   []string `json:"subjects"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Equal(t, 2, data.TotalCount)
		assert.Equal(t, []string{"Math"}, data.Subjects)
	})

	t.Run("Unknown Teacher", func(t *testing.T) {
		code, body := get(t, env, "/api/reports/teachers/nobody")
		assert.Equal(t, http.StatusNotFound, code)
		assert.False(t, body.Success)
		assert.Equal(t, "teacher nobody not found", body.Message)
	})

	t.Run("Unknown Class", func(t *testing.T) {
		code, _ := get(t, env, "/api/reports/classes/Z")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestGateway_DegradedReport(t *testing.T) {
	env := setupGatewayTestEnv(t)
	env.Store.Fail(memory.OpAttendance, "s2", errors.New("replica lag"))

	code, body := get(t, env, "/api/reports/teachers/t1")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)
	assert.True(t, body.Degraded)

	var data struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, []string{"attendance fetch failed for student s2: replica lag"}, data.Warnings)
}

func TestGateway_BaseRosterUnavailable(t *testing.T) {
	env := setupGatewayTestEnv(t)
	env.Store.Fail(memory.OpStudents, "", status.Error(codes.Unavailable, "primary stepped down"))

	code, body := get(t, env, "/api/reports/teachers/t1/roster")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, body.Success)
	assert.True(t, body.Retryable)
}
