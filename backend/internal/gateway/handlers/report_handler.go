package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"schoolstats/backend/internal/gateway/util"
	"schoolstats/backend/internal/stats"
)

// Reporter builds the reports served by ReportHandler. *stats.Aggregator
// implements it.
type Reporter interface {
	TeacherRoster(ctx context.Context, teacherID string) (*stats.RosterReport, error)
	SubjectRoster(ctx context.Context, teacherID, subjectID string) (*stats.RosterReport, error)
	TeacherReport(ctx context.Context, teacherID string) (*stats.TeacherReport, error)
	StudentReport(ctx context.Context, studentID string) (*stats.StudentReport, error)
	ClassReport(ctx context.Context, classID string) (*stats.ClassReport, error)
}

// ReportHandler serves the report endpoints.
type ReportHandler struct {
	Reports Reporter
}

// pathID reads a required URL parameter, writing a 400 when it is blank
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		util.WriteJSONError(w, http.StatusBadRequest, name+" is required")
		return "", false
	}
	return id, true
}

// GetTeacherRoster handles GET /reports/teachers/{id}/roster
func (h *ReportHandler) GetTeacherRoster(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.Reports.TeacherRoster(r.Context(), teacherID)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteReport(w, report, report.Warnings)
}

// GetSubjectRoster handles GET /reports/teachers/{id}/subjects/{subject_id}/roster
func (h *ReportHandler) GetSubjectRoster(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subjectID, ok := pathID(w, r, "subject_id")
	if !ok {
		return
	}

	report, err := h.Reports.SubjectRoster(r.Context(), teacherID, subjectID)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteReport(w, report, report.Warnings)
}

// GetTeacherReport handles GET /reports/teachers/{id}
func (h *ReportHandler) GetTeacherReport(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.Reports.TeacherReport(r.Context(), teacherID)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteReport(w, report, report.Warnings)
}

// GetStudentReport handles GET /reports/students/{id}
func (h *ReportHandler) GetStudentReport(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.Reports.StudentReport(r.Context(), studentID)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteReport(w, report, report.Warnings)
}

// GetClassReport handles GET /reports/classes/{id}
func (h *ReportHandler) GetClassReport(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.Reports.ClassReport(r.Context(), classID)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteReport(w, report, report.Warnings)
}
