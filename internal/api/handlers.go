package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"machitan.jp/machi-backend/internal/core"
	"machitan.jp/machi-backend/internal/store"
)

type APIHandler struct {
	comments  *core.CommentService
	identity  *core.IdentityService
	classroom *core.ClassroomService
	assistant *core.AssistantService
	listLimit int
}

func NewAPIHandler(comments *core.CommentService, identity *core.IdentityService, classroom *core.ClassroomService, assistant *core.AssistantService, listLimit int) *APIHandler {
	if listLimit <= 0 {
		listLimit = core.DefaultListLimit
	}
	return &APIHandler{
		comments:  comments,
		identity:  identity,
		classroom: classroom,
		assistant: assistant,
		listLimit: listLimit,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// validation failures are 400, missing records 404, anything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Identity handlers

type identityRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.identity.CreateUser(req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetUser(chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) CreateStudentHandler(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	student, err := h.identity.CreateStudent(req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *APIHandler) GetStudentHandler(w http.ResponseWriter, r *http.Request) {
	student, err := h.identity.GetStudent(chi.URLParam(r, "studentID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *APIHandler) ListStudentsHandler(w http.ResponseWriter, r *http.Request) {
	students, err := h.identity.ListStudents()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if students == nil {
		students = []store.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

// Comment handlers

type createCommentRequest struct {
	UserID    string   `json:"user_id"`
	Text      string   `json:"text"`
	ReplyTo   *string  `json:"reply_to"`
	Genre     *string  `json:"genre"`
	StudentID *string  `json:"student_id"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
}

func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	comment, err := h.comments.Submit(core.SubmitParams{
		UserID:    req.UserID,
		Text:      req.Text,
		ReplyTo:   req.ReplyTo,
		Genre:     req.Genre,
		StudentID: req.StudentID,
		Lat:       req.Lat,
		Lon:       req.Lon,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *APIHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(h.listLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *APIHandler) ListCommentsWithStudentsHandler(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListWithStudentNames(h.listLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if comments == nil {
		comments = []store.CommentWithStudent{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *APIHandler) GetCommentHandler(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comments.GetByID(chi.URLParam(r, "commentID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// Course handlers

type saveCourseRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func (h *APIHandler) SaveCourseHandler(w http.ResponseWriter, r *http.Request) {
	var req saveCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	course, err := h.classroom.SaveCourse(req.ID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"course_id":  course.CourseID,
		"created_at": course.CreatedAt,
	})
}

func (h *APIHandler) ListCoursesHandler(w http.ResponseWriter, r *http.Request) {
	courses, err := h.classroom.ListCourses()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if courses == nil {
		courses = []store.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *APIHandler) GetCourseHandler(w http.ResponseWriter, r *http.Request) {
	course, err := h.classroom.GetCourse(chi.URLParam(r, "courseID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course_id":  course.CourseID,
		"gpx":        course.GPXContent,
		"created_at": course.CreatedAt,
	})
}

func (h *APIHandler) DeleteCourseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.classroom.DeleteCourse(chi.URLParam(r, "courseID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Course-of-day handlers

type setCourseOfDayRequest struct {
	CourseID string `json:"course_id"`
}

func (h *APIHandler) SetCourseOfDayHandler(w http.ResponseWriter, r *http.Request) {
	var req setCourseOfDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.setCourseOfDay(w, req.CourseID)
}

func (h *APIHandler) SetCourseOfDayPathHandler(w http.ResponseWriter, r *http.Request) {
	h.setCourseOfDay(w, chi.URLParam(r, "courseID"))
}

func (h *APIHandler) setCourseOfDay(w http.ResponseWriter, courseID string) {
	cod, err := h.classroom.SetCourseOfDay(courseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cod)
}

func (h *APIHandler) GetCourseOfDayHandler(w http.ResponseWriter, r *http.Request) {
	cod, err := h.classroom.GetCourseOfDay()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no course of day set")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cod)
}

// Status handlers

type postStatusRequest struct {
	Status string `json:"status"`
}

func (h *APIHandler) PostStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req postStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.classroom.PostStatus(req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": ev.Status, "created_at": ev.CreatedAt})
}

func (h *APIHandler) PostControlStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req postStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.classroom.PostControlStatus(req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": ev.Status, "created_at": ev.CreatedAt})
}

func (h *APIHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	ev, err := h.classroom.LatestStatus()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no status set")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": ev.Status, "created_at": ev.CreatedAt})
}

// Assistant handlers

type assistantTextRequest struct {
	Text   string  `json:"text"`
	UserID *string `json:"user_id"`
}

func (h *APIHandler) AssistantTextHandler(w http.ResponseWriter, r *http.Request) {
	var req assistantTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	output, err := h.assistant.ReplyToText(r.Context(), req.Text, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"output": output})
}

const maxAudioUploadBytes = 25 << 20 // 25 MiB

func (h *APIHandler) AssistantAudioHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio file: "+err.Error())
		return
	}

	var userID *string
	if v := r.FormValue("user_id"); v != "" {
		userID = &v
	}

	transcript, err := h.assistant.TranscribeAudio(r.Context(), data, header.Filename, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript})
}
