package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// All API routes live under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Identity routes
		r.Post("/users", apiHandler.CreateUserHandler)
		r.Post("/users/register", apiHandler.CreateUserHandler) // compatibility alias
		r.Get("/users/{userID}", apiHandler.GetUserHandler)
		r.Post("/students", apiHandler.CreateStudentHandler)
		r.Get("/students", apiHandler.ListStudentsHandler)
		r.Get("/students/{studentID}", apiHandler.GetStudentHandler)

		// Comment routes
		r.Post("/comments", apiHandler.CreateCommentHandler)
		r.Get("/comments", apiHandler.ListCommentsHandler)
		r.Get("/comments/with_students", apiHandler.ListCommentsWithStudentsHandler)
		r.Get("/comments/{commentID}", apiHandler.GetCommentHandler)

		// Course catalog routes
		r.Post("/courses", apiHandler.SaveCourseHandler)
		r.Get("/courses", apiHandler.ListCoursesHandler)
		r.Get("/courses/{courseID}", apiHandler.GetCourseHandler)
		r.Delete("/courses/{courseID}", apiHandler.DeleteCourseHandler)

		// Course-of-day pointer routes
		r.Post("/class_course/set", apiHandler.SetCourseOfDayHandler)
		r.Post("/class_course/{courseID}", apiHandler.SetCourseOfDayPathHandler)
		r.Get("/class_course", apiHandler.GetCourseOfDayHandler)

		// Activity status routes (validated surface)
		r.Post("/status", apiHandler.PostStatusHandler)
		r.Get("/status", apiHandler.GetStatusHandler)

		// Teacher control surface. POST /control/status intentionally skips
		// the allowed-set validation that POST /status enforces.
		r.Post("/control/status", apiHandler.PostControlStatusHandler)
		r.Get("/control/status", apiHandler.GetStatusHandler)
		r.Post("/control/course_of_day", apiHandler.SetCourseOfDayHandler)
		r.Get("/control/course_of_day", apiHandler.GetCourseOfDayHandler)

		// Assistant routes
		r.Post("/assistant/text", apiHandler.AssistantTextHandler)
		r.Post("/assistant/audio", apiHandler.AssistantAudioHandler)
	})

	return r
}
