package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/export"
	"github.com/jacobmichels/portal/observability"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

func (s Server) pingHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Debug().Msg("ping request received")

		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("error writing ping response")
		}
	}
}

func (s Server) signupHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Info().Msg("signup request received")

		var req SignupRequest
		if !decode(w, r, &req) {
			return
		}

		if err := req.Valid(); err != nil {
			log.Info().Err(err).Msg("signup request invalid")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		user, err := s.authService.Signup(r.Context(), req.NewUser())
		if err != nil {
			fail(w, err, "Signup failed")
			return
		}

		if err := s.authService.SaveSession(r.Context(), user); err != nil {
			fail(w, err, "Signup succeeded but the session could not be saved, please log in")
			return
		}
		if err := s.issueSessionCookie(w, user); err != nil {
			fail(w, err, "Signup succeeded but the session could not be saved, please log in")
			return
		}

		writeJSON(w, http.StatusCreated, newUserResponse(user))
	}
}

func (s Server) loginHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Info().Msg("login request received")

		var req LoginRequest
		if !decode(w, r, &req) {
			return
		}
		if err := req.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		user, err := s.authService.Login(r.Context(), req.RegistrationNumber, req.Password)
		if err != nil {
			fail(w, err, "Login failed")
			return
		}
		s.startSession(w, r, user)
	}
}

func (s Server) adminLoginHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Info().Msg("admin login request received")

		var req AdminLoginRequest
		if !decode(w, r, &req) {
			return
		}
		if err := req.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		user, err := s.authService.AdminLogin(r.Context(), req.Username, req.Password)
		if err != nil {
			fail(w, err, "Login failed")
			return
		}
		s.startSession(w, r, user)
	}
}

func (s Server) startSession(w http.ResponseWriter, r *http.Request, user portal.User) {
	if err := s.authService.SaveSession(r.Context(), user); err != nil {
		fail(w, err, "Failed to start session")
		return
	}
	if err := s.issueSessionCookie(w, user); err != nil {
		fail(w, err, "Failed to start session")
		return
	}
	log.Info().Str("user", user.String()).Msg("session started")
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// logoutHandler only ends the stored session for the browser it belongs to
func (s Server) logoutHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if _, ok := s.session(r); ok {
			if err := s.authService.ClearSession(r.Context()); err != nil {
				fail(w, err, "Logout failed")
				return
			}
		}
		expireSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) sessionHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		user, ok := s.session(r)
		if !ok {
			http.Error(w, "Not logged in", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, newUserResponse(user))
	}
}

func (s Server) coursesHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		courses, err := s.academicService.Courses(r.Context())
		if err != nil {
			fail(w, err, "Failed to load courses")
			return
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

func (s Server) courseHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		course, err := s.academicService.Course(r.Context(), p.ByName("code"))
		if err != nil {
			fail(w, err, "Failed to load course")
			return
		}
		writeJSON(w, http.StatusOK, course)
	}
}

func (s Server) announcementsHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		announcements, err := s.academicService.Announcements(r.Context())
		if err != nil {
			fail(w, err, "Failed to load announcements")
			return
		}
		writeJSON(w, http.StatusOK, announcements)
	}
}

func (s Server) timetableHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		timetable, err := s.academicService.Timetable(r.Context())
		if err != nil {
			fail(w, err, "Failed to load timetable")
			return
		}
		writeJSON(w, http.StatusOK, timetable)
	}
}

func (s Server) gradesHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		grades, err := s.academicService.Grades(r.Context())
		if err != nil {
			fail(w, err, "Failed to load grades")
			return
		}
		writeJSON(w, http.StatusOK, grades)
	}
}

func (s Server) addCourseHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		var req CourseRequest
		if !decode(w, r, &req) {
			return
		}

		course := req.NewCourse()
		if err := course.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		course, err := s.academicService.AddCourse(r.Context(), course)
		if err != nil {
			fail(w, err, "Failed to add course")
			return
		}
		writeJSON(w, http.StatusCreated, course)
	}
}

func (s Server) updateCourseHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		var req CourseRequest
		if !decode(w, r, &req) {
			return
		}

		stored, err := s.academicService.Course(r.Context(), p.ByName("code"))
		if err != nil {
			fail(w, err, "Failed to load course")
			return
		}

		course := req.Merge(stored)
		if err := course.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		course, err = s.academicService.UpdateCourse(r.Context(), course)
		if err != nil {
			fail(w, err, "Failed to update course")
			return
		}
		writeJSON(w, http.StatusOK, course)
	}
}

func (s Server) addAnnouncementHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		var req portal.NewAnnouncement
		if !decode(w, r, &req) {
			return
		}
		if err := req.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		announcement, err := s.academicService.AddAnnouncement(r.Context(), req)
		if err != nil {
			fail(w, err, "Failed to post announcement")
			return
		}
		writeJSON(w, http.StatusCreated, announcement)
	}
}

func (s Server) updateAnnouncementHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		var req portal.NewAnnouncement
		if !decode(w, r, &req) {
			return
		}
		if err := req.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		announcement, err := s.academicService.UpdateAnnouncement(r.Context(), portal.Announcement{
			ID:      p.ByName("id"),
			Title:   req.Title,
			Content: req.Content,
		})
		if err != nil {
			fail(w, err, "Failed to update announcement")
			return
		}
		writeJSON(w, http.StatusOK, announcement)
	}
}

func (s Server) addTimetableEntryHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		var req portal.NewTimetableEntry
		if !decode(w, r, &req) {
			return
		}
		if err := req.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		entry, err := s.academicService.AddTimetableEntry(r.Context(), req)
		if err != nil {
			fail(w, err, "Failed to add timetable entry")
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func (s Server) updateTimetableEntryHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, _ portal.User) {
		var req portal.NewTimetableEntry
		if !decode(w, r, &req) {
			return
		}
		if err := req.Valid(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		entry, err := s.academicService.UpdateTimetableEntry(r.Context(), portal.TimetableEntry{ID: p.ByName("id"), NewTimetableEntry: req})
		if err != nil {
			fail(w, err, "Failed to update timetable entry")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func (s Server) exportHandler() sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params, user portal.User) {
		ctx := r.Context()

		courses, err := s.academicService.Courses(ctx)
		if err != nil {
			fail(w, err, "Export failed")
			return
		}
		timetable, err := s.academicService.Timetable(ctx)
		if err != nil {
			fail(w, err, "Export failed")
			return
		}
		announcements, err := s.academicService.Announcements(ctx)
		if err != nil {
			fail(w, err, "Export failed")
			return
		}

		f, err := export.Workbook(courses, timetable, announcements)
		if err != nil {
			fail(w, err, "Export failed")
			return
		}
		defer f.Close()

		name := fmt.Sprintf("portal_%s.xlsx", time.Now().Format(portal.DateLayout))
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := f.Write(w); err != nil {
			log.Error().Err(err).Msg("error writing export")
			return
		}
		log.Info().Str("user", user.String()).Msg("workbook exported")
	}
}

// largest request body accepted by decode
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		log.Info().Err(err).Str("path", r.URL.Path).Msg("error decoding request")
		http.Error(w, "Failed to parse request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

// fail maps domain errors to status codes. Anything unexpected is a 500 reported to Sentry.
func fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, portal.ErrValidationFailed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, portal.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, portal.ErrDuplicateRegistrationNumber),
		errors.Is(err, portal.ErrDuplicateEmail),
		errors.Is(err, portal.ErrDuplicateCourseCode):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, portal.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error().Err(err).Msg(msg)
		observability.CaptureErr(err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
