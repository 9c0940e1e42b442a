package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/metrics"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

type Server struct {
	authService     portal.AuthService
	academicService portal.AcademicService
	addr            string
	secret          []byte
}

type Option func(*Server)

// WithSessionSecret sets the key session cookies are signed with.
// Without it a random key is generated, so cookies do not survive a restart.
func WithSessionSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

func NewServer(addr string, a portal.AuthService, ac portal.AcademicService, opts ...Option) (Server, error) {
	s := Server{authService: a, academicService: ac, addr: addr}
	for _, opt := range opts {
		opt(&s)
	}

	if s.secret == nil {
		s.secret = make([]byte, 32)
		if _, err := rand.Read(s.secret); err != nil {
			return Server{}, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	return s, nil
}

// Router returns the portal's routes, ready to be served
func (s Server) Router() http.Handler {
	r := httprouter.New()

	r.GET("/ping", s.instrument("/ping", s.pingHandler()))
	r.Handler(http.MethodGet, "/metrics", metrics.Handler())

	r.POST("/auth/signup", s.instrument("/auth/signup", s.signupHandler()))
	r.POST("/auth/login", s.instrument("/auth/login", s.loginHandler()))
	r.POST("/auth/admin/login", s.instrument("/auth/admin/login", s.adminLoginHandler()))
	r.POST("/auth/logout", s.instrument("/auth/logout", s.logoutHandler()))
	r.GET("/auth/session", s.instrument("/auth/session", s.sessionHandler()))

	// any logged in user
	r.GET("/courses", s.instrument("/courses", s.requireSession(s.coursesHandler())))
	r.GET("/courses/:code", s.instrument("/courses/:code", s.requireSession(s.courseHandler())))
	r.GET("/announcements", s.instrument("/announcements", s.requireSession(s.announcementsHandler())))
	r.GET("/timetable", s.instrument("/timetable", s.requireSession(s.timetableHandler())))
	r.GET("/grades", s.instrument("/grades", s.requireSession(s.gradesHandler())))

	// administrators only
	r.POST("/admin/courses", s.instrument("/admin/courses", s.requireAdmin(s.addCourseHandler())))
	r.PUT("/admin/courses/:code", s.instrument("/admin/courses/:code", s.requireAdmin(s.updateCourseHandler())))
	r.POST("/admin/announcements", s.instrument("/admin/announcements", s.requireAdmin(s.addAnnouncementHandler())))
	r.PUT("/admin/announcements/:id", s.instrument("/admin/announcements/:id", s.requireAdmin(s.updateAnnouncementHandler())))
	r.POST("/admin/timetable", s.instrument("/admin/timetable", s.requireAdmin(s.addTimetableEntryHandler())))
	r.PUT("/admin/timetable/:id", s.instrument("/admin/timetable/:id", s.requireAdmin(s.updateTimetableEntryHandler())))
	r.GET("/admin/export", s.instrument("/admin/export", s.requireAdmin(s.exportHandler())))

	return r
}

func (s Server) Start(ctx context.Context) error {
	srv := http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
	}
	log.Info().Msgf("listening on %s", s.addr)

	// start server, respecting context cancelation
	errChan := make(chan error)
	go func() { errChan <- srv.ListenAndServe() }()
	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info().Msg("server shutdown complete")
	}

	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts every response by route pattern and status code
func (s Server) instrument(route string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r, p)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	}
}

type sessionHandle func(http.ResponseWriter, *http.Request, httprouter.Params, portal.User)

// requireSession answers 401 unless somebody is logged in
func (s Server) requireSession(h sessionHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		user, ok := s.session(r)
		if !ok {
			http.Error(w, "Please log in", http.StatusUnauthorized)
			return
		}
		h(w, r, p, user)
	}
}

// requireAdmin answers 403 to a logged in student
func (s Server) requireAdmin(h sessionHandle) httprouter.Handle {
	return s.requireSession(func(w http.ResponseWriter, r *http.Request, p httprouter.Params, user portal.User) {
		if !user.IsAdmin() {
			log.Warn().Str("user", user.String()).Str("path", r.URL.Path).Msg("admin route refused")
			http.Error(w, "Administrator access required", http.StatusForbidden)
			return
		}
		h(w, r, p, user)
	})
}

// session returns the stored session user when the request's cookie was issued to that user.
// A failing store counts as logged out and drops whatever session is there.
func (s Server) session(r *http.Request) (portal.User, bool) {
	ctx := r.Context()

	user, ok, err := s.authService.CurrentSession(ctx)
	if err != nil {
		log.Error().Err(err).Msg("session check failed, clearing session")
		if err := s.authService.ClearSession(ctx); err != nil {
			log.Error().Err(err).Msg("failed to clear session")
		}
		return portal.User{}, false
	}
	if !ok {
		return portal.User{}, false
	}

	subject, err := s.cookieSubject(r)
	if err != nil || subject != user.ID {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request not bound to the current session")
		return portal.User{}, false
	}

	return user, true
}
