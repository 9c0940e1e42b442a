package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/academic"
	"github.com/jacobmichels/portal/auth"
	"github.com/jacobmichels/portal/export"
	"github.com/jacobmichels/portal/store"
)

const adminPassword = "letmein"

// client plays one browser: it sends back the cookies the server set
type client struct {
	h       http.Handler
	cookies map[string]*http.Cookie
}

// stranger shares the server but none of the cookies
func (c *client) stranger() *client {
	return &client{h: c.h, cookies: make(map[string]*http.Cookie)}
}

func newTestServer(t *testing.T, kv portal.KeyValueStore) *client {
	t.Helper()

	ac := academic.NewRepository(kv)
	if err := ac.SeedIfAbsent(context.Background()); err != nil {
		t.Fatal(err)
	}
	a := auth.NewRepository(kv, auth.WithAdmin("Admin", adminPassword))

	srv, err := NewServer(":0", a, ac, WithSessionSecret("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return &client{h: srv.Router(), cookies: make(map[string]*http.Cookie)}
}

func do(t *testing.T, c *client, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case io.Reader:
		if _, err := buf.ReadFrom(b); err != nil {
			t.Fatal(err)
		}
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

func signup(t *testing.T, h *client) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/signup", SignupRequest{
		FullName:           "Ada Obi",
		Email:              "ada@x.edu",
		RegistrationNumber: "fcp/cit/20/0001",
		Password:           "p1",
		ConfirmPassword:    "p1",
	})
	expectStatus(t, rec, http.StatusCreated)
}

func TestPing(t *testing.T) {
	rec := do(t, newTestServer(t, store.NewMemory()), http.MethodGet, "/ping", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "OK" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	h := newTestServer(t, store.NewMemory())

	valid := SignupRequest{FullName: "A", Email: "a@x.edu", RegistrationNumber: "FCP/CIT/20/0001", Password: "p", ConfirmPassword: "p"}
	missing := valid
	missing.FullName = ""
	badRegnum := valid
	badRegnum.RegistrationNumber = "FCP-CIT-20-0001"
	shortYear := valid
	shortYear.RegistrationNumber = "FCP/CIT/2/0001"
	mismatch := valid
	mismatch.ConfirmPassword = "q"

	tests := []struct {
		name string
		req  SignupRequest
	}{
		{"missing field", missing},
		{"wrong separators", badRegnum},
		{"one digit year", shortYear},
		{"passwords differ", mismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/auth/signup", tt.req)
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}

	rec := do(t, h, http.MethodGet, "/auth/session", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestSignupStartsSession(t *testing.T) {
	h := newTestServer(t, store.NewMemory())
	signup(t, h)

	rec := do(t, h, http.MethodGet, "/auth/session", nil)
	expectStatus(t, rec, http.StatusOK)

	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(rec.Body.String(), "p1") {
		t.Fatalf("session response leaks the password: %s", rec.Body.String())
	}

	var user UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatal(err)
	}
	if user.RegistrationNumber != "FCP/CIT/20/0001" || user.Role != portal.RoleStudent {
		t.Fatalf("unexpected session user %+v", user)
	}
}

func TestLoginErrors(t *testing.T) {
	h := newTestServer(t, store.NewMemory())
	signup(t, h)

	rec := do(t, h, http.MethodPost, "/auth/signup", SignupRequest{
		FullName: "B", Email: "b@x.edu", RegistrationNumber: "FCP/CIT/20/0001", Password: "p", ConfirmPassword: "p",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, h, http.MethodPost, "/auth/login", LoginRequest{RegistrationNumber: "FCP/CIT/20/0001", Password: "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = do(t, h, http.MethodPost, "/auth/login", LoginRequest{RegistrationNumber: "FCP/CIT/20/0001", Password: "p1"})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodPost, "/auth/admin/login", AdminLoginRequest{Username: "Admin", Password: "nope"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = do(t, h, http.MethodPost, "/auth/login", strings.NewReader("not json"))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestSessionGating(t *testing.T) {
	h := newTestServer(t, store.NewMemory())

	for _, path := range []string{"/courses", "/courses/CIT401", "/announcements", "/timetable", "/grades", "/admin/export"} {
		rec := do(t, h, http.MethodGet, path, nil)
		expectStatus(t, rec, http.StatusUnauthorized)
	}

	signup(t, h)

	for _, path := range []string{"/courses", "/courses/CIT401", "/announcements", "/timetable", "/grades"} {
		rec := do(t, h, http.MethodGet, path, nil)
		expectStatus(t, rec, http.StatusOK)
	}

	rec := do(t, h, http.MethodGet, "/courses/NOPE", nil)
	expectStatus(t, rec, http.StatusNotFound)

	// students cannot reach the admin routes
	rec = do(t, h, http.MethodGet, "/admin/export", nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = do(t, h, http.MethodPost, "/admin/announcements", portal.NewAnnouncement{Title: "T", Content: "C"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodPost, "/auth/logout", nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = do(t, h, http.MethodGet, "/courses", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func adminLogin(t *testing.T, h *client) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/admin/login", AdminLoginRequest{Username: "Admin", Password: adminPassword})
	expectStatus(t, rec, http.StatusOK)
}

func TestAdminCourseRoundTrip(t *testing.T) {
	h := newTestServer(t, store.NewMemory())
	adminLogin(t, h)

	rec := do(t, h, http.MethodPost, "/admin/courses", CourseRequest{
		Code: "CIT501", Title: "Distributed Systems", Credits: 3, Instructor: "Dr. Lamport", Syllabus: []string{"Clocks"},
	})
	expectStatus(t, rec, http.StatusCreated)

	var added portal.Course
	if err := json.NewDecoder(rec.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}
	if !added.Color.Valid() {
		t.Fatalf("expected a palette color, got %q", added.Color)
	}

	rec = do(t, h, http.MethodPost, "/admin/courses", CourseRequest{Code: "CIT501", Title: "Again", Credits: 1, Instructor: "X"})
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, h, http.MethodPost, "/admin/courses", CourseRequest{Code: "CIT502", Title: "Zero", Credits: 0, Instructor: "X"})
	expectStatus(t, rec, http.StatusBadRequest)

	// omitted syllabus and color are kept
	rec = do(t, h, http.MethodPut, "/admin/courses/CIT501", CourseRequest{Title: "Distributed Systems II", Credits: 4, Instructor: "Dr. Lamport"})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodGet, "/courses/CIT501", nil)
	expectStatus(t, rec, http.StatusOK)
	var updated portal.Course
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Distributed Systems II" || updated.Credits != 4 || updated.Color != added.Color ||
		len(updated.Syllabus) != 1 || updated.Syllabus[0] != "Clocks" {
		t.Fatalf("unexpected course after edit %+v", updated)
	}

	rec = do(t, h, http.MethodGet, "/courses", nil)
	var courses []portal.Course
	if err := json.NewDecoder(rec.Body).Decode(&courses); err != nil {
		t.Fatal(err)
	}
	if len(courses) != 6 {
		t.Fatalf("expected 6 courses, got %d", len(courses))
	}

	rec = do(t, h, http.MethodPut, "/admin/courses/NOPE", CourseRequest{Title: "T", Credits: 1, Instructor: "I"})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestAdminAnnouncementsAndTimetable(t *testing.T) {
	h := newTestServer(t, store.NewMemory())
	adminLogin(t, h)

	rec := do(t, h, http.MethodPost, "/admin/announcements", portal.NewAnnouncement{Title: "Exam", Content: "Monday"})
	expectStatus(t, rec, http.StatusCreated)
	var posted portal.Announcement
	if err := json.NewDecoder(rec.Body).Decode(&posted); err != nil {
		t.Fatal(err)
	}

	rec = do(t, h, http.MethodPut, "/admin/announcements/"+posted.ID, portal.NewAnnouncement{Title: "Exam moved", Content: "Tuesday"})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodGet, "/announcements", nil)
	var announcements []portal.Announcement
	if err := json.NewDecoder(rec.Body).Decode(&announcements); err != nil {
		t.Fatal(err)
	}
	if len(announcements) != 4 || announcements[0].Title != "Exam moved" || announcements[0].Date != posted.Date {
		t.Fatalf("unexpected announcements %+v", announcements)
	}

	rec = do(t, h, http.MethodPost, "/admin/announcements", portal.NewAnnouncement{Title: "No content"})
	expectStatus(t, rec, http.StatusBadRequest)

	entry := portal.NewTimetableEntry{Day: portal.Friday, Time: "08:00 - 09:00", CourseCode: "CIT501", CourseTitle: "Distributed Systems", Location: "Lab 2"}
	rec = do(t, h, http.MethodPost, "/admin/timetable", entry)
	expectStatus(t, rec, http.StatusCreated)
	var added portal.TimetableEntry
	if err := json.NewDecoder(rec.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}

	entry.Day = "Saturday"
	rec = do(t, h, http.MethodPut, "/admin/timetable/"+added.ID, entry)
	expectStatus(t, rec, http.StatusBadRequest)

	entry.Day = portal.Thursday
	rec = do(t, h, http.MethodPut, "/admin/timetable/"+added.ID, entry)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodPut, "/admin/timetable/missing", entry)
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, h, http.MethodGet, "/timetable", nil)
	var timetable []portal.TimetableEntry
	if err := json.NewDecoder(rec.Body).Decode(&timetable); err != nil {
		t.Fatal(err)
	}
	if len(timetable) != 8 || timetable[7].Day != portal.Thursday {
		t.Fatalf("unexpected timetable %+v", timetable)
	}
}

func TestExport(t *testing.T) {
	h := newTestServer(t, store.NewMemory())
	adminLogin(t, h)

	rec := do(t, h, http.MethodGet, "/admin/export", nil)
	expectStatus(t, rec, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;") {
		t.Fatalf("expected an attachment, got %q", rec.Header().Get("Content-Disposition"))
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatal("body is not an xlsx file")
	}
}

// sessionFailingStore fails every read of the session key
type sessionFailingStore struct {
	portal.KeyValueStore
	deleted []string
}

func (s *sessionFailingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == portal.CurrentUserKey {
		return "", false, errors.New("disk on fire")
	}
	return s.KeyValueStore.Get(ctx, key)
}

func (s *sessionFailingStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.KeyValueStore.Delete(ctx, key)
}

func TestSessionStoreErrorClearsSession(t *testing.T) {
	kv := &sessionFailingStore{KeyValueStore: store.NewMemory()}
	h := newTestServer(t, kv)

	rec := do(t, h, http.MethodGet, "/auth/session", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	if len(kv.deleted) != 1 || kv.deleted[0] != portal.CurrentUserKey {
		t.Fatalf("expected the session to be cleared, deleted %v", kv.deleted)
	}
}

func TestAdminRoutesNeedTheSessionCookie(t *testing.T) {
	c := newTestServer(t, store.NewMemory())
	adminLogin(t, c)

	cookie, ok := c.cookies[sessionCookie]
	if !ok || !cookie.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookie)
	}

	course := CourseRequest{Code: "CIT501", Title: "Distributed Systems", Credits: 3, Instructor: "Dr. Lamport"}

	anon := c.stranger()
	expectStatus(t, do(t, anon, http.MethodPost, "/admin/courses", course), http.StatusUnauthorized)
	expectStatus(t, do(t, anon, http.MethodGet, "/admin/export", nil), http.StatusUnauthorized)
	expectStatus(t, do(t, anon, http.MethodGet, "/auth/session", nil), http.StatusUnauthorized)

	// the admin id is well known, so a cookie naming it must still carry our signature
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: auth.AdminUser.ID}).SignedString([]byte("guessed"))
	if err != nil {
		t.Fatal(err)
	}
	for _, value := range []string{forged, auth.AdminUser.ID} {
		attacker := c.stranger()
		attacker.cookies[sessionCookie] = &http.Cookie{Name: sessionCookie, Value: value}
		expectStatus(t, do(t, attacker, http.MethodPost, "/admin/courses", course), http.StatusUnauthorized)
	}

	// a stranger cannot log the admin out either
	expectStatus(t, do(t, anon, http.MethodPost, "/auth/logout", nil), http.StatusNoContent)
	expectStatus(t, do(t, c, http.MethodGet, "/auth/session", nil), http.StatusOK)

	expectStatus(t, do(t, c, http.MethodPost, "/admin/courses", course), http.StatusCreated)
}

func TestNewLoginReplacesSession(t *testing.T) {
	student := newTestServer(t, store.NewMemory())
	signup(t, student)
	expectStatus(t, do(t, student, http.MethodGet, "/courses", nil), http.StatusOK)

	admin := student.stranger()
	adminLogin(t, admin)

	expectStatus(t, do(t, student, http.MethodGet, "/courses", nil), http.StatusUnauthorized)
	expectStatus(t, do(t, admin, http.MethodGet, "/courses", nil), http.StatusOK)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	c := newTestServer(t, store.NewMemory())

	body := `{"fullName":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	rec := do(t, c, http.MethodPost, "/auth/signup", strings.NewReader(body))
	expectStatus(t, rec, http.StatusBadRequest)
}
