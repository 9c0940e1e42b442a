package portal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Domain types are defined in this file

var (
	ErrDuplicateRegistrationNumber = errors.New("an account with this registration number already exists")
	ErrDuplicateEmail              = errors.New("an account with this email already exists")
	ErrInvalidCredentials          = errors.New("invalid registration number or password")
	ErrValidationFailed            = errors.New("validation failed")
	ErrCorruptPersistedState       = errors.New("corrupt persisted state")
	ErrDuplicateCourseCode         = errors.New("a course with this code already exists")
	ErrNotFound                    = errors.New("not found")
)

// Store keys, before any namespace prefix is applied
const (
	UsersKey         = "users"
	CurrentUserKey   = "currentUser"
	CoursesKey       = "courses"
	AnnouncementsKey = "announcements"
	TimetableKey     = "timetable"
)

// KeyValueStore is the only persistence capability the repositories need.
// Get reports ok=false when the key does not exist.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID                 string `json:"id"`
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	RegistrationNumber string `json:"registrationNumber"`
	// Stored as given. See DESIGN.md before using this anywhere real.
	PasswordHash string `json:"passwordHash"`
	Role         Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) String() string {
	return fmt.Sprintf("%s:%s", u.Role, u.RegistrationNumber)
}

// NewUser carries the signup form fields the repository persists
type NewUser struct {
	FullName           string
	Email              string
	RegistrationNumber string
	PasswordHash       string
}

var registrationNumberPattern = regexp.MustCompile(`(?i)^FCP/CIT/\d{2}/\d{4}$`)

// ValidRegistrationNumber reports whether s has the FCP/CIT/YY/SSSS shape, in any casing
func ValidRegistrationNumber(s string) bool {
	return registrationNumberPattern.MatchString(s)
}

func (n NewUser) Valid() error {
	if n.FullName == "" || n.Email == "" || n.RegistrationNumber == "" || n.PasswordHash == "" {
		return fmt.Errorf("%w: please fill in all fields", ErrValidationFailed)
	}
	if !ValidRegistrationNumber(n.RegistrationNumber) {
		return fmt.Errorf("%w: invalid registration number format, expected FCP/CIT/YY/SSSS", ErrValidationFailed)
	}
	return nil
}

type Color string

const (
	ColorPrimary      Color = "primary"
	ColorSecondary    Color = "secondary"
	ColorAccent       Color = "accent"
	ColorAccentYellow Color = "accent-yellow"
	ColorAccentCyan   Color = "accent-cyan"
)

// Colors is the display palette a course may be tagged with
var Colors = []Color{ColorPrimary, ColorSecondary, ColorAccent, ColorAccentYellow, ColorAccentCyan}

func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

type Course struct {
	Code          string   `json:"code"`
	Title         string   `json:"title"`
	Credits       int      `json:"credits"`
	Instructor    string   `json:"instructor"`
	Syllabus      []string `json:"syllabus"`
	Prerequisites []string `json:"prerequisites"`
	Color         Color    `json:"color"`
}

func (c Course) Valid() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: course code cannot be empty", ErrValidationFailed)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: course title cannot be empty", ErrValidationFailed)
	}
	if c.Credits <= 0 {
		return fmt.Errorf("%w: credits must be a positive number", ErrValidationFailed)
	}
	if c.Instructor == "" {
		return fmt.Errorf("%w: instructor cannot be empty", ErrValidationFailed)
	}
	if c.Color != "" && !c.Color.Valid() {
		return fmt.Errorf("%w: unknown color %q", ErrValidationFailed, c.Color)
	}
	return nil
}

func (c Course) String() string {
	return fmt.Sprintf("%s - %s", c.Code, c.Title)
}

type Announcement struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Calendar day of creation, formatted as DateLayout
	Date string `json:"date"`
}

// DateLayout is the persisted format of Announcement.Date
const DateLayout = "2006-01-02"

type NewAnnouncement struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a NewAnnouncement) Valid() error {
	if a.Title == "" || a.Content == "" {
		return fmt.Errorf("%w: title and content are required", ErrValidationFailed)
	}
	return nil
}

type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

func (d Weekday) Valid() bool {
	for _, known := range Weekdays {
		if d == known {
			return true
		}
	}
	return false
}

type TimetableEntry struct {
	ID string `json:"id"`
	NewTimetableEntry
}

// NewTimetableEntry is a timetable slot before it has been assigned an id.
// CourseCode is not checked against the course catalog.
type NewTimetableEntry struct {
	Day         Weekday `json:"day"`
	Time        string  `json:"time"`
	CourseCode  string  `json:"courseCode"`
	CourseTitle string  `json:"courseTitle"`
	Location    string  `json:"location"`
}

func (e NewTimetableEntry) Valid() error {
	if !e.Day.Valid() {
		return fmt.Errorf("%w: day must be a weekday from Monday to Friday", ErrValidationFailed)
	}
	if e.Time == "" || e.CourseCode == "" || e.CourseTitle == "" || e.Location == "" {
		return fmt.Errorf("%w: please fill in all fields", ErrValidationFailed)
	}
	return nil
}

func (e TimetableEntry) String() string {
	return fmt.Sprintf("%s %s %s", e.Day, e.Time, e.CourseCode)
}

type Grade struct {
	CourseCode  string `json:"courseCode"`
	CourseTitle string `json:"courseTitle"`
	Grade       string `json:"grade"`
}

type SemesterGrades struct {
	Semester string  `json:"semester"`
	Grades   []Grade `json:"grades"`
}

// Service that owns accounts and the current session
type AuthService interface {
	Signup(context.Context, NewUser) (User, error)
	Login(ctx context.Context, registrationNumber, passwordHash string) (User, error)
	AdminLogin(ctx context.Context, username, password string) (User, error)
	CurrentSession(context.Context) (User, bool, error)
	SaveSession(context.Context, User) error
	ClearSession(context.Context) error
}

// Service that owns courses, announcements and the timetable
type AcademicService interface {
	SeedIfAbsent(context.Context) error

	Courses(context.Context) ([]Course, error)
	Course(ctx context.Context, code string) (Course, error)
	AddCourse(context.Context, Course) (Course, error)
	UpdateCourse(context.Context, Course) (Course, error)

	Announcements(context.Context) ([]Announcement, error)
	AddAnnouncement(context.Context, NewAnnouncement) (Announcement, error)
	UpdateAnnouncement(context.Context, Announcement) (Announcement, error)

	Timetable(context.Context) ([]TimetableEntry, error)
	AddTimetableEntry(context.Context, NewTimetableEntry) (TimetableEntry, error)
	UpdateTimetableEntry(context.Context, TimetableEntry) (TimetableEntry, error)

	Grades(context.Context) ([]SemesterGrades, error)
}
