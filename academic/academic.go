package academic

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/internal/collection"
	"github.com/rs/zerolog/log"
)

// Repository implements AcademicService
var _ portal.AcademicService = (*Repository)(nil)

// Repository owns the courses, announcements and timetable collections.
// Every write loads the whole collection, changes it and stores it back.
type Repository struct {
	kv    portal.KeyValueStore
	now   func() time.Time
	newID func() string

	// serialises read-modify-write cycles across all three collections
	mu sync.Mutex
}

func NewRepository(kv portal.KeyValueStore) *Repository {
	return &Repository{kv: kv, now: time.Now, newID: uuid.NewString}
}

// SeedIfAbsent writes the built-in data for every collection whose key does not exist yet
func (r *Repository) SeedIfAbsent(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seeded, err := seed(ctx, r.kv, portal.CoursesKey, defaultCourses)
	if err != nil {
		return err
	}
	if seeded {
		log.Info().Msg("seeded default courses")
	}

	seeded, err = seed(ctx, r.kv, portal.AnnouncementsKey, defaultAnnouncements)
	if err != nil {
		return err
	}
	if seeded {
		log.Info().Msg("seeded default announcements")
	}

	seeded, err = seed(ctx, r.kv, portal.TimetableKey, func() []portal.TimetableEntry {
		defaults := defaultTimetable()
		entries := make([]portal.TimetableEntry, 0, len(defaults))
		for _, d := range defaults {
			entries = append(entries, portal.TimetableEntry{ID: r.newID(), NewTimetableEntry: d})
		}
		return entries
	})
	if err != nil {
		return err
	}
	if seeded {
		log.Info().Msg("seeded default timetable")
	}

	return nil
}

func seed[T any](ctx context.Context, kv portal.KeyValueStore, key string, defaults func() []T) (bool, error) {
	exists, err := collection.Exists(ctx, kv, key)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists {
		return false, nil
	}

	if err := collection.Save(ctx, kv, key, defaults()); err != nil {
		return false, fmt.Errorf("failed to seed %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) Courses(ctx context.Context) ([]portal.Course, error) {
	return collection.Load[portal.Course](ctx, r.kv, portal.CoursesKey)
}

func (r *Repository) Course(ctx context.Context, code string) (portal.Course, error) {
	courses, err := r.Courses(ctx)
	if err != nil {
		return portal.Course{}, err
	}

	i := slices.IndexFunc(courses, func(c portal.Course) bool { return c.Code == code })
	if i < 0 {
		return portal.Course{}, fmt.Errorf("course %s: %w", code, portal.ErrNotFound)
	}
	return courses[i], nil
}

// AddCourse rejects a code that is already in the catalog
func (r *Repository) AddCourse(ctx context.Context, course portal.Course) (portal.Course, error) {
	if err := course.Valid(); err != nil {
		return portal.Course{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	courses, err := r.Courses(ctx)
	if err != nil {
		return portal.Course{}, err
	}

	if slices.ContainsFunc(courses, func(c portal.Course) bool { return c.Code == course.Code }) {
		return portal.Course{}, fmt.Errorf("course %s: %w", course.Code, portal.ErrDuplicateCourseCode)
	}

	courses = append(courses, course)
	if err := collection.Save(ctx, r.kv, portal.CoursesKey, courses); err != nil {
		return portal.Course{}, err
	}

	log.Info().Str("course", course.String()).Msg("course added")
	return course, nil
}

// UpdateCourse replaces the course with the same code. Nothing is written when there is none.
func (r *Repository) UpdateCourse(ctx context.Context, course portal.Course) (portal.Course, error) {
	if err := course.Valid(); err != nil {
		return portal.Course{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	courses, err := r.Courses(ctx)
	if err != nil {
		return portal.Course{}, err
	}

	i := slices.IndexFunc(courses, func(c portal.Course) bool { return c.Code == course.Code })
	if i < 0 {
		return portal.Course{}, fmt.Errorf("course %s: %w", course.Code, portal.ErrNotFound)
	}

	courses[i] = course
	if err := collection.Save(ctx, r.kv, portal.CoursesKey, courses); err != nil {
		return portal.Course{}, err
	}

	log.Info().Str("course", course.String()).Msg("course updated")
	return course, nil
}

// Announcements are returned newest first. Ties keep their stored order.
func (r *Repository) Announcements(ctx context.Context) ([]portal.Announcement, error) {
	announcements, err := collection.Load[portal.Announcement](ctx, r.kv, portal.AnnouncementsKey)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(announcements, func(a, b portal.Announcement) int {
		return cmp.Compare(parseDate(b.Date), parseDate(a.Date))
	})
	return announcements, nil
}

// unparseable dates sort last
func parseDate(s string) int64 {
	t, err := time.Parse(portal.DateLayout, s)
	if err != nil {
		return math.MinInt64
	}
	return t.Unix()
}

func (r *Repository) AddAnnouncement(ctx context.Context, na portal.NewAnnouncement) (portal.Announcement, error) {
	if err := na.Valid(); err != nil {
		return portal.Announcement{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// stored order, not the sorted view
	announcements, err := collection.Load[portal.Announcement](ctx, r.kv, portal.AnnouncementsKey)
	if err != nil {
		return portal.Announcement{}, err
	}

	announcement := portal.Announcement{
		ID:      r.newID(),
		Title:   na.Title,
		Content: na.Content,
		Date:    r.now().Format(portal.DateLayout),
	}

	announcements = append([]portal.Announcement{announcement}, announcements...)
	if err := collection.Save(ctx, r.kv, portal.AnnouncementsKey, announcements); err != nil {
		return portal.Announcement{}, err
	}

	log.Info().Str("id", announcement.ID).Msg("announcement posted")
	return announcement, nil
}

// UpdateAnnouncement replaces title and content. The creation date is kept.
func (r *Repository) UpdateAnnouncement(ctx context.Context, announcement portal.Announcement) (portal.Announcement, error) {
	if err := (portal.NewAnnouncement{Title: announcement.Title, Content: announcement.Content}).Valid(); err != nil {
		return portal.Announcement{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	announcements, err := collection.Load[portal.Announcement](ctx, r.kv, portal.AnnouncementsKey)
	if err != nil {
		return portal.Announcement{}, err
	}

	i := slices.IndexFunc(announcements, func(a portal.Announcement) bool { return a.ID == announcement.ID })
	if i < 0 {
		return portal.Announcement{}, fmt.Errorf("announcement %s: %w", announcement.ID, portal.ErrNotFound)
	}

	announcement.Date = announcements[i].Date
	announcements[i] = announcement
	if err := collection.Save(ctx, r.kv, portal.AnnouncementsKey, announcements); err != nil {
		return portal.Announcement{}, err
	}

	log.Info().Str("id", announcement.ID).Msg("announcement updated")
	return announcement, nil
}

func (r *Repository) Timetable(ctx context.Context) ([]portal.TimetableEntry, error) {
	return collection.Load[portal.TimetableEntry](ctx, r.kv, portal.TimetableKey)
}

func (r *Repository) AddTimetableEntry(ctx context.Context, ne portal.NewTimetableEntry) (portal.TimetableEntry, error) {
	if err := ne.Valid(); err != nil {
		return portal.TimetableEntry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	timetable, err := r.Timetable(ctx)
	if err != nil {
		return portal.TimetableEntry{}, err
	}

	entry := portal.TimetableEntry{ID: r.newID(), NewTimetableEntry: ne}
	timetable = append(timetable, entry)
	if err := collection.Save(ctx, r.kv, portal.TimetableKey, timetable); err != nil {
		return portal.TimetableEntry{}, err
	}

	log.Info().Str("entry", entry.String()).Msg("timetable entry added")
	return entry, nil
}

func (r *Repository) UpdateTimetableEntry(ctx context.Context, entry portal.TimetableEntry) (portal.TimetableEntry, error) {
	if err := entry.Valid(); err != nil {
		return portal.TimetableEntry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	timetable, err := r.Timetable(ctx)
	if err != nil {
		return portal.TimetableEntry{}, err
	}

	i := slices.IndexFunc(timetable, func(e portal.TimetableEntry) bool { return e.ID == entry.ID })
	if i < 0 {
		return portal.TimetableEntry{}, fmt.Errorf("timetable entry %s: %w", entry.ID, portal.ErrNotFound)
	}

	timetable[i] = entry
	if err := collection.Save(ctx, r.kv, portal.TimetableKey, timetable); err != nil {
		return portal.TimetableEntry{}, err
	}

	log.Info().Str("entry", entry.String()).Msg("timetable entry updated")
	return entry, nil
}

// Grades is a read-only report; it is not persisted
func (r *Repository) Grades(ctx context.Context) ([]portal.SemesterGrades, error) {
	return defaultGrades(), nil
}
