package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jacobmichels/portal"
	"github.com/jacobmichels/portal/internal/collection"
	"github.com/jacobmichels/portal/metrics"
	"github.com/rs/zerolog/log"
)

// Repository implements AuthService
var _ portal.AuthService = (*Repository)(nil)

// AdminUser is the identity stored in the session after an admin login.
// It is never written to the users collection.
var AdminUser = portal.User{
	ID:                 "admin-user",
	FullName:           "Portal Administrator",
	Email:              "admin@portal.edu",
	RegistrationNumber: "ADMIN",
	Role:               portal.RoleAdmin,
}

// Repository owns the users collection and the current session
type Repository struct {
	kv            portal.KeyValueStore
	adminUsername string
	adminPassword string
	newID         func() string

	// serialises read-modify-write of the users collection
	mu sync.Mutex
}

type Option func(*Repository)

// WithAdmin sets the credential AdminLogin accepts. Without it admin login always fails.
func WithAdmin(username, password string) Option {
	return func(r *Repository) {
		r.adminUsername = username
		r.adminPassword = password
	}
}

// WithIDGenerator replaces the uuid generator used for new users
func WithIDGenerator(f func() string) Option {
	return func(r *Repository) {
		r.newID = f
	}
}

func NewRepository(kv portal.KeyValueStore, opts ...Option) *Repository {
	r := &Repository{kv: kv, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Signup(ctx context.Context, nu portal.NewUser) (portal.User, error) {
	// Signup steps
	// 1. Reject a registration number already taken, in any casing
	// 2. Reject an email already taken
	// 3. Append the new student and persist the whole collection

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := collection.Load[portal.User](ctx, r.kv, portal.UsersKey)
	if err != nil {
		return portal.User{}, fmt.Errorf("failed to load users: %w", err)
	}

	for _, u := range users {
		if strings.EqualFold(u.RegistrationNumber, nu.RegistrationNumber) {
			metrics.ObserveAuth("signup", portal.ErrDuplicateRegistrationNumber)
			return portal.User{}, portal.ErrDuplicateRegistrationNumber
		}
	}
	for _, u := range users {
		if u.Email == nu.Email {
			metrics.ObserveAuth("signup", portal.ErrDuplicateEmail)
			return portal.User{}, portal.ErrDuplicateEmail
		}
	}

	user := portal.User{
		ID:                 r.newID(),
		FullName:           nu.FullName,
		Email:              nu.Email,
		RegistrationNumber: strings.ToUpper(nu.RegistrationNumber),
		PasswordHash:       nu.PasswordHash,
		Role:               portal.RoleStudent,
	}

	users = append(users, user)
	if err := collection.Save(ctx, r.kv, portal.UsersKey, users); err != nil {
		return portal.User{}, fmt.Errorf("failed to save users: %w", err)
	}

	metrics.ObserveAuth("signup", nil)
	log.Info().Str("user", user.String()).Msg("student signed up")
	return user, nil
}

// Login does not say whether the account or the password was wrong
func (r *Repository) Login(ctx context.Context, registrationNumber, passwordHash string) (portal.User, error) {
	users, err := collection.Load[portal.User](ctx, r.kv, portal.UsersKey)
	if err != nil {
		return portal.User{}, fmt.Errorf("failed to load users: %w", err)
	}

	for _, u := range users {
		if strings.EqualFold(u.RegistrationNumber, registrationNumber) && u.PasswordHash == passwordHash {
			metrics.ObserveAuth("login", nil)
			return u, nil
		}
	}

	metrics.ObserveAuth("login", portal.ErrInvalidCredentials)
	return portal.User{}, portal.ErrInvalidCredentials
}

func (r *Repository) AdminLogin(ctx context.Context, username, password string) (portal.User, error) {
	if r.adminPassword == "" || username != r.adminUsername || password != r.adminPassword {
		metrics.ObserveAuth("admin_login", portal.ErrInvalidCredentials)
		return portal.User{}, portal.ErrInvalidCredentials
	}

	metrics.ObserveAuth("admin_login", nil)
	log.Info().Msg("administrator logged in")
	return AdminUser, nil
}

// CurrentSession never returns a decoding error: an unreadable session is removed and reported as absent
func (r *Repository) CurrentSession(ctx context.Context) (portal.User, bool, error) {
	raw, ok, err := r.kv.Get(ctx, portal.CurrentUserKey)
	if err != nil {
		return portal.User{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return portal.User{}, false, nil
	}

	var user portal.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Warn().Err(err).Msgf("%s, discarding session", portal.ErrCorruptPersistedState)
		metrics.CorruptReads.WithLabelValues(portal.CurrentUserKey).Inc()

		if err := r.kv.Delete(ctx, portal.CurrentUserKey); err != nil {
			return portal.User{}, false, fmt.Errorf("failed to remove corrupt session: %w", err)
		}
		return portal.User{}, false, nil
	}

	return user, true, nil
}

func (r *Repository) SaveSession(ctx context.Context, user portal.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := r.kv.Set(ctx, portal.CurrentUserKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *Repository) ClearSession(ctx context.Context) error {
	if err := r.kv.Delete(ctx, portal.CurrentUserKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
