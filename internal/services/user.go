package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/usersapi/internal/apperror"
	"github.com/jjudge-oj/usersapi/internal/events"
	"github.com/jjudge-oj/usersapi/internal/logging"
	"github.com/jjudge-oj/usersapi/internal/store"
	"github.com/jjudge-oj/usersapi/types"
)

const (
	msgUnknownUser          = "Unknown user"
	msgEmailTaken           = "Email already existed"
	msgInvalidPassword      = "Invalid Password"
	msgInvalidConfirm       = "Invalid confirm password"
	msgInvalidCurrent       = "Invalid current password"
	msgFailedCreate         = "Failed to create user"
	msgFailedUpdate         = "Failed to update user"
	msgFailedDelete         = "Failed to delete user"
	msgFailedChangePassword = "Failed to change password"
	msgFailedLookup         = "Failed to look up user"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByPasswordHash(ctx context.Context, hash string) (types.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (types.User, error)
	Update(ctx context.Context, id int, name, email string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

// PasswordHasher hashes, verifies and vets plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hash string) bool
	Acceptable(plaintext string) error
}

// EventEmitter publishes user lifecycle events.
type EventEmitter interface {
	Emit(ctx context.Context, typ events.Type, user types.PublicUser) (string, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo    UserRepository
	hasher  PasswordHasher
	log     logging.Logger
	events  EventEmitter
	exports ObjectStore
	now     func() time.Time
}

// Option configures optional collaborators of UserService.
type Option func(*UserService)

// WithEvents publishes lifecycle events after successful writes.
func WithEvents(e EventEmitter) Option {
	return func(s *UserService) { s.events = e }
}

// WithExportStorage enables ExportUsers.
func WithExportStorage(o ObjectStore) Option {
	return func(s *UserService) { s.exports = o }
}

func NewUserService(repo UserRepository, hasher PasswordHasher, log logging.Logger, opts ...Option) *UserService {
	s := &UserService{
		repo:   repo,
		hasher: hasher,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUsers returns every user's public projection in store order.
func (s *UserService) ListUsers(ctx context.Context) ([]types.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	results := make([]types.PublicUser, 0, len(users))
	for _, user := range users {
		results = append(results, user.Public())
	}
	return results, nil
}

// GetUser returns the user's projection. The boolean is false when no user
// has the id; absence is not an error.
func (s *UserService) GetUser(ctx context.Context, id int) (types.PublicUser, bool, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, false, nil
		}
		return types.PublicUser{}, false, fmt.Errorf("get user %d: %w", id, err)
	}
	return user.Public(), true, nil
}

// CheckEmail reports whether no user has the email yet.
func (s *UserService) CheckEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	return false, fmt.Errorf("check email: %w", err)
}

// CheckPassword rejects passwords outside the length policy and plaintext
// that equals a stored hash value.
func (s *UserService) CheckPassword(ctx context.Context, password string) error {
	if err := s.hasher.Acceptable(password); err != nil {
		return apperror.Wrap(apperror.KindInvalidPassword, msgInvalidPassword, err).
			WithField("password", err.Error())
	}

	// Inverted lookup: a match means the plaintext is some stored hash, so it is refused.
	_, err := s.repo.GetByPasswordHash(ctx, password)
	switch {
	case err == nil:
		return apperror.New(apperror.KindInvalidPassword, msgInvalidPassword)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check password: %w", err)
	}
}

// CreateUser registers a new account and returns its projection.
func (s *UserService) CreateUser(ctx context.Context, name, email, password, passwordConfirm string) (types.PublicUser, error) {
	free, err := s.CheckEmail(ctx, email)
	if err != nil {
		return types.PublicUser{}, s.failure(ctx, msgFailedCreate, err)
	}
	if !free {
		return types.PublicUser{}, apperror.New(apperror.KindEmailAlreadyTaken, msgEmailTaken)
	}

	if err := s.CheckPassword(ctx, password); err != nil {
		if apperror.Is(err, apperror.KindInvalidPassword) {
			return types.PublicUser{}, err
		}
		return types.PublicUser{}, s.failure(ctx, msgFailedCreate, err)
	}
	if password != passwordConfirm {
		return types.PublicUser{}, apperror.New(apperror.KindInvalidPassword, msgInvalidPassword).
			WithField("password_confirm", "does not match password")
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.PublicUser{}, s.failure(ctx, msgFailedCreate, err)
	}

	user, err := s.repo.Create(ctx, name, email, hashed)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.PublicUser{}, apperror.New(apperror.KindEmailAlreadyTaken, msgEmailTaken)
		}
		return types.PublicUser{}, s.failure(ctx, msgFailedCreate, err)
	}

	public := user.Public()
	s.emit(ctx, events.UserCreated, public)
	s.log.Info(ctx, "user created", "user_id", public.ID)
	return public, nil
}

// UpdateUser replaces the name and email of an existing user. Keeping the
// current email is allowed; taking another user's email is not. An absent id
// is an unprocessable update, not a missing resource.
func (s *UserService) UpdateUser(ctx context.Context, id int, name, email string) error {
	missing := apperror.New(apperror.KindUnprocessableEntity, msgFailedUpdate)
	if _, err := s.lookup(ctx, id, msgFailedUpdate, missing); err != nil {
		return err
	}

	owner, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != id:
		return apperror.New(apperror.KindEmailAlreadyTaken, msgEmailTaken)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return s.failure(ctx, msgFailedUpdate, err)
	}

	if err := s.repo.Update(ctx, id, name, email); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return missing
		case errors.Is(err, store.ErrDuplicateEmail):
			return apperror.New(apperror.KindEmailAlreadyTaken, msgEmailTaken)
		}
		return s.failure(ctx, msgFailedUpdate, err)
	}

	s.emit(ctx, events.UserUpdated, types.PublicUser{ID: id, Name: name, Email: email})
	s.log.Info(ctx, "user updated", "user_id", id)
	return nil
}

// DeleteUser removes an existing user. Like UpdateUser, an absent id is
// reported as an unprocessable delete.
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	missing := apperror.New(apperror.KindUnprocessableEntity, msgFailedDelete)
	user, err := s.lookup(ctx, id, msgFailedDelete, missing)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return missing
		}
		return s.failure(ctx, msgFailedDelete, err)
	}

	s.emit(ctx, events.UserDeleted, user.Public())
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// ChangePassword replaces the stored hash after verifying the current password.
func (s *UserService) ChangePassword(ctx context.Context, id int, oldPassword, newPassword, passwordConfirm string) error {
	if newPassword != passwordConfirm {
		return apperror.New(apperror.KindInvalidPassword, msgInvalidConfirm)
	}

	user, err := s.lookup(ctx, id, msgFailedChangePassword, apperror.New(apperror.KindNotFound, msgUnknownUser))
	if err != nil {
		return err
	}
	if !s.hasher.Matches(oldPassword, user.PasswordHash) {
		return apperror.New(apperror.KindInvalidPassword, msgInvalidCurrent)
	}
	if err := s.hasher.Acceptable(newPassword); err != nil {
		return apperror.Wrap(apperror.KindInvalidPassword, msgInvalidPassword, err).
			WithField("password_new", err.Error())
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.failure(ctx, msgFailedChangePassword, err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hashed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.New(apperror.KindNotFound, msgUnknownUser)
		}
		return s.failure(ctx, msgFailedChangePassword, err)
	}

	s.emit(ctx, events.UserPasswordChanged, user.Public())
	s.log.Info(ctx, "user password changed", "user_id", id)
	return nil
}

// lookup loads a user that an operation requires to exist, returning missing
// when it does not.
func (s *UserService) lookup(ctx context.Context, id int, failMsg string, missing *apperror.Error) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, missing
		}
		return types.User{}, s.failure(ctx, failMsg, err)
	}
	return user, nil
}

// failure logs a store or hashing error and hides it behind a typed failure.
func (s *UserService) failure(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, "user operation failed", "reason", msg, "error", err)
	return apperror.Wrap(apperror.KindUnprocessableEntity, msg, err)
}

// emit publishes best-effort; the write has already happened.
func (s *UserService) emit(ctx context.Context, typ events.Type, user types.PublicUser) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, typ, user); err != nil {
		s.log.Warn(ctx, "publish user event failed", "type", typ, "user_id", user.ID, "error", err)
	}
}
