package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/repository"
	"github.com/diagnosis/turneja/internal/store"
	"github.com/diagnosis/turneja/pkg/events"
	"github.com/diagnosis/turneja/pkg/logger"
)

// SaveResult holds exactly one of User (an existing user returned as is) or
// Update (the result of a write).
type SaveResult struct {
	User   *domain.User
	Update *store.UpdateResult
}

type UserService interface {
	Save(ctx context.Context, email string, patch domain.UserPatch) (*SaveResult, error)
	Get(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, email string, patch domain.UserPatch) (store.UpdateResult, error)
	HasRole(ctx context.Context, email string, role domain.Role) (bool, error)
}

type userService struct {
	users    repository.UserRepository
	eventBus events.Publisher
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, eventBus events.Publisher) UserService {
	return &userService{users: users, eventBus: eventBus, now: time.Now}
}

// Save registers a new user, or lets an existing one request host status.
// Any other change to an existing user is ignored and the stored document
// is returned.
func (s *userService) Save(ctx context.Context, email string, patch domain.UserPatch) (*SaveResult, error) {
	if !domain.IsValidEmail(email) {
		return nil, domain.Invalid("invalid email %q", email)
	}
	email = domain.NormalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if existing != nil {
		if !patch.RequestsHost() {
			return &SaveResult{User: existing}, nil
		}
		res, err := s.users.Upsert(ctx, email, store.Set{domain.FieldStatus: string(domain.StatusRequested)})
		if err != nil {
			return nil, fmt.Errorf("request host: %w", err)
		}
		s.publishHostRequested(ctx, email)
		return &SaveResult{Update: &res}, nil
	}

	fields, err := patch.RegistrationFields(s.now())
	if err != nil {
		return nil, err
	}
	res, err := s.users.Upsert(ctx, email, store.Set(fields))
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	logger.InfoContext(ctx, "User registered", "email", email)
	if patch.RequestsHost() {
		s.publishHostRequested(ctx, email)
	}
	return &SaveResult{Update: &res}, nil
}

func (s *userService) publishHostRequested(ctx context.Context, email string) {
	event := events.UserEvent{Email: email, Status: string(domain.StatusRequested), At: s.now().UTC()}
	if err := s.eventBus.Publish(ctx, events.UserHostRequested, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish host request event", "error", err, "email", email)
	}
}

func (s *userService) Get(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *userService) UpdateRole(ctx context.Context, email string, patch domain.UserPatch) (store.UpdateResult, error) {
	if !domain.IsValidEmail(email) {
		return store.UpdateResult{}, domain.Invalid("invalid email %q", email)
	}
	email = domain.NormalizeEmail(email)

	fields, err := patch.RoleChangeFields(s.now())
	if err != nil {
		return store.UpdateResult{}, err
	}
	res, err := s.users.Upsert(ctx, email, store.Set(fields))
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update role: %w", err)
	}

	event := events.UserEvent{Email: email, At: s.now().UTC()}
	if role, ok := fields[domain.FieldRole].(string); ok {
		event.Role = role
	}
	if status, ok := fields[domain.FieldStatus].(string); ok {
		event.Status = status
	}
	if err := s.eventBus.Publish(ctx, events.UserRoleChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish role change event", "error", err, "email", email)
	}
	logger.InfoContext(ctx, "User role updated", "email", email, "role", event.Role)
	return res, nil
}

// HasRole reports whether email belongs to a stored user holding role. A
// missing user is simply false.
func (s *userService) HasRole(ctx context.Context, email string, role domain.Role) (bool, error) {
	u, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	return u != nil && u.Role == role, nil
}
