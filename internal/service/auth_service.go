package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/events"
	"github.com/spec-kit/facility-tickets/internal/repository"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// AuthService coordinates registration, login and session resolution.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     *auth.TokenManager
	events     publisher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Tokens      *auth.TokenManager
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	BcryptCost  int
}

// NewUserInput describes an account to create.
type NewUserInput struct {
	Name          string
	Email         string
	Password      string
	Role          domain.Role
	ContactNumber string
	RollNumber    string
	FieldOfWork   string
}

// Session is an issued login.
type Session struct {
	User  *domain.User
	Token auth.IssuedToken
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := loggerOrNop(deps.Logger)
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		tokens:     deps.Tokens,
		events:     publisher{dispatcher: deps.Dispatcher, logger: logger, now: clockOrNow(nil)},
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// RegisterStudent creates a student account and logs it in.
func (s *AuthService) RegisterStudent(ctx context.Context, input NewUserInput) (*Session, error) {
	input.Role = domain.RoleStudent
	user, err := s.CreateUser(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

// CreateUser validates and stores a new account of any role, then
// announces it so a welcome email goes out.
func (s *AuthService) CreateUser(ctx context.Context, input NewUserInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = auth.NormalizeEmail(input.Email)

	details := map[string]any{}
	if input.Name == "" {
		details["name"] = "required"
	}
	if !auth.ValidEmail(input.Email) {
		details["email"] = "invalid email address"
	}
	if !auth.ValidPassword(input.Password) {
		details["password"] = "must be at least 6 characters"
	}
	if !input.Role.Valid() {
		details["role"] = "unknown role"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid account details", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:          input.Name,
		Email:         input.Email,
		PasswordHash:  hash,
		Role:          input.Role,
		ContactNumber: strings.TrimSpace(input.ContactNumber),
		RollNumber:    strings.TrimSpace(input.RollNumber),
		FieldOfWork:   strings.TrimSpace(input.FieldOfWork),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
	s.events.publish(ctx, events.EventUserRegistered, "", domain.Caller{UserID: user.ID, Role: user.Role}, events.UserRegisteredPayload{
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
	return user, nil
}

// EnsureAdmin creates the admin account if it does not exist yet. It
// reports whether a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, auth.NormalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			return nil, false, apperrors.NewConflict("email belongs to a non-admin account", map[string]any{"email": existing.Email})
		}
		return existing, false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, false, apperrors.MapError(err)
	}

	user, err := s.CreateUser(ctx, NewUserInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Login checks credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}
	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	issued, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Save(ctx, &domain.Session{
		ID:        issued.SessionID,
		UserID:    user.ID,
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Session{User: user, Token: issued}, nil
}

// Logout revokes the principal's session.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil {
		return apperrors.NewUnauthenticated("missing session")
	}
	if err := s.sessions.Delete(ctx, principal.SessionID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Resolve turns a presented token into the caller it belongs to. Expired,
// revoked and forged tokens are all Unauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (*auth.Principal, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthenticated("invalid session")
	}
	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewUnauthenticated("session expired or revoked")
		}
		return nil, apperrors.MapError(err)
	}
	if session.UserID != claims.Subject {
		return nil, apperrors.NewUnauthenticated("invalid session")
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if user.Role != claims.Role {
		return nil, apperrors.NewUnauthenticated("invalid session")
	}
	return &auth.Principal{
		Caller:    domain.Caller{UserID: user.ID, Role: user.Role},
		User:      user,
		SessionID: session.ID,
		Token:     token,
	}, nil
}
