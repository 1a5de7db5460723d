package service

import (
	"context"

	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/repository"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// StaffService lets admins manage worker accounts.
type StaffService struct {
	users repository.UserRepository
	auth  *AuthService
}

// WorkerInput describes a worker account.
type WorkerInput struct {
	Name          string
	Email         string
	Password      string
	ContactNumber string
	FieldOfWork   string
}

// NewStaffService wires the service.
func NewStaffService(users repository.UserRepository, authService *AuthService) *StaffService {
	return &StaffService{users: users, auth: authService}
}

func requireAdmin(caller domain.Caller) error {
	if !caller.Is(domain.RoleAdmin) {
		return apperrors.NewUnauthorized("admin role required")
	}
	return nil
}

// CreateWorker registers a new field worker.
func (s *StaffService) CreateWorker(ctx context.Context, caller domain.Caller, input WorkerInput) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.auth.CreateUser(ctx, NewUserInput{
		Name:          input.Name,
		Email:         input.Email,
		Password:      input.Password,
		Role:          domain.RoleWorker,
		ContactNumber: input.ContactNumber,
		FieldOfWork:   input.FieldOfWork,
	})
}

// ListWorkers returns every worker, newest first.
func (s *StaffService) ListWorkers(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	workers, err := s.users.ListByRole(ctx, domain.RoleWorker)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return workers, nil
}
