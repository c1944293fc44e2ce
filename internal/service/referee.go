package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sgad/referee-service/internal/domain"
	"github.com/sgad/referee-service/internal/repository"
)

// Store scopes database access to a single operation.
type Store interface {
	WithSession(ctx context.Context, fn func(db repository.DBTX) error) error
	WithTx(ctx context.Context, fn func(db repository.DBTX) error) error
}

// RefereeService implements the referee CRUD operations.
type RefereeService struct {
	store    Store
	referees repository.RefereeRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
}

// NewRefereeService creates a new RefereeService.
func NewRefereeService(
	store Store,
	referees repository.RefereeRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *RefereeService {
	return &RefereeService{
		store:    store,
		referees: referees,
		outbox:   outbox,
		logger:   logger,
	}
}

// Create validates input and inserts a referee together with its created event.
func (s *RefereeService) Create(ctx context.Context, input domain.RefereeCreate) (*domain.Referee, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	draft, err := input.Referee()
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	var created *domain.Referee
	err = s.store.WithTx(ctx, func(db repository.DBTX) error {
		ref, err := s.referees.Insert(ctx, db, draft)
		if err != nil {
			return err
		}
		created = ref
		return s.outbox.Insert(ctx, db, domain.NewRefereeCreatedEvent(ref))
	})
	if err != nil {
		return nil, writeError("create referee", err)
	}

	s.logger.Info("referee created", "referee_id", created.ID, "user_id", created.UserID)
	return created, nil
}

// List returns every referee.
func (s *RefereeService) List(ctx context.Context) ([]domain.Referee, error) {
	var referees []domain.Referee
	err := s.store.WithSession(ctx, func(db repository.DBTX) error {
		var err error
		referees, err = s.referees.List(ctx, db)
		return err
	})
	if err != nil {
		return nil, domain.ErrInternal("list referees", err)
	}
	if referees == nil {
		referees = []domain.Referee{}
	}
	return referees, nil
}

// GetByID returns a referee or a 404 AppError.
func (s *RefereeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Referee, error) {
	return s.find(ctx, "find referee", func(db repository.DBTX) (*domain.Referee, error) {
		return s.referees.FindByID(ctx, db, id)
	})
}

// GetByUserID returns the earliest-created referee for userID or a 404 AppError.
func (s *RefereeService) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Referee, error) {
	return s.find(ctx, "find referee by user", func(db repository.DBTX) (*domain.Referee, error) {
		return s.referees.FindByUserID(ctx, db, userID)
	})
}

// Update applies only the fields present in input.
// An update without fields returns the current record and emits no event.
func (s *RefereeService) Update(ctx context.Context, id uuid.UUID, input domain.RefereeUpdate) (*domain.Referee, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	changes, err := input.Changes()
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(changes) == 0 {
		return s.GetByID(ctx, id)
	}

	var updated *domain.Referee
	err = s.store.WithTx(ctx, func(db repository.DBTX) error {
		ref, err := s.referees.UpdateFields(ctx, db, id, changes)
		if err != nil {
			return err
		}
		if ref == nil {
			return domain.ErrRefereeNotFound()
		}
		updated = ref
		return s.outbox.Insert(ctx, db, domain.NewRefereeUpdatedEvent(ref))
	})
	if err != nil {
		return nil, writeError("update referee", err)
	}

	s.logger.Info("referee updated", "referee_id", id, "fields", len(changes))
	return updated, nil
}

// Delete permanently removes a referee.
func (s *RefereeService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(db repository.DBTX) error {
		ref, err := s.referees.Delete(ctx, db, id)
		if err != nil {
			return err
		}
		if ref == nil {
			return domain.ErrRefereeNotFound()
		}
		return s.outbox.Insert(ctx, db, domain.NewRefereeDeletedEvent(ref))
	})
	if err != nil {
		return writeError("delete referee", err)
	}

	s.logger.Info("referee deleted", "referee_id", id)
	return nil
}

func (s *RefereeService) find(ctx context.Context, op string, lookup func(db repository.DBTX) (*domain.Referee, error)) (*domain.Referee, error) {
	var ref *domain.Referee
	err := s.store.WithSession(ctx, func(db repository.DBTX) error {
		var err error
		ref, err = lookup(db)
		return err
	})
	if err != nil {
		return nil, domain.ErrInternal(op, err)
	}
	if ref == nil {
		return nil, domain.ErrRefereeNotFound()
	}
	return ref, nil
}

// writeError passes AppErrors through and maps store failures onto them.
func writeError(op string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrDuplicateLicense) {
		return domain.ErrConflict("license_number already registered")
	}
	return domain.ErrInternal(op, err)
}
