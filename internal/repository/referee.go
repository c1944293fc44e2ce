package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sgad/referee-service/internal/domain"
)

// LicenseNumberConstraint is the unique constraint on referees.license_number.
const LicenseNumberConstraint = "referees_license_number_key"

// ErrDuplicateLicense is returned when an insert or update collides on license_number.
var ErrDuplicateLicense = errors.New("license_number already exists")

const refereeColumns = `id, user_id, license_number, specialties, certification_level,
		bank_account, bank_name, account_holder, is_available, created_at, updated_at`

// updatableColumns guards the dynamic SET clause in UpdateFields.
var updatableColumns = map[string]bool{
	"user_id":             true,
	"license_number":      true,
	"specialties":         true,
	"certification_level": true,
	"bank_account":        true,
	"bank_name":           true,
	"account_holder":      true,
	"is_available":        true,
}

type refereeRepo struct{}

// NewRefereeRepository returns a pgx-backed RefereeRepository.
func NewRefereeRepository() RefereeRepository {
	return &refereeRepo{}
}

func (r *refereeRepo) Insert(ctx context.Context, db DBTX, referee *domain.Referee) (*domain.Referee, error) {
	id := referee.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := db.QueryRow(ctx, `
		INSERT INTO referees (id, user_id, license_number, specialties, certification_level,
		                      bank_account, bank_name, account_holder, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+refereeColumns,
		id,
		referee.UserID,
		referee.LicenseNumber,
		referee.Specialties,
		referee.CertificationLevel,
		referee.BankAccount,
		referee.BankName,
		referee.AccountHolder,
		referee.IsAvailable,
	)
	out, err := scanReferee(row)
	if err != nil {
		return nil, translateWriteError("insert referee", err)
	}
	return out, nil
}

func (r *refereeRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Referee, error) {
	row := db.QueryRow(ctx, `SELECT `+refereeColumns+` FROM referees WHERE id = $1`, id)
	return scanReferee(row)
}

func (r *refereeRepo) FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.Referee, error) {
	row := db.QueryRow(ctx, `
		SELECT `+refereeColumns+`
		FROM referees WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, userID)
	return scanReferee(row)
}

func (r *refereeRepo) List(ctx context.Context, db DBTX) ([]domain.Referee, error) {
	rows, err := db.Query(ctx, `SELECT `+refereeColumns+` FROM referees ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list referees: %w", err)
	}
	defer rows.Close()

	referees := []domain.Referee{}
	for rows.Next() {
		ref, err := scanReferee(rows)
		if err != nil {
			return nil, err
		}
		referees = append(referees, *ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referees: %w", err)
	}
	return referees, nil
}

// UpdateFields builds the SET clause from the explicit changes only.
// With no changes the current row is returned untouched.
func (r *refereeRepo) UpdateFields(ctx context.Context, db DBTX, id uuid.UUID, changes []domain.FieldChange) (*domain.Referee, error) {
	if len(changes) == 0 {
		return r.FindByID(ctx, db, id)
	}

	setClauses := make([]string, 0, len(changes)+1)
	args := make([]interface{}, 0, len(changes)+1)
	argIdx := 1
	for _, c := range changes {
		if !updatableColumns[c.Column] {
			return nil, fmt.Errorf("update referee: column %q is not updatable", c.Column)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", c.Column, argIdx))
		args = append(args, c.Value)
		argIdx++
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE referees SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, refereeColumns)

	out, err := scanReferee(db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateWriteError("update referee", err)
	}
	return out, nil
}

func (r *refereeRepo) Delete(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Referee, error) {
	row := db.QueryRow(ctx, `DELETE FROM referees WHERE id = $1 RETURNING `+refereeColumns, id)
	return scanReferee(row)
}

func scanReferee(row pgx.Row) (*domain.Referee, error) {
	var ref domain.Referee
	err := row.Scan(
		&ref.ID, &ref.UserID, &ref.LicenseNumber, &ref.Specialties, &ref.CertificationLevel,
		&ref.BankAccount, &ref.BankName, &ref.AccountHolder, &ref.IsAvailable,
		&ref.CreatedAt, &ref.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan referee: %w", err)
	}
	if ref.Specialties == nil {
		ref.Specialties = []string{}
	}
	return &ref, nil
}

func translateWriteError(op string, err error) error {
	if IsUniqueViolation(err, LicenseNumberConstraint) {
		return fmt.Errorf("%s: %w", op, ErrDuplicateLicense)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505)
// on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
