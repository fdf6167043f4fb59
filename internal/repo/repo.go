package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"github.com/sticonf/registration/internal/model"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrDuplicateReference   = errors.New("payment reference already exists")
	ErrTicketNumberTaken    = errors.New("ticket number already taken")
)

// TicketRow is the dashboard projection of a ticket joined with its owning
// registration's type and frozen amount.
type TicketRow struct {
	Ticket           model.Ticket
	RegistrationType string
	AmountPaid       int64
}

type Repository interface {
	CreateRegistration(ctx context.Context, reg *model.Registration) (uuid.UUID, error)
	GetRegistrationByID(ctx context.Context, id uuid.UUID) (*model.Registration, error)
	GetRegistrationsByUser(ctx context.Context, userID uuid.UUID) ([]model.Registration, error)

	CreatePayment(ctx context.Context, p *model.Payment) (uuid.UUID, error)
	GetPaymentByReference(ctx context.Context, reference string) (*model.Payment, error)
	CompletePaymentTx(ctx context.Context, reference string, paidAt time.Time, providerData []byte, nextTicketNumber func() string) (*model.Ticket, error)
	FailPaymentIfPending(ctx context.Context, reference string, providerData []byte) (bool, error)

	GetTicketByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*model.Ticket, error)
	GetTicketsByUser(ctx context.Context, userID uuid.UUID) ([]TicketRow, error)

	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p *model.Profile) error

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) CreateRegistration(ctx context.Context, reg *model.Registration) (uuid.UUID, error) {
	query := `
		INSERT INTO registrations (id, user_id, registration_type, sector, gov_level,
		                           exhibition, conference, participants, total_amount,
		                           payment_status, registration_data)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	row := r.db.QueryRowContext(ctx, query,
		reg.ID, reg.UserID, reg.RegistrationType, reg.Sector, reg.GovLevel,
		reg.Exhibition, reg.Conference, reg.Participants, reg.TotalAmount,
		reg.PaymentStatus, nullableJSON(reg.RegistrationData),
	)

	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert registration: %w", err)
	}
	return id, nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id uuid.UUID) (*model.Registration, error) {
	query := `
		SELECT id, user_id, registration_type, COALESCE(sector, ''), COALESCE(gov_level, ''),
		       exhibition, conference, participants, total_amount, payment_status,
		       registration_data, created_at, updated_at
		FROM registrations WHERE id = $1
	`
	var reg model.Registration
	if err := scanRegistration(r.db.QueryRowContext(ctx, query, id), &reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return &reg, nil
}

func (r *repository) GetRegistrationsByUser(ctx context.Context, userID uuid.UUID) ([]model.Registration, error) {
	query := `
		SELECT id, user_id, registration_type, COALESCE(sector, ''), COALESCE(gov_level, ''),
		       exhibition, conference, participants, total_amount, payment_status,
		       registration_data, created_at, updated_at
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner, reg *model.Registration) error {
	var data sql.NullString
	if err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.RegistrationType,
		&reg.Sector,
		&reg.GovLevel,
		&reg.Exhibition,
		&reg.Conference,
		&reg.Participants,
		&reg.TotalAmount,
		&reg.PaymentStatus,
		&data,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		return err
	}
	if data.Valid {
		reg.RegistrationData = []byte(data.String)
	}
	return nil
}

func (r *repository) CreatePayment(ctx context.Context, p *model.Payment) (uuid.UUID, error) {
	query := `
		INSERT INTO payments (id, user_id, registration_id, reference, amount, currency, method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.RegistrationID, p.Reference, p.Amount, p.Currency, p.Method, p.Status,
	)

	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err, "payments_reference_key") {
			return uuid.Nil, ErrDuplicateReference
		}
		return uuid.Nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	return id, nil
}

func (r *repository) GetPaymentByReference(ctx context.Context, reference string) (*model.Payment, error) {
	query := `
		SELECT id, user_id, registration_id, reference, amount, currency, method,
		       status, paid_at, provider_data, created_at, updated_at
		FROM payments
		WHERE reference = $1
	`
	row := r.db.QueryRowContext(ctx, query, reference)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var (
		p      model.Payment
		paidAt sql.NullTime
		data   sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.RegistrationID,
		&p.Reference,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&paidAt,
		&data,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if data.Valid {
		p.ProviderData = []byte(data.String)
	}
	return &p, nil
}

// CompletePaymentTx applies a provider-confirmed success in one transaction:
// payment to completed, owning registration to completed, ticket inserted
// with insert-ignore semantics on the per-registration unique constraint.
// Safe to call again for an already-completed reference; the stored ticket
// is returned and nothing is written twice. An attempt the expiry worker
// already marked failed can still complete here: the provider outcome wins.
//
// A ticket-number collision aborts the whole transaction and surfaces as
// ErrTicketNumberTaken: a unique violation poisons the transaction on the
// server, so the insert cannot be retried in place. The caller re-runs the
// transaction with a fresh number; nothing has been committed yet, so the
// re-run starts from the pending state.
func (r *repository) CompletePaymentTx(ctx context.Context, reference string, paidAt time.Time, providerData []byte, nextTicketNumber func() string) (*model.Ticket, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var (
		registrationID uuid.UUID
		userID         uuid.UUID
		status         string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT registration_id, user_id, status
		FROM payments
		WHERE reference = $1
		FOR UPDATE
	`, reference).Scan(&registrationID, &userID, &status)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to select payment for completion: %w", err)
	}

	if status != model.StatusCompleted {
		if _, err := tx.ExecContext(ctx, `
			UPDATE payments
			SET status = $1, paid_at = $2, provider_data = $3, updated_at = NOW()
			WHERE reference = $4
		`, model.StatusCompleted, paidAt, nullableJSON(providerData), reference); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to complete payment: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE registrations
			SET payment_status = $1, updated_at = NOW()
			WHERE id = $2
		`, model.StatusCompleted, registrationID); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to complete registration: %w", err)
		}
	}

	ticket, err := insertOrFetchTicket(ctx, tx, userID, registrationID, nextTicketNumber)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion transaction: %w", err)
	}
	return ticket, nil
}

func insertOrFetchTicket(ctx context.Context, tx *sql.Tx, userID, registrationID uuid.UUID, nextTicketNumber func() string) (*model.Ticket, error) {
	t := model.Ticket{
		ID:             uuid.New(),
		UserID:         userID,
		RegistrationID: registrationID,
		TicketNumber:   nextTicketNumber(),
		TicketType:     model.TicketTypeConference,
		Status:         model.TicketStatusActive,
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO tickets (id, user_id, registration_id, ticket_number, ticket_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (registration_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`,
		t.ID, t.UserID, t.RegistrationID, t.TicketNumber, t.TicketType, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err == nil {
		return &t, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict on registration_id: the ticket already exists.
		return fetchTicketTx(ctx, tx, registrationID)
	}
	if isUniqueViolation(err, "tickets_ticket_number_key") {
		// Random suffix collided with another registration's ticket.
		return nil, ErrTicketNumberTaken
	}
	return nil, fmt.Errorf("failed to insert ticket: %w", err)
}

func fetchTicketTx(ctx context.Context, tx *sql.Tx, registrationID uuid.UUID) (*model.Ticket, error) {
	var t model.Ticket
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, registration_id, ticket_number, ticket_type, status, created_at, updated_at
		FROM tickets
		WHERE registration_id = $1
	`, registrationID).Scan(
		&t.ID, &t.UserID, &t.RegistrationID, &t.TicketNumber, &t.TicketType, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing ticket: %w", err)
	}
	return &t, nil
}

// FailPaymentIfPending marks an attempt failed only while it is still
// pending. Returns false when the row was already terminal, so a late
// cancel after a successful verification is a no-op.
func (r *repository) FailPaymentIfPending(ctx context.Context, reference string, providerData []byte) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, provider_data = COALESCE($2, provider_data), updated_at = NOW()
		WHERE reference = $3 AND status = $4
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query,
		model.StatusFailed, nullableJSON(providerData), reference, model.StatusPending,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fail payment: %w", err)
	}
	return true, nil
}

func (r *repository) GetTicketByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, registration_id, ticket_number, ticket_type, status, created_at, updated_at
		FROM tickets
		WHERE registration_id = $1
	`, registrationID).Scan(
		&t.ID, &t.UserID, &t.RegistrationID, &t.TicketNumber, &t.TicketType, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &t, nil
}

func (r *repository) GetTicketsByUser(ctx context.Context, userID uuid.UUID) ([]TicketRow, error) {
	query := `
		SELECT t.id, t.user_id, t.registration_id, t.ticket_number, t.ticket_type, t.status,
		       t.created_at, t.updated_at, r.registration_type, r.total_amount
		FROM tickets t
		JOIN registrations r ON r.id = t.registration_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	defer rows.Close()

	var tickets []TicketRow
	for rows.Next() {
		var tr TicketRow
		if err := rows.Scan(
			&tr.Ticket.ID, &tr.Ticket.UserID, &tr.Ticket.RegistrationID,
			&tr.Ticket.TicketNumber, &tr.Ticket.TicketType, &tr.Ticket.Status,
			&tr.Ticket.CreatedAt, &tr.Ticket.UpdatedAt,
			&tr.RegistrationType, &tr.AmountPaid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, tr)
	}
	return tickets, rows.Err()
}

func (r *repository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, COALESCE(full_name, ''), COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(organization, ''), COALESCE(job_title, ''), COALESCE(country, ''),
		       created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Phone,
		&p.Organization, &p.JobTitle, &p.Country, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *repository) UpsertProfile(ctx context.Context, p *model.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO profiles (id, user_id, full_name, email, phone, organization, job_title, country)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = COALESCE(EXCLUDED.email, profiles.email),
			phone = EXCLUDED.phone,
			organization = EXCLUDED.organization,
			job_title = EXCLUDED.job_title,
			country = EXCLUDED.country,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.FullName, p.Email, p.Phone, p.Organization, p.JobTitle, p.Country,
	); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func isUniqueViolation(err error, constraint string) bool {
	return err != nil && strings.Contains(err.Error(), constraint)
}
