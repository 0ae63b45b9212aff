package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/pkg/db/transactor"
)

// ErrInquiryNotFound is raised when inquiry to update doesn't exist
var ErrInquiryNotFound = errors.New("inquiry not found")

// InquiryRepository is primary store of customer inquiries
type InquiryRepository interface {
	FindAll(context.Context) ([]*model.Inquiry, error)
	UpdateStatus(context.Context, string, model.Status, time.Time) (*model.Inquiry, error)
}

const inquiryColumns = `id, name, phone, email, inquiry_date, preferred_service_date, estimated_completion,
	budget, job_description, job_type, location, call_sid, status, created_at, updated_at`

type postgresInquiryRepository struct {
	trx      transactor.Transactor
	executor transactor.PgxWithinTransactionExecutor
}

// NewPostgresInquiryRepository builds postgres InquiryRepository
func NewPostgresInquiryRepository(trx transactor.Transactor, executor transactor.PgxWithinTransactionExecutor) InquiryRepository {
	return &postgresInquiryRepository{trx: trx, executor: executor}
}

func (r *postgresInquiryRepository) FindAll(ctx context.Context) ([]*model.Inquiry, error) {
	q := fmt.Sprintf("SELECT %s FROM customer_inquiries ORDER BY created_at DESC", inquiryColumns)

	rows, err := r.executor.Executor(ctx).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inquiries := make([]*model.Inquiry, 0)
	for rows.Next() {
		i, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		inquiries = append(inquiries, i)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inquiries, nil
}

// UpdateStatus sets status and records it in status history in one transaction
func (r *postgresInquiryRepository) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) (*model.Inquiry, error) {
	var updated *model.Inquiry

	err := r.trx.WithinTransaction(ctx, func(ctx context.Context) error {
		executor := r.executor.Executor(ctx)

		q := fmt.Sprintf("UPDATE customer_inquiries SET status = $1, updated_at = $2 WHERE id = $3 RETURNING %s", inquiryColumns)
		i, err := r.scan(executor.QueryRow(ctx, q, status, at, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInquiryNotFound
			}
			return err
		}

		hq := "INSERT INTO inquiry_status_history(inquiry_id, status, changed_at) VALUES($1, $2, $3)"
		if _, err := executor.Exec(ctx, hq, id, status, at); err != nil {
			return err
		}

		updated = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresInquiryRepository) scan(row pgx.Row) (*model.Inquiry, error) {
	var i model.Inquiry
	var budget pgtype.Numeric
	var jobType, location pgtype.Text

	err := row.Scan(
		&i.ID, &i.Name, &i.Phone, &i.Email, &i.InquiryDate, &i.PreferredServiceDate, &i.EstimatedCompletion,
		&budget, &i.JobDescription, &jobType, &location, &i.CallSid, &i.Status, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if budget.Status == pgtype.Present {
		var b float64
		if err := budget.AssignTo(&b); err != nil {
			return nil, fmt.Errorf("failed to read budget of inquiry %s - %w", i.ID, err)
		}
		i.Budget = &b
	}

	i.JobType = jobType.String
	i.Location = location.String
	return &i, nil
}
