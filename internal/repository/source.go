package repository

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgconn"
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"github.com/umalmyha/inquiries/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

const defaultFetchErrorMessage = "Failed to fetch inquiries"

// InquirySource is the remote end inquiry store talks to
type InquirySource interface {
	FetchInquiries(context.Context) (*model.InquiryListResponse, error)
	UpdateStatus(context.Context, string, model.Status) (*model.Inquiry, error)
}

type repositoryInquirySource struct {
	inquiryRps InquiryRepository
	now        func() time.Time
}

// NewRepositoryInquirySource exposes InquiryRepository as InquirySource, database failures are
// converted to remote errors of corresponding kind
func NewRepositoryInquirySource(inquiryRps InquiryRepository) InquirySource {
	return &repositoryInquirySource{inquiryRps: inquiryRps, now: time.Now}
}

func (s *repositoryInquirySource) FetchInquiries(ctx context.Context) (*model.InquiryListResponse, error) {
	inquiries, err := s.inquiryRps.FindAll(ctx)
	if err != nil {
		return nil, remoteErr(err, defaultFetchErrorMessage)
	}

	success := true
	return &model.InquiryListResponse{Success: &success, Data: inquiries}, nil
}

func (s *repositoryInquirySource) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Inquiry, error) {
	i, err := s.inquiryRps.UpdateStatus(ctx, id, status, s.now().UTC())
	if err != nil {
		return nil, remoteErr(err, "Failed to update inquiry status")
	}
	return i, nil
}

func remoteErr(err error, msg string) error {
	var remote *inqErrors.RemoteErr
	if errors.As(err, &remote) {
		return remote
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return inqErrors.NewTimeoutErr("Request timed out")
	}

	if errors.Is(err, ErrInquiryNotFound) {
		return inqErrors.NewServerErr("not_found", err.Error(), err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return inqErrors.NewServerErr(pgErr.Code, pgErr.Message, err)
	}

	var netErr net.Error
	isNetErr := errors.As(err, &netErr)
	if pgconn.Timeout(err) || mongo.IsTimeout(err) || (isNetErr && netErr.Timeout()) {
		return inqErrors.NewTimeoutErr("Request timed out")
	}
	if isNetErr || mongo.IsNetworkError(err) {
		return inqErrors.NewNetworkErr("Network request failed", err)
	}

	return inqErrors.NewServerErr("", msg, err)
}
