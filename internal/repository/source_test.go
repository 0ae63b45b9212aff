package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/require"
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/repository/mocks"
)

func strPtr(v string) *string {
	return &v
}

func intPtr(v int) *int {
	return &v
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type refusedErr struct{}

func (refusedErr) Error() string   { return "dial tcp 127.0.0.1:5432: connect: connection refused" }
func (refusedErr) Timeout() bool   { return false }
func (refusedErr) Temporary() bool { return false }

func TestRepositorySourceFetch(t *testing.T) {
	ctx := context.Background()
	inquiryRps := mocks.NewInquiryRepository(t)
	source := NewRepositoryInquirySource(inquiryRps)

	t.Log("rows are wrapped into successful envelope")
	{
		inquiries := []*model.Inquiry{{ID: "42", Status: model.StatusNew}}
		inquiryRps.On("FindAll", ctx).Return(inquiries, nil).Once()

		resp, err := source.FetchInquiries(ctx)
		require.NoError(t, err)
		require.True(t, *resp.Success)
		require.Equal(t, inquiries, resp.Data)
	}

	t.Log("database errors are classified")
	{
		cases := []struct {
			err     error
			kind    inqErrors.Kind
			code    string
			message string
			offline bool
		}{
			{err: context.DeadlineExceeded, kind: inqErrors.KindTimeout, message: "Request timed out", offline: true},
			{err: fmt.Errorf("failed to connect - %w", timeoutErr{}), kind: inqErrors.KindTimeout, message: "Request timed out", offline: true},
			{err: fmt.Errorf("failed to connect - %w", refusedErr{}), kind: inqErrors.KindNetwork, message: "Network request failed", offline: true},
			{err: &pgconn.PgError{Code: "42P01", Message: `relation "customer_inquiries" does not exist`}, kind: inqErrors.KindServer, code: "42P01", message: `relation "customer_inquiries" does not exist`},
			{err: errors.New("something odd"), kind: inqErrors.KindServer, message: "Failed to fetch inquiries", offline: true},
		}

		for _, c := range cases {
			inquiryRps.On("FindAll", ctx).Return(nil, c.err).Once()

			_, err := source.FetchInquiries(ctx)

			var remoteErr *inqErrors.RemoteErr
			require.True(t, errors.As(err, &remoteErr), "error must be converted to remote error")
			require.Equal(t, c.kind, remoteErr.Kind(), "wrong kind for %v", c.err)
			require.Equal(t, c.code, remoteErr.Code())
			require.Equal(t, c.message, remoteErr.Error())
			require.Equal(t, c.offline, inqErrors.IsOffline(err), "offline flag must agree with message %q", c.message)
		}
	}
}

func TestRepositorySourceUpdateStatus(t *testing.T) {
	ctx := context.Background()
	inquiryRps := mocks.NewInquiryRepository(t)
	source := NewRepositoryInquirySource(inquiryRps).(*repositoryInquirySource)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return at }

	t.Log("updated row is returned")
	{
		row := &model.Inquiry{ID: "42", Status: model.StatusCompleted, UpdatedAt: at}
		inquiryRps.On("UpdateStatus", ctx, "42", model.StatusCompleted, at).Return(row, nil).Once()

		i, err := source.UpdateStatus(ctx, "42", model.StatusCompleted)
		require.NoError(t, err)
		require.Equal(t, row, i)
	}

	t.Log("missing inquiry is server error")
	{
		inquiryRps.On("UpdateStatus", ctx, "7", model.StatusCancelled, at).Return(nil, ErrInquiryNotFound).Once()

		_, err := source.UpdateStatus(ctx, "7", model.StatusCancelled)
		require.ErrorIs(t, err, ErrInquiryNotFound)
		require.False(t, inqErrors.IsOffline(err))
	}

	t.Log("trigger rejection keeps database message")
	{
		pgErr := &pgconn.PgError{Code: "P0001", Message: "Invalid status transition from new to scheduled"}
		inquiryRps.On("UpdateStatus", ctx, "42", model.StatusScheduled, at).Return(nil, pgErr).Once()

		_, err := source.UpdateStatus(ctx, "42", model.StatusScheduled)
		require.EqualError(t, err, "Invalid status transition from new to scheduled")
	}

}

func TestFileFlagRps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	content := `flags:
  - key: kill_switch
    enabled: false
  - key: telephony
    enabled: false
    rollout_percentage: 30
    safe_mode_message: Calling is temporarily unavailable
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	flagRps := NewFileFlagRepository(path)

	t.Log("records are read from file")
	{
		records, err := flagRps.FindAll(context.Background())
		require.NoError(t, err)
		require.Equal(t, []*model.FlagRecord{
			{Key: model.FlagKillSwitch},
			{Key: model.FlagTelephony, RolloutPercentage: intPtr(30), SafeModeMessage: strPtr("Calling is temporarily unavailable")},
		}, records)
	}

	t.Log("file changes are picked up")
	{
		require.NoError(t, os.WriteFile(path, []byte("flags:\n  - key: kill_switch\n    enabled: true\n"), 0o600))

		records, err := flagRps.FindAll(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.True(t, records[0].Enabled)
	}

	t.Log("broken file is an error")
	{
		require.NoError(t, os.WriteFile(path, []byte("flags: [\n"), 0o600))

		_, err := flagRps.FindAll(context.Background())
		require.Error(t, err)
	}

	t.Log("missing file is an error")
	{
		_, err := NewFileFlagRepository(filepath.Join(t.TempDir(), "missing.yaml")).FindAll(context.Background())
		require.Error(t, err)
	}
}
