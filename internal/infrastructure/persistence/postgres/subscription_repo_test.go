package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"ai-stock-advisor/internal/domain/signal"
	"ai-stock-advisor/internal/domain/subscription"
)

func TestSubscriptionRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "ticker", "trading_strategy", "created_at", "last_notified_signal", "last_run_at", "inserted"}).
		AddRow("sub-1", "user@example.com", "AAPL", "long-term", now, nil, nil, true)

	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs("user@example.com", "AAPL", "long-term").
		WillReturnRows(rows)

	sub, created, err := repo.Upsert(ctx, " User@Example.COM ", "aapl", "long-term")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "sub-1", sub.ID)
	require.Equal(t, "user@example.com", sub.Email)
	require.Nil(t, sub.LastNotifiedSignal)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	now := time.Now()
	lastRun := now.Add(-24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "email", "ticker", "trading_strategy", "created_at", "last_notified_signal", "last_run_at"}).
		AddRow("sub-1", "a@example.com", "AAPL", "", now, "Buy", lastRun).
		AddRow("sub-2", "b@example.com", "TSLA", "swing", now, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WillReturnRows(rows)

	subs, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.NotNil(t, subs[0].LastNotifiedSignal)
	require.Equal(t, signal.BucketBuy, *subs[0].LastNotifiedSignal)
	require.Nil(t, subs[1].LastNotifiedSignal)
	require.Nil(t, subs[1].LastRunAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_ListActive_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM subscriptions").
		WillReturnError(errors.New("connection refused"))

	_, err = repo.ListActive(context.Background())
	var serr *subscription.StoreError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "list_active", serr.Op)
}

func TestSubscriptionRepo_RecordOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepo(db)
	at := time.Now()

	mock.ExpectExec("UPDATE subscriptions").
		WithArgs("sub-1", "StrongSell", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordOutcome(context.Background(), "sub-1", signal.BucketStrongSell, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepo_RecordOutcome_MissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepo(db)
	at := time.Now()

	mock.ExpectExec("UPDATE subscriptions").
		WithArgs("ghost", "Buy", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.RecordOutcome(context.Background(), "ghost", signal.BucketBuy, at)
	var serr *subscription.StoreError
	require.ErrorAs(t, err, &serr)
}

func TestSubscriptionRepo_Remove(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubscriptionRepo(db)

	mock.ExpectExec("DELETE FROM subscriptions").
		WithArgs("user@example.com", "AAPL").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Remove(context.Background(), "User@example.com", "aapl"))
	require.NoError(t, mock.ExpectationsWereMet())
}
