package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rateshop/internal/model"
)

func sampleSnapshot() model.MarketSnapshot {
	median := int64(120000)
	return model.MarketSnapshot{
		TenantID:     7,
		CheckInDate:  time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC),
		LOS:          1,
		Adults:       2,
		SnapshotDate: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		CompMedian:   &median,
		Demand:       model.DemandNormal,
		Confidence:   model.ConfidenceMed,
	}
}

func TestSaveLatestFlipsThenUpserts(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE market_snapshots SET is_latest = 0")).
		WithArgs(7, "2026-10-22", 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO market_snapshots")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	id, err := NewSnapshotRepo(db).SaveLatest(context.Background(), sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLatestRollsBackWhenUpsertFails(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE market_snapshots SET is_latest = 0")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO market_snapshots")).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := NewSnapshotRepo(db).SaveLatest(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeBeforeKeepsRecommendedSnapshots(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM market_snapshots\s+WHERE is_latest = 0 AND snapshot_date < \?\s+` +
		`AND NOT EXISTS \(SELECT 1 FROM recommendations r WHERE r.snapshot_id = market_snapshots.id\)`).
		WithArgs("2026-07-17").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewSnapshotRepo(db).PurgeBefore(context.Background(), time.Date(2026, 7, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
