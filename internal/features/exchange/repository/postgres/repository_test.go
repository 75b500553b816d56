package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/repository"
)

var (
	offerCols = []string{"id", "user_id", "department", "have_date", "have_hour", "status", "matched_offer_id", "created_at", "updated_at"}
	wantCols  = []string{"offer_id", "want_date", "want_hour"}
)

func newRepoWithMock(t *testing.T) (repository.OfferRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresRepository(db), mock
}

func day(s string) time.Time {
	t, err := time.Parse(calendar.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreate_InsertsOfferAndWantsInOneTx(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO offers \(user_id, department, have_date, have_hour, status\)\s+VALUES \(\$1, \$2, \$3, \$4, 'active'\)\s+RETURNING id, created_at, updated_at`).
		WithArgs(int64(1), "VIP CALLS", "2025-01-10", "08:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))
	mock.ExpectExec(`INSERT INTO offer_wants`).
		WithArgs(int64(10), "2025-01-12", "10:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO offer_wants`).
		WithArgs(int64(10), "2025-01-11", "08:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := repo.Create(context.Background(), &models.Offer{
		UserID:     1,
		Department: "VIP CALLS",
		Have:       calendar.Slot{Date: "2025-01-10", Hour: "08:00"},
		Wants: []calendar.Slot{
			{Date: "2025-01-12", Hour: "10:00"},
			{Date: "2025-01-11", Hour: "08:00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), o.ID)
	assert.Equal(t, models.StatusActive, o.Status)
	assert.Equal(t, "2025-01-11", o.Wants[0].Date, "wants come back sorted")
}

func TestCreate_WantFailureRollsBack(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO offers`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))
	mock.ExpectExec(`INSERT INTO offer_wants`).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.Offer{
		UserID: 1, Department: "VIP CALLS",
		Have:  calendar.Slot{Date: "2025-01-10", Hour: "08:00"},
		Wants: []calendar.Slot{{Date: "2025-01-12", Hour: "10:00"}},
	})
	assert.ErrorContains(t, err, "fk violation")
}

func TestGetByID_AttachesWants(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM offers o WHERE o.id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(offerCols).
			AddRow(int64(5), int64(1), "CHATS", day("2025-01-10"), "07:00", "matched", int64(6), now, now))
	mock.ExpectQuery(`SELECT offer_id, want_date, want_hour\s+FROM offer_wants\s+WHERE offer_id = ANY\(\$1\)`).
		WithArgs(pq.Array([]int64{5})).
		WillReturnRows(sqlmock.NewRows(wantCols).
			AddRow(int64(5), day("2025-01-11"), "09:00").
			AddRow(int64(5), day("2025-01-12"), "13:00"))

	o, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, calendar.Slot{Date: "2025-01-10", Hour: "07:00"}, o.Have)
	assert.Equal(t, models.StatusMatched, o.Status)
	require.NotNil(t, o.MatchedOfferID)
	assert.Equal(t, int64(6), *o.MatchedOfferID)
	assert.Equal(t, []calendar.Slot{{Date: "2025-01-11", Hour: "09:00"}, {Date: "2025-01-12", Hour: "13:00"}}, o.Wants)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM offers o WHERE o.id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(offerCols))

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, repository.ErrOfferNotFound)
}

func TestFindCandidates_FiltersInSQL(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)WHERE o.status = 'active'\s+AND o.department = \$1\s+AND o.user_id <> \$2.*offer_wants w WHERE w.offer_id = \$3.*ORDER BY o.id`).
		WithArgs("VIP CALLS", int64(3), int64(9)).
		WillReturnRows(sqlmock.NewRows(offerCols).
			AddRow(int64(2), int64(1), "VIP CALLS", day("2025-01-12"), "10:00", "active", nil, now, now))
	mock.ExpectQuery(`FROM offer_wants`).
		WithArgs(pq.Array([]int64{2})).
		WillReturnRows(sqlmock.NewRows(wantCols).AddRow(int64(2), day("2025-01-10"), "08:00"))

	got, err := repo.FindCandidates(context.Background(), &models.Offer{ID: 9, UserID: 3, Department: "VIP CALLS"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].MatchedOfferID)
	assert.True(t, got[0].WantsSlot(calendar.Slot{Date: "2025-01-10", Hour: "08:00"}))
}

func expectLock(mock sqlmock.Sqlmock, ids ...int64) {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	mock.ExpectQuery(`SELECT id FROM offers\s+WHERE id = ANY\(\$1\) AND status = 'active'\s+ORDER BY id\s+FOR UPDATE`).
		WithArgs(pq.Array([]int64{9, 2})).
		WillReturnRows(rows)
}

func TestClaimPair(t *testing.T) {
	t.Run("claimed", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectBegin()
		expectLock(mock, 2, 9)
		mock.ExpectExec(`UPDATE offers\s+SET status = 'matched',\s+matched_offer_id = CASE WHEN id = \$1 THEN \$2::BIGINT ELSE \$1::BIGINT END`).
			WithArgs(int64(9), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		res, err := repo.ClaimPair(context.Background(), 9, 2)
		require.NoError(t, err)
		assert.Equal(t, models.Claimed, res)
	})

	t.Run("self gone", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectBegin()
		expectLock(mock, 2)
		mock.ExpectCommit()

		res, err := repo.ClaimPair(context.Background(), 9, 2)
		require.NoError(t, err)
		assert.Equal(t, models.ClaimLostSelf, res)
	})

	t.Run("partner gone", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectBegin()
		expectLock(mock, 9)
		mock.ExpectCommit()

		res, err := repo.ClaimPair(context.Background(), 9, 2)
		require.NoError(t, err)
		assert.Equal(t, models.ClaimLostPartner, res)
	})

	t.Run("short update rolls back", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectBegin()
		expectLock(mock, 2, 9)
		mock.ExpectExec(`UPDATE offers`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		_, err := repo.ClaimPair(context.Background(), 9, 2)
		assert.ErrorIs(t, err, errPairUpdate)
	})
}

func TestDeleteByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`DELETE FROM offers WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(4), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM offers`).
		WithArgs(int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteByOwner(context.Background(), 4, 1))
	assert.ErrorIs(t, repo.DeleteByOwner(context.Background(), 4, 2), repository.ErrOfferNotFound)
}

func TestExpireIDs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	n, err := repo.ExpireIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(`UPDATE offers\s+SET status = 'expired', updated_at = NOW\(\)\s+WHERE id = ANY\(\$1\) AND status = 'active'`).
		WithArgs(pq.Array([]int64{1, 2, 3})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err = repo.ExpireIDs(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListByUser_PassesStatuses(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`WHERE o.user_id = \$1 AND o.status = ANY\(\$2\)\s+ORDER BY o.created_at DESC`).
		WithArgs(int64(1), pq.Array([]string{"active", "matched"})).
		WillReturnRows(sqlmock.NewRows(offerCols))

	got, err := repo.ListByUser(context.Background(), 1, models.StatusActive, models.StatusMatched)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListActiveByDate_JoinsOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)u.tg_id, u.full_name, u.tg_username\s+FROM offers o\s+JOIN users u ON u.tg_id = o.user_id.*o.have_date = \$1`).
		WithArgs("2025-01-10").
		WillReturnRows(sqlmock.NewRows(append(offerCols, "tg_id", "full_name", "tg_username")).
			AddRow(int64(3), int64(7), "EMAIL", day("2025-01-10"), "09:00", "active", nil, now, now, int64(7), "Bo", nil))
	mock.ExpectQuery(`FROM offer_wants`).
		WithArgs(pq.Array([]int64{3})).
		WillReturnRows(sqlmock.NewRows(wantCols))

	got, err := repo.ListActiveByDate(context.Background(), "2025-01-10")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bo", got[0].Owner.FullName)
	assert.Equal(t, "", got[0].Owner.Username)
	assert.NotNil(t, got[0].Wants)
}
