package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/repository"
	"shift-exchange-backend/internal/platform/postgres"
)

const offerColumns = `o.id, o.user_id, o.department, o.have_date, o.have_hour, o.status, o.matched_offer_id, o.created_at, o.updated_at`

var errPairUpdate = errors.New("pair update touched an unexpected number of rows")

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.OfferRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	out := *offer
	out.Status = models.StatusActive

	err := postgres.WithTx(ctx, r.db, nil, func(ctx context.Context, tx postgres.DBTX) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO offers (user_id, department, have_date, have_hour, status)
			VALUES ($1, $2, $3, $4, 'active')
			RETURNING id, created_at, updated_at`,
			offer.UserID, offer.Department, offer.Have.Date, offer.Have.Hour,
		).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert offer: %w", err)
		}

		for _, w := range offer.Wants {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO offer_wants (offer_id, want_date, want_hour)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				out.ID, w.Date, w.Hour,
			); err != nil {
				return fmt.Errorf("insert want %s: %w", w, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	out.Wants = append([]calendar.Slot(nil), offer.Wants...)
	calendar.SortSlots(out.Wants)
	return &out, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	offer, err := scanOffer(r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers o WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if err := r.attachWants(ctx, []*models.Offer{offer}); err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID int64, statuses ...models.Status) ([]*models.Offer, error) {
	st := make([]string, len(statuses))
	for i, s := range statuses {
		st[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers o
		WHERE o.user_id = $1 AND o.status = ANY($2)
		ORDER BY o.created_at DESC, o.id DESC`,
		userID, pq.Array(st),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user offers: %w", err)
	}
	offers, err := collectOffers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachWants(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]*models.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers o
		WHERE o.status = 'active'
		ORDER BY o.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active offers: %w", err)
	}
	return collectOffers(rows)
}

func (r *postgresRepository) ListActiveByDate(ctx context.Context, date string) ([]*models.OfferWithOwner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+offerColumns+`, u.tg_id, u.full_name, u.tg_username
		FROM offers o
		JOIN users u ON u.tg_id = o.user_id
		WHERE o.status = 'active' AND o.have_date = $1
		ORDER BY o.have_hour, o.id`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers by date: %w", err)
	}
	defer rows.Close()

	var (
		result []*models.OfferWithOwner
		plain  []*models.Offer
	)
	for rows.Next() {
		var (
			owner              models.Owner
			fullName, username sql.NullString
		)
		o, err := scanOffer(rows, &owner.TgID, &fullName, &username)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		owner.FullName = fullName.String
		owner.Username = username.String

		item := &models.OfferWithOwner{Offer: *o, Owner: owner}
		result = append(result, item)
		plain = append(plain, &item.Offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}
	if err := r.attachWants(ctx, plain); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepository) FindCandidates(ctx context.Context, offer *models.Offer) ([]*models.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers o
		WHERE o.status = 'active'
		  AND o.department = $1
		  AND o.user_id <> $2
		  AND o.id <> $3
		  AND (o.have_date, o.have_hour) IN (
		      SELECT w.want_date, w.want_hour FROM offer_wants w WHERE w.offer_id = $3
		  )
		ORDER BY o.id`,
		offer.Department, offer.UserID, offer.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	offers, err := collectOffers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachWants(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *postgresRepository) ClaimPair(ctx context.Context, offerID, partnerID int64) (models.ClaimResult, error) {
	result := models.Claimed

	err := postgres.WithTx(ctx, r.db, nil, func(ctx context.Context, tx postgres.DBTX) error {
		// Lock in id order so concurrent claims over overlapping pairs cannot deadlock.
		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM offers
			WHERE id = ANY($1) AND status = 'active'
			ORDER BY id
			FOR UPDATE`,
			pq.Array([]int64{offerID, partnerID}),
		)
		if err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}
		active := map[int64]bool{}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan locked id: %w", err)
			}
			active[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}

		switch {
		case !active[offerID]:
			result = models.ClaimLostSelf
			return nil
		case !active[partnerID]:
			result = models.ClaimLostPartner
			return nil
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE offers
			SET status = 'matched',
			    matched_offer_id = CASE WHEN id = $1 THEN $2::BIGINT ELSE $1::BIGINT END,
			    updated_at = NOW()
			WHERE id IN ($1, $2) AND status = 'active'`,
			offerID, partnerID,
		)
		if err != nil {
			return fmt.Errorf("mark pair matched: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n != 2 {
			return errPairUpdate
		}
		return nil
	})
	if err != nil {
		return models.ClaimLostSelf, fmt.Errorf("failed to claim pair %d/%d: %w", offerID, partnerID, err)
	}
	return result, nil
}

func (r *postgresRepository) DeleteByOwner(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrOfferNotFound
	}
	return nil
}

func (r *postgresRepository) ExpireIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE offers
		SET status = 'expired', updated_at = NOW()
		WHERE id = ANY($1) AND status = 'active'`,
		pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire offers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// attachWants loads want lists for offers in one query.
func (r *postgresRepository) attachWants(ctx context.Context, offers []*models.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Offer, len(offers))
	ids := make([]int64, 0, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
		ids = append(ids, o.ID)
		o.Wants = []calendar.Slot{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT offer_id, want_date, want_hour
		FROM offer_wants
		WHERE offer_id = ANY($1)
		ORDER BY offer_id, want_date, want_hour`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load wants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			offerID int64
			day     time.Time
			hour    string
		)
		if err := rows.Scan(&offerID, &day, &hour); err != nil {
			return fmt.Errorf("failed to scan want: %w", err)
		}
		if o, ok := byID[offerID]; ok {
			o.Wants = append(o.Wants, calendar.Slot{Date: day.Format(calendar.DateLayout), Hour: strings.TrimSpace(hour)})
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanOffer reads offerColumns followed by any extra destinations.
func scanOffer(row scanner, extra ...any) (*models.Offer, error) {
	var (
		o        models.Offer
		haveDate time.Time
		status   string
		matched  sql.NullInt64
	)
	dest := append([]any{&o.ID, &o.UserID, &o.Department, &haveDate, &o.Have.Hour, &status, &matched, &o.CreatedAt, &o.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	o.Have.Date = haveDate.Format(calendar.DateLayout)
	o.Have.Hour = strings.TrimSpace(o.Have.Hour)
	o.Status = models.Status(status)
	if matched.Valid {
		id := matched.Int64
		o.MatchedOfferID = &id
	}
	return &o, nil
}

func collectOffers(rows *sql.Rows) ([]*models.Offer, error) {
	defer rows.Close()
	var offers []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}
	return offers, nil
}
