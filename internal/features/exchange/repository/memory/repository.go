// Package memory is a process-local OfferRepository guarded by one mutex.
// ClaimPair and ExpireIDs check and update status under the same lock, which
// gives the same guarantees as the row locks of the Postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/exchange/models"
	"shift-exchange-backend/internal/features/exchange/repository"
	userrepo "shift-exchange-backend/internal/features/user/repository"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	offers map[int64]*models.Offer
	users  userrepo.UserRepository
	now    func() time.Time
}

// NewMemoryRepository builds an empty store. users resolves owner display
// info for date listings and may be nil.
func NewMemoryRepository(users userrepo.UserRepository) repository.OfferRepository {
	return &memoryRepository{
		offers: make(map[int64]*models.Offer),
		users:  users,
		now:    time.Now,
	}
}

func (r *memoryRepository) Create(_ context.Context, offer *models.Offer) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	stored := cloneOffer(offer)
	stored.ID = r.nextID
	stored.Status = models.StatusActive
	stored.MatchedOfferID = nil
	stored.Wants = dedupSorted(stored.Wants)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.offers[stored.ID] = stored

	return cloneOffer(stored), nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	return cloneOffer(o), nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID int64, statuses ...models.Status) ([]*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Offer
	for _, o := range r.offers {
		if o.UserID == userID && hasStatus(o.Status, statuses) {
			out = append(out, cloneOffer(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepository) ListActive(_ context.Context) ([]*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Offer
	for _, o := range r.offers {
		if o.Status == models.StatusActive {
			c := cloneOffer(o)
			c.Wants = nil
			out = append(out, c)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *memoryRepository) ListActiveByDate(ctx context.Context, date string) ([]*models.OfferWithOwner, error) {
	r.mu.RLock()
	var matched []*models.Offer
	for _, o := range r.offers {
		if o.Status == models.StatusActive && o.Have.Date == date {
			matched = append(matched, cloneOffer(o))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Have.Hour != matched[j].Have.Hour {
			return matched[i].Have.Hour < matched[j].Have.Hour
		}
		return matched[i].ID < matched[j].ID
	})

	out := make([]*models.OfferWithOwner, 0, len(matched))
	for _, o := range matched {
		item := &models.OfferWithOwner{Offer: *o, Owner: models.Owner{TgID: o.UserID}}
		if r.users != nil {
			u, err := r.users.GetByTgID(ctx, o.UserID)
			if err != nil {
				// Offers require an existing user, so a miss is an inner join drop.
				continue
			}
			item.Owner.FullName = u.FullName
			item.Owner.Username = u.Username
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *memoryRepository) FindCandidates(_ context.Context, offer *models.Offer) ([]*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	self, ok := r.offers[offer.ID]
	if !ok {
		return nil, nil
	}

	var out []*models.Offer
	for _, o := range r.offers {
		if o.ID == self.ID || o.Status != models.StatusActive {
			continue
		}
		if o.Department != self.Department || o.UserID == self.UserID {
			continue
		}
		if self.WantsSlot(o.Have) {
			out = append(out, cloneOffer(o))
		}
	}
	sortByID(out)
	return out, nil
}

func (r *memoryRepository) ClaimPair(_ context.Context, offerID, partnerID int64) (models.ClaimResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.offers[offerID]
	if !ok || a.Status != models.StatusActive {
		return models.ClaimLostSelf, nil
	}
	b, ok := r.offers[partnerID]
	if !ok || b.Status != models.StatusActive {
		return models.ClaimLostPartner, nil
	}

	now := r.now()
	aID, bID := a.ID, b.ID
	a.Status, a.MatchedOfferID, a.UpdatedAt = models.StatusMatched, &bID, now
	b.Status, b.MatchedOfferID, b.UpdatedAt = models.StatusMatched, &aID, now
	return models.Claimed, nil
}

func (r *memoryRepository) DeleteByOwner(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.offers[id]
	if !ok || o.UserID != userID {
		return repository.ErrOfferNotFound
	}
	delete(r.offers, id)
	for _, other := range r.offers {
		if other.MatchedOfferID != nil && *other.MatchedOfferID == id {
			other.MatchedOfferID = nil
		}
	}
	return nil
}

func (r *memoryRepository) ExpireIDs(_ context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var n int64
	for _, id := range ids {
		if o, ok := r.offers[id]; ok && o.Status == models.StatusActive {
			o.Status = models.StatusExpired
			o.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func hasStatus(s models.Status, in []models.Status) bool {
	for _, x := range in {
		if s == x {
			return true
		}
	}
	return false
}

func sortByID(offers []*models.Offer) {
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
}

func dedupSorted(slots []calendar.Slot) []calendar.Slot {
	seen := make(map[calendar.Slot]struct{}, len(slots))
	out := make([]calendar.Slot, 0, len(slots))
	for _, s := range slots {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	calendar.SortSlots(out)
	return out
}

func cloneOffer(o *models.Offer) *models.Offer {
	c := *o
	c.Wants = append([]calendar.Slot{}, o.Wants...)
	if o.MatchedOfferID != nil {
		id := *o.MatchedOfferID
		c.MatchedOfferID = &id
	}
	return &c
}
