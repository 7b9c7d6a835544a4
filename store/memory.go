package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the demo mode
// of the service and the agent tests; it upholds the same atomicity
// guarantees as the SQL store, just with one lock instead of a
// transaction.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[int64]*User
	datasets  map[int64]*Dataset
	purchases []*Purchase

	nextUserID     int64
	nextDatasetID  int64
	nextPurchaseID int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*User),
		datasets: make(map[int64]*Dataset),
	}
}

// AddUser registers a user, assigning an ID when none is set, and returns
// a snapshot of the stored record.
func (s *MemoryStore) AddUser(u User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	} else if u.ID > s.nextUserID {
		s.nextUserID = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	stored := u
	s.users[u.ID] = &stored
	snapshot := stored
	return &snapshot
}

// AddDataset registers a dataset, assigning an ID when none is set, and
// returns a snapshot of the stored record.
func (s *MemoryStore) AddDataset(d Dataset) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		s.nextDatasetID++
		d.ID = s.nextDatasetID
	} else if d.ID > s.nextDatasetID {
		s.nextDatasetID = d.ID
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	stored := d
	stored.Tags = append([]string(nil), d.Tags...)
	s.datasets[d.ID] = &stored
	return cloneDataset(&stored)
}

func (s *MemoryStore) UserByID(ctx context.Context, id int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	snapshot := *u
	return &snapshot, nil
}

func (s *MemoryStore) DatasetByID(ctx context.Context, id int64) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[id]
	if !ok || !d.IsActive {
		return nil, ErrDatasetNotFound
	}
	return cloneDataset(d), nil
}

func (s *MemoryStore) FilterDatasets(ctx context.Context, f DatasetFilter) ([]*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.datasets))
	for id := range s.datasets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*Dataset
	for _, id := range ids {
		d := s.datasets[id]
		if !d.IsActive {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && d.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && d.Price > *f.MaxPrice {
			continue
		}
		if f.MinRating != nil && d.Rating < *f.MinRating {
			continue
		}
		if !f.Matches(d) {
			continue
		}
		out = append(out, cloneDataset(d))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) CompletedPurchases(ctx context.Context, buyerID int64) ([]*Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Purchase
	for _, p := range s.purchases {
		if p.BuyerID != buyerID || p.Status != PurchaseCompleted {
			continue
		}
		snapshot := *p
		if d, ok := s.datasets[p.DatasetID]; ok {
			snapshot.Dataset = cloneDataset(d)
		}
		out = append(out, &snapshot)
	}
	return out, nil
}

func (s *MemoryStore) CompletedPurchase(ctx context.Context, buyerID, datasetID int64) (*Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.completedPurchaseLocked(buyerID, datasetID); p != nil {
		snapshot := *p
		return &snapshot, nil
	}
	return nil, ErrPurchaseNotFound
}

func (s *MemoryStore) CommitPurchase(ctx context.Context, buyerID, datasetID int64) (*Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buyer, ok := s.users[buyerID]
	if !ok {
		return nil, ErrUserNotFound
	}
	ds, ok := s.datasets[datasetID]
	if !ok || !ds.IsActive {
		return nil, ErrDatasetNotFound
	}
	if existing := s.completedPurchaseLocked(buyerID, datasetID); existing != nil {
		snapshot := *existing
		return nil, &AlreadyPurchasedError{Existing: &snapshot}
	}
	if buyer.Balance < ds.Price {
		return nil, &InsufficientBalanceError{Required: ds.Price, Available: buyer.Balance}
	}

	s.nextPurchaseID++
	purchase := &Purchase{
		ID:            s.nextPurchaseID,
		BuyerID:       buyerID,
		DatasetID:     datasetID,
		Amount:        ds.Price,
		TransactionID: uuid.NewString(),
		Status:        PurchasePending,
		PurchasedAt:   time.Now().UTC(),
	}
	s.purchases = append(s.purchases, purchase)

	buyer.Balance -= ds.Price
	if seller, ok := s.users[ds.SellerID]; ok {
		seller.Balance += ds.Price
	}
	ds.DownloadCount++
	purchase.Status = PurchaseCompleted

	snapshot := *purchase
	return &snapshot, nil
}

func (s *MemoryStore) completedPurchaseLocked(buyerID, datasetID int64) *Purchase {
	for _, p := range s.purchases {
		if p.BuyerID == buyerID && p.DatasetID == datasetID && p.Status == PurchaseCompleted {
			return p
		}
	}
	return nil
}

func cloneDataset(d *Dataset) *Dataset {
	snapshot := *d
	snapshot.Tags = append([]string(nil), d.Tags...)
	snapshot.Seller = nil
	return &snapshot
}
