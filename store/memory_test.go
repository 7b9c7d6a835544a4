package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func seedMemory(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	s.AddUser(User{Username: "vendor", Email: "vendor@example.com"})
	s.AddUser(User{Username: "shopper", Email: "shopper@example.com", Balance: 500})
	s.AddDataset(Dataset{
		Title: "City Air Quality", Category: "Environment", Price: 40, Rating: 4.6,
		Tags: []string{"air", "hourly"}, SellerID: 1, IsActive: true,
		CreatedAt: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	s.AddDataset(Dataset{
		Title: "River Gauge Levels", Category: "Environment", Price: 90, Rating: 3.9,
		Tags: []string{"water"}, SellerID: 1, IsActive: true,
		CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	s.AddDataset(Dataset{
		Title: "Parking Occupancy", Category: "Transport", Price: 25, Rating: 4.1,
		Tags: []string{"hourly", "urban"}, SellerID: 1, IsActive: true,
		CreatedAt: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	s.AddDataset(Dataset{
		Title: "Legacy Noise Map", Category: "Environment", Price: 10, Rating: 2.0,
		SellerID: 1, IsActive: false,
	})
	return s
}

func TestFilterDatasetsSkipsInactive(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)
	out, err := s.FilterDatasets(context.Background(), DatasetFilter{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("datasets = %d, want 3", len(out))
	}
	for _, d := range out {
		if !d.IsActive {
			t.Fatalf("inactive dataset returned: %q", d.Title)
		}
	}
}

func TestFilterDatasetsByCategoryPriceRatingTags(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)

	out, err := s.FilterDatasets(context.Background(), DatasetFilter{Category: "Environment", MaxPrice: f64(50)})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 1 || out[0].Title != "City Air Quality" {
		t.Fatalf("unexpected result: %+v", out)
	}

	out, _ = s.FilterDatasets(context.Background(), DatasetFilter{MinRating: f64(4.0)})
	if len(out) != 2 {
		t.Fatalf("min rating filter = %d results, want 2", len(out))
	}

	out, _ = s.FilterDatasets(context.Background(), DatasetFilter{Tags: []string{"hourly", "urban"}})
	if len(out) != 1 || out[0].Title != "Parking Occupancy" {
		t.Fatalf("tag filter: %+v", out)
	}

	out, _ = s.FilterDatasets(context.Background(), DatasetFilter{ExcludeIDs: []int64{1, 3}})
	if len(out) != 1 || out[0].Title != "River Gauge Levels" {
		t.Fatalf("exclusion filter: %+v", out)
	}

	out, _ = s.FilterDatasets(context.Background(), DatasetFilter{Limit: 2})
	if len(out) != 2 {
		t.Fatalf("limit not applied: %d", len(out))
	}
}

func TestFilterDatasetsReturnsSnapshots(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)
	out, _ := s.FilterDatasets(context.Background(), DatasetFilter{Category: "Transport"})
	out[0].Tags[0] = "mutated"
	out[0].Price = 0

	again, _ := s.FilterDatasets(context.Background(), DatasetFilter{Category: "Transport"})
	if again[0].Tags[0] != "hourly" || again[0].Price != 25 {
		t.Fatalf("stored dataset mutated through snapshot: %+v", again[0])
	}
}

func TestDatasetByIDInactive(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)
	if _, err := s.DatasetByID(context.Background(), 4); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("inactive dataset lookup: %v", err)
	}
	if _, err := s.DatasetByID(context.Background(), 99); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("missing dataset lookup: %v", err)
	}
}

func TestCommitPurchaseMovesMoneyAtomically(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)
	p, err := s.CommitPurchase(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if p.Status != PurchaseCompleted || p.Amount != 40 || p.TransactionID == "" {
		t.Fatalf("unexpected purchase: %+v", p)
	}

	buyer, _ := s.UserByID(context.Background(), 2)
	seller, _ := s.UserByID(context.Background(), 1)
	if buyer.Balance != 460 || seller.Balance != 40 {
		t.Fatalf("balances = %v / %v", buyer.Balance, seller.Balance)
	}
	ds, _ := s.DatasetByID(context.Background(), 1)
	if ds.DownloadCount != 1 {
		t.Fatalf("download count = %d, want 1", ds.DownloadCount)
	}

	got, err := s.CompletedPurchase(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("completed purchase lookup: %v", err)
	}
	if got.TransactionID != p.TransactionID {
		t.Fatalf("lookup returned %q, want %q", got.TransactionID, p.TransactionID)
	}
}

func TestCommitPurchaseRejections(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)

	if _, err := s.CommitPurchase(context.Background(), 99, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown buyer: %v", err)
	}
	if _, err := s.CommitPurchase(context.Background(), 2, 4); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("inactive dataset: %v", err)
	}

	poor := s.AddUser(User{Username: "broke", Balance: 5})
	_, err := s.CommitPurchase(context.Background(), poor.ID, 1)
	var short *InsufficientBalanceError
	if !errors.As(err, &short) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if short.Required != 40 || short.Available != 5 {
		t.Fatalf("unexpected amounts: %+v", short)
	}

	first, err := s.CommitPurchase(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	_, err = s.CommitPurchase(context.Background(), 2, 1)
	var dup *AlreadyPurchasedError
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if dup.Existing.TransactionID != first.TransactionID {
		t.Fatalf("attached purchase mismatch: %q", dup.Existing.TransactionID)
	}

	// Rejections charge nothing past the first success.
	buyer, _ := s.UserByID(context.Background(), 2)
	if buyer.Balance != 460 {
		t.Fatalf("balance after duplicate attempt: %v", buyer.Balance)
	}
}

func TestCommitPurchaseConcurrentDuplicates(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CommitPurchase(context.Background(), 2, 3)
		}(i)
	}
	wg.Wait()

	var completed, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			completed++
		default:
			var dup *AlreadyPurchasedError
			if !errors.As(err, &dup) {
				t.Fatalf("unexpected error: %v", err)
			}
			duplicates++
		}
	}
	if completed != 1 || duplicates != attempts-1 {
		t.Fatalf("completed=%d duplicates=%d", completed, duplicates)
	}

	buyer, _ := s.UserByID(context.Background(), 2)
	if buyer.Balance != 475 {
		t.Fatalf("buyer charged %v total, want one charge of 25", 500-buyer.Balance)
	}
	ds, _ := s.DatasetByID(context.Background(), 3)
	if ds.DownloadCount != 1 {
		t.Fatalf("download count = %d, want 1", ds.DownloadCount)
	}
}

func TestCompletedPurchasesLoadsDatasets(t *testing.T) {
	t.Parallel()

	s := seedMemory(t)
	if _, err := s.CommitPurchase(context.Background(), 2, 1); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := s.CommitPurchase(context.Background(), 2, 3); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	out, err := s.CompletedPurchases(context.Background(), 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("history = %d entries, want 2", len(out))
	}
	for _, p := range out {
		if p.Dataset == nil {
			t.Fatalf("purchase %d missing dataset", p.ID)
		}
	}
	if out[0].Dataset.Title != "City Air Quality" || out[1].Dataset.Title != "Parking Occupancy" {
		t.Fatalf("unexpected history order: %q, %q", out[0].Dataset.Title, out[1].Dataset.Title)
	}

	empty, err := s.CompletedPurchases(context.Background(), 1)
	if err != nil || len(empty) != 0 {
		t.Fatalf("seller history: %v, %v", empty, err)
	}
}

func TestRelevanceScore(t *testing.T) {
	t.Parallel()

	d := Dataset{Rating: 4.0, DownloadCount: 200}
	if got := d.RelevanceScore(); got != 4.0*0.6+2.0*0.4 {
		t.Fatalf("relevance = %v", got)
	}
}
