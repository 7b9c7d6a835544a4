package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

// newSQLiteStore opens an in-memory SQLite store with the schema created.
// A single connection keeps the in-memory database alive and shared.
func newSQLiteStore(t *testing.T) *BunStore {
	t.Helper()
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	s := NewBunStore(db)
	if err := s.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return s
}

func seedSQLite(t *testing.T, s *BunStore) {
	t.Helper()
	ctx := context.Background()

	users := []*User{
		{Username: "vendor", Email: "vendor@example.com", Balance: 0, CreatedAt: time.Now().UTC()},
		{Username: "shopper", Email: "shopper@example.com", Balance: 500, CreatedAt: time.Now().UTC()},
	}
	if _, err := s.DB().NewInsert().Model(&users).Exec(ctx); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	datasets := []*Dataset{
		{
			Title: "City Air Quality", Category: "Environment", Price: 40, Rating: 4.6,
			Tags: []string{"air", "hourly"}, SellerID: users[0].ID, IsActive: true,
			CreatedAt: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title: "River Gauge Levels", Category: "Environment", Price: 90, Rating: 3.9,
			Tags: []string{"water"}, SellerID: users[0].ID, IsActive: true,
			CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title: "Parking Occupancy", Category: "Transport", Price: 25, Rating: 4.1,
			Tags: []string{"hourly", "urban"}, SellerID: users[0].ID, IsActive: true,
			CreatedAt: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title: "Legacy Noise Map", Category: "Environment", Price: 10, Rating: 2.0,
			SellerID: users[0].ID, IsActive: false, CreatedAt: time.Now().UTC(),
		},
	}
	if _, err := s.DB().NewInsert().Model(&datasets).Exec(ctx); err != nil {
		t.Fatalf("seed datasets: %v", err)
	}
}

func TestBunUserAndDatasetLookups(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	seedSQLite(t, s)
	ctx := context.Background()

	buyer, err := s.UserByID(ctx, 2)
	if err != nil {
		t.Fatalf("user lookup: %v", err)
	}
	if buyer.Username != "shopper" || buyer.Balance != 500 {
		t.Fatalf("unexpected user: %+v", buyer)
	}
	if _, err := s.UserByID(ctx, 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: %v", err)
	}

	ds, err := s.DatasetByID(ctx, 1)
	if err != nil {
		t.Fatalf("dataset lookup: %v", err)
	}
	if ds.Title != "City Air Quality" || len(ds.Tags) != 2 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	if _, err := s.DatasetByID(ctx, 4); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("inactive dataset: %v", err)
	}
}

func TestBunFilterDatasets(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	seedSQLite(t, s)
	ctx := context.Background()

	out, err := s.FilterDatasets(ctx, DatasetFilter{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("active datasets = %d, want 3", len(out))
	}

	out, _ = s.FilterDatasets(ctx, DatasetFilter{Category: "Environment", MaxPrice: f64(50)})
	if len(out) != 1 || out[0].Title != "City Air Quality" {
		t.Fatalf("category+price filter: %+v", out)
	}

	out, _ = s.FilterDatasets(ctx, DatasetFilter{Tags: []string{"hourly"}})
	if len(out) != 2 {
		t.Fatalf("tag filter = %d results, want 2", len(out))
	}

	out, _ = s.FilterDatasets(ctx, DatasetFilter{ExcludeIDs: []int64{1, 2}})
	if len(out) != 1 || out[0].Title != "Parking Occupancy" {
		t.Fatalf("exclusion filter: %+v", out)
	}

	out, _ = s.FilterDatasets(ctx, DatasetFilter{MinRating: f64(4.0), Limit: 1})
	if len(out) != 1 || out[0].Title != "City Air Quality" {
		t.Fatalf("rating+limit filter: %+v", out)
	}
}

func TestBunCommitPurchase(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	seedSQLite(t, s)
	ctx := context.Background()

	p, err := s.CommitPurchase(ctx, 2, 1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if p.Status != PurchaseCompleted || p.Amount != 40 || p.TransactionID == "" {
		t.Fatalf("unexpected purchase: %+v", p)
	}

	buyer, _ := s.UserByID(ctx, 2)
	seller, _ := s.UserByID(ctx, 1)
	if buyer.Balance != 460 || seller.Balance != 40 {
		t.Fatalf("balances = %v / %v", buyer.Balance, seller.Balance)
	}
	ds, _ := s.DatasetByID(ctx, 1)
	if ds.DownloadCount != 1 {
		t.Fatalf("download count = %d, want 1", ds.DownloadCount)
	}

	got, err := s.CompletedPurchase(ctx, 2, 1)
	if err != nil {
		t.Fatalf("completed purchase: %v", err)
	}
	if got.TransactionID != p.TransactionID {
		t.Fatalf("lookup mismatch: %q vs %q", got.TransactionID, p.TransactionID)
	}
}

func TestBunCommitPurchaseRejections(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	seedSQLite(t, s)
	ctx := context.Background()

	if _, err := s.CommitPurchase(ctx, 99, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown buyer: %v", err)
	}
	if _, err := s.CommitPurchase(ctx, 2, 4); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("inactive dataset: %v", err)
	}

	first, err := s.CommitPurchase(ctx, 2, 1)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	_, err = s.CommitPurchase(ctx, 2, 1)
	var dup *AlreadyPurchasedError
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if dup.Existing.TransactionID != first.TransactionID {
		t.Fatalf("attached purchase mismatch: %q", dup.Existing.TransactionID)
	}

	// A rejected transaction rolls everything back.
	_, err = s.CommitPurchase(ctx, 2, 2)
	if err == nil {
		t.Fatal("expected rejection")
	}
	buyer, _ := s.UserByID(ctx, 2)
	if buyer.Balance != 460 {
		t.Fatalf("balance after rejections: %v", buyer.Balance)
	}

	purchases, _ := s.CompletedPurchases(ctx, 2)
	if len(purchases) != 1 {
		t.Fatalf("completed purchases = %d, want 1", len(purchases))
	}
}

func TestBunInsufficientBalanceRollsBack(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	seedSQLite(t, s)
	ctx := context.Background()

	broke := &User{Username: "broke", Email: "broke@example.com", Balance: 5, CreatedAt: time.Now().UTC()}
	if _, err := s.DB().NewInsert().Model(broke).Exec(ctx); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, err := s.CommitPurchase(ctx, broke.ID, 1)
	var short *InsufficientBalanceError
	if !errors.As(err, &short) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if short.Required != 40 || short.Available != 5 {
		t.Fatalf("unexpected amounts: %+v", short)
	}

	ds, _ := s.DatasetByID(ctx, 1)
	if ds.DownloadCount != 0 {
		t.Fatalf("download count mutated on rejection: %d", ds.DownloadCount)
	}
	if _, err := s.CompletedPurchase(ctx, broke.ID, 1); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("pending purchase survived rollback: %v", err)
	}
}

func TestBunCompletedPurchasesLoadsRelation(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	seedSQLite(t, s)
	ctx := context.Background()

	if _, err := s.CommitPurchase(ctx, 2, 3); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := s.CommitPurchase(ctx, 2, 1); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	out, err := s.CompletedPurchases(ctx, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("history = %d entries, want 2", len(out))
	}
	if out[0].Dataset == nil || out[0].Dataset.Title != "Parking Occupancy" {
		t.Fatalf("relation not loaded: %+v", out[0])
	}
	if out[1].Dataset == nil || out[1].Dataset.Title != "City Air Quality" {
		t.Fatalf("relation not loaded: %+v", out[1])
	}
}
