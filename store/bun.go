package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// BunStore implements Store over a bun-managed SQL database. Production
// runs it against Postgres; tests run it against in-memory SQLite.
type BunStore struct {
	db *bun.DB
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// DB exposes the underlying handle for schema management and seeding.
func (s *BunStore) DB() *bun.DB {
	return s.db
}

// CreateSchema creates the marketplace tables when they do not exist.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	for _, model := range []any{(*User)(nil), (*Dataset)(nil), (*Purchase)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *BunStore) UserByID(ctx context.Context, id int64) (*User, error) {
	user := new(User)
	err := s.db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *BunStore) DatasetByID(ctx context.Context, id int64) (*Dataset, error) {
	ds := new(Dataset)
	err := s.db.NewSelect().Model(ds).
		Where("d.id = ?", id).
		Where("d.is_active = ?", true).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *BunStore) FilterDatasets(ctx context.Context, f DatasetFilter) ([]*Dataset, error) {
	var datasets []*Dataset
	q := s.db.NewSelect().Model(&datasets).Where("d.is_active = ?", true)
	if f.Category != "" {
		q = q.Where("d.category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("d.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("d.price <= ?", *f.MaxPrice)
	}
	if f.MinRating != nil {
		q = q.Where("d.rating >= ?", *f.MinRating)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("d.id NOT IN (?)", bun.In(f.ExcludeIDs))
	}
	if err := q.Order("d.id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	// Tag containment is checked here rather than in SQL: tags live in a
	// JSON column and containment syntax differs per dialect.
	out := datasets[:0]
	for _, d := range datasets {
		if !d.HasAllTags(f.Tags) {
			continue
		}
		out = append(out, d)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *BunStore) CompletedPurchases(ctx context.Context, buyerID int64) ([]*Purchase, error) {
	var purchases []*Purchase
	err := s.db.NewSelect().Model(&purchases).
		Relation("Dataset").
		Where("p.buyer_id = ?", buyerID).
		Where("p.status = ?", PurchaseCompleted).
		Order("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *BunStore) CompletedPurchase(ctx context.Context, buyerID, datasetID int64) (*Purchase, error) {
	purchase := new(Purchase)
	err := s.db.NewSelect().Model(purchase).
		Where("p.buyer_id = ?", buyerID).
		Where("p.dataset_id = ?", datasetID).
		Where("p.status = ?", PurchaseCompleted).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *BunStore) CommitPurchase(ctx context.Context, buyerID, datasetID int64) (*Purchase, error) {
	var out *Purchase
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Postgres needs the rows pinned so the duplicate and balance
		// checks stay atomic with the mutation; SQLite serializes writers
		// on its own.
		lock := s.db.Dialect().Name() == dialect.PG

		buyer := new(User)
		q := tx.NewSelect().Model(buyer).Where("u.id = ?", buyerID)
		if lock {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}

		ds := new(Dataset)
		q = tx.NewSelect().Model(ds).
			Where("d.id = ?", datasetID).
			Where("d.is_active = ?", true)
		if lock {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); errors.Is(err, sql.ErrNoRows) {
			return ErrDatasetNotFound
		} else if err != nil {
			return err
		}

		existing := new(Purchase)
		err := tx.NewSelect().Model(existing).
			Where("p.buyer_id = ?", buyerID).
			Where("p.dataset_id = ?", datasetID).
			Where("p.status = ?", PurchaseCompleted).
			Limit(1).
			Scan(ctx)
		if err == nil {
			return &AlreadyPurchasedError{Existing: existing}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if buyer.Balance < ds.Price {
			return &InsufficientBalanceError{Required: ds.Price, Available: buyer.Balance}
		}

		purchase := &Purchase{
			BuyerID:       buyerID,
			DatasetID:     datasetID,
			Amount:        ds.Price,
			TransactionID: uuid.NewString(),
			Status:        PurchasePending,
			PurchasedAt:   time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(purchase).Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().Model((*User)(nil)).
			Set("balance = balance - ?", ds.Price).
			Where("id = ?", buyerID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*User)(nil)).
			Set("balance = balance + ?", ds.Price).
			Where("id = ?", ds.SellerID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*Dataset)(nil)).
			Set("download_count = download_count + 1").
			Where("id = ?", datasetID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model((*Purchase)(nil)).
			Set("status = ?", PurchaseCompleted).
			Where("id = ?", purchase.ID).
			Exec(ctx); err != nil {
			return err
		}
		purchase.Status = PurchaseCompleted
		out = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int64("buyer_id", buyerID).
		Int64("dataset_id", datasetID).
		Str("transaction_id", out.TransactionID).
		Msg("purchase committed")
	return out, nil
}
