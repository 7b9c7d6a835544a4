package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDatasetNotFound  = errors.New("dataset not found or inactive")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// AlreadyPurchasedError rejects a duplicate purchase and carries the
// existing completed record so the caller can reconcile.
type AlreadyPurchasedError struct {
	Existing *Purchase
}

func (e *AlreadyPurchasedError) Error() string {
	return "dataset already purchased"
}

// InsufficientBalanceError rejects a purchase the buyer cannot afford and
// reports both sides of the comparison.
type InsufficientBalanceError struct {
	Required  float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, available %.2f", e.Required, e.Available)
}

// DatasetFilter narrows FilterDatasets. Implementations always restrict to
// active datasets on top of these.
type DatasetFilter struct {
	Category   string
	Tags       []string // every tag must be present on the dataset
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
	ExcludeIDs []int64
	Limit      int // 0 means unbounded
}

// Matches applies the non-SQL parts of the filter (tag containment and
// explicit exclusions) to a dataset.
func (f DatasetFilter) Matches(d *Dataset) bool {
	for _, id := range f.ExcludeIDs {
		if d.ID == id {
			return false
		}
	}
	return d.HasAllTags(f.Tags)
}

// Store is the structured-store contract the agents run against. Read
// methods never mutate; CommitPurchase is the single read-modify-write
// unit and must apply all of its effects atomically, including the
// duplicate and balance checks.
type Store interface {
	UserByID(ctx context.Context, id int64) (*User, error)
	// DatasetByID resolves an active dataset; inactive datasets behave as
	// absent.
	DatasetByID(ctx context.Context, id int64) (*Dataset, error)
	FilterDatasets(ctx context.Context, f DatasetFilter) ([]*Dataset, error)
	// CompletedPurchases returns the buyer's completed purchases with the
	// Dataset relation resolved, oldest first.
	CompletedPurchases(ctx context.Context, buyerID int64) ([]*Purchase, error)
	CompletedPurchase(ctx context.Context, buyerID, datasetID int64) (*Purchase, error)
	// CommitPurchase validates and applies a purchase as one atomic unit:
	// duplicate check, balance check, purchase row, buyer debit, seller
	// credit, download counter, completion. Failure leaves no partial
	// effect. Returns AlreadyPurchasedError, InsufficientBalanceError,
	// ErrUserNotFound, or ErrDatasetNotFound on rejection.
	CommitPurchase(ctx context.Context, buyerID, datasetID int64) (*Purchase, error)
}
