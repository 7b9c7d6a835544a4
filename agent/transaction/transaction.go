// Package transaction implements the purchase capability. Unlike the
// other agents it carries no hybrid strategy: it is a pure state machine
// over the store, and every effect of a purchase is applied as one atomic
// unit by the store's commit.
package transaction

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/datagora/datagora/agent/contract"
	storex "github.com/datagora/datagora/store"
)

type Agent struct {
	store storex.Store
}

var _ contractx.Agent = (*Agent)(nil)

func New(store storex.Store) *Agent {
	return &Agent{store: store}
}

func (a *Agent) Description() string {
	return "Handles dataset purchases and payment processing"
}

func (a *Agent) Capabilities() []string {
	return []string{
		"purchase_processing",
		"balance_management",
		"duplicate_check",
		"transaction_tracking",
	}
}

func (a *Agent) Process(ctx context.Context, input contractx.Input, _ contractx.Context) contractx.Result {
	buyerID, hasBuyer := input.Int64("user_id")
	datasetID, hasDataset := input.Int64("dataset_id")
	if a.store == nil || !hasBuyer || buyerID == 0 || !hasDataset || datasetID == 0 {
		return contractx.FailWith("Missing required parameters", map[string]any{
			"status": string(storex.PurchaseFailed),
		})
	}

	purchase, err := a.store.CommitPurchase(ctx, buyerID, datasetID)
	if err != nil {
		return rejection(err)
	}

	log.Info().
		Str("transaction_id", purchase.TransactionID).
		Int64("dataset_id", datasetID).
		Int64("buyer_id", buyerID).
		Msg("purchase completed")

	return contractx.OK(map[string]any{
		"purchase":       purchase,
		"status":         string(storex.PurchaseCompleted),
		"transaction_id": purchase.TransactionID,
	})
}

// rejection maps store errors onto structured error results. Rejections
// mutate nothing.
func rejection(err error) contractx.Result {
	var dup *storex.AlreadyPurchasedError
	if errors.As(err, &dup) {
		return contractx.FailWith("Dataset already purchased", map[string]any{
			"status":   string(storex.PurchaseFailed),
			"purchase": dup.Existing,
		})
	}
	var short *storex.InsufficientBalanceError
	if errors.As(err, &short) {
		return contractx.FailWith("Insufficient balance", map[string]any{
			"status":    string(storex.PurchaseFailed),
			"required":  short.Required,
			"available": short.Available,
		})
	}
	switch {
	case errors.Is(err, storex.ErrUserNotFound):
		return contractx.FailWith("User not found", map[string]any{
			"status": string(storex.PurchaseFailed),
		})
	case errors.Is(err, storex.ErrDatasetNotFound):
		return contractx.FailWith("Dataset not found or inactive", map[string]any{
			"status": string(storex.PurchaseFailed),
		})
	default:
		return contractx.FailWith(err.Error(), map[string]any{
			"status": string(storex.PurchaseFailed),
		})
	}
}
