package store

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// PurchaseStatus tracks the purchase state machine. A purchase is created
// pending, flips to completed inside the commit transaction, and is never
// mutated again.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

type Dataset struct {
	bun.BaseModel `bun:"table:datasets,alias:d" json:"-"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description,notnull" json:"description"`
	Category      string    `bun:"category" json:"category,omitempty"`
	Tags          []string  `bun:"tags" json:"tags,omitempty"`
	Price         float64   `bun:"price,notnull" json:"price"`
	SizeMB        float64   `bun:"size_mb" json:"size_mb,omitempty"`
	RowCount      int64     `bun:"row_count" json:"row_count,omitempty"`
	ColumnCount   int64     `bun:"column_count" json:"column_count,omitempty"`
	Format        string    `bun:"format" json:"format,omitempty"`
	SellerID      int64     `bun:"seller_id,notnull" json:"seller_id"`
	IsActive      bool      `bun:"is_active" json:"is_active"`
	DownloadCount int64     `bun:"download_count" json:"download_count"`
	Rating        float64   `bun:"rating" json:"rating"`
	ReviewCount   int64     `bun:"review_count" json:"review_count"`
	CreatedAt     time.Time `bun:"created_at,nullzero" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Seller *User `bun:"rel:belongs-to,join:seller_id=id" json:"-"`
}

// RelevanceScore is the deterministic popularity score used whenever
// semantic ranking is unavailable: a weighted blend of rating and
// download volume.
func (d *Dataset) RelevanceScore() float64 {
	return d.Rating*0.6 + float64(d.DownloadCount)/100*0.4
}

// SearchText concatenates the textual fields used for embedding the
// dataset during semantic ranking.
func (d *Dataset) SearchText() string {
	parts := []string{d.Title, d.Description}
	if d.Category != "" {
		parts = append(parts, d.Category)
	}
	if len(d.Tags) > 0 {
		parts = append(parts, strings.Join(d.Tags, " "))
	}
	return strings.Join(parts, " ")
}

// HasAllTags reports whether every tag in the filter set is present on the
// dataset.
func (d *Dataset) HasAllTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range d.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Username  string    `bun:"username,notnull,unique" json:"username"`
	FullName  string    `bun:"full_name" json:"full_name,omitempty"`
	IsSeller  bool      `bun:"is_seller" json:"is_seller"`
	IsActive  bool      `bun:"is_active" json:"is_active"`
	Balance   float64   `bun:"balance" json:"balance"`
	CreatedAt time.Time `bun:"created_at,nullzero" json:"created_at"`
}

type Purchase struct {
	bun.BaseModel `bun:"table:purchases,alias:p" json:"-"`

	ID            int64          `bun:"id,pk,autoincrement" json:"id"`
	BuyerID       int64          `bun:"buyer_id,notnull" json:"buyer_id"`
	DatasetID     int64          `bun:"dataset_id,notnull" json:"dataset_id"`
	Amount        float64        `bun:"amount,notnull" json:"amount"`
	TransactionID string         `bun:"transaction_id,unique" json:"transaction_id"`
	Status        PurchaseStatus `bun:"status" json:"status"`
	PurchasedAt   time.Time      `bun:"purchased_at,nullzero" json:"purchased_at"`

	Buyer   *User    `bun:"rel:belongs-to,join:buyer_id=id" json:"-"`
	Dataset *Dataset `bun:"rel:belongs-to,join:dataset_id=id" json:"-"`
}
