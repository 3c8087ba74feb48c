package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tmrivera/cardhaven-backend/pkg/enums"
)

// LineKey is the composite identity of a cart line. Two lines with the same
// product but different condition grades are distinct.
type LineKey struct {
	ProductID string               `json:"product_id"`
	Condition enums.ConditionGrade `json:"condition"`
}

// LineItem is one (product, condition) entry in the cart with its own quantity
// and revalidation flags.
type LineItem struct {
	ProductID      string               `json:"product_id"`
	DisplayName    string               `json:"display_name"`
	ImageURL       string               `json:"image_url,omitempty"`
	ConditionGrade enums.ConditionGrade `json:"condition_grade"`
	FinishType     enums.FinishType     `json:"finish_type,omitempty"`
	Language       string               `json:"language,omitempty"`
	UnitPrice      decimal.Decimal      `json:"unit_price"`
	Quantity       int                  `json:"quantity"`
	AvailableStock int                  `json:"available_stock"`
	AddedAt        time.Time            `json:"added_at"`
	LastModified   time.Time            `json:"last_modified"`
	Version        uint64               `json:"version"`

	PriceChanged  bool             `json:"price_changed,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	OutOfStock    bool             `json:"out_of_stock,omitempty"`
	CurrentStock  *int             `json:"current_stock,omitempty"`
}

// Key returns the composite identity of the line.
func (l LineItem) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Condition: l.ConditionGrade}
}

// EffectivePrice is the price the storefront should charge right now: the live
// price when revalidation flagged a change, the add-time price otherwise.
func (l LineItem) EffectivePrice() decimal.Decimal {
	if l.PriceChanged && l.CurrentPrice != nil {
		return *l.CurrentPrice
	}
	return l.UnitPrice
}

// Stats is the derived aggregate view of a cart. Computing it has no side effects.
type Stats struct {
	Total             decimal.Decimal `json:"total"`
	ItemCount         int             `json:"item_count"`
	UniqueItems       int             `json:"unique_items"`
	PriceChangedItems int             `json:"price_changed_items"`
	OutOfStockItems   int             `json:"out_of_stock_items"`
}

// Snapshot is the persisted form of a cart: the full line list tagged with the
// write time and the cart's mutation version.
type Snapshot struct {
	Items     []LineItem `json:"items"`
	Timestamp time.Time  `json:"timestamp"`
	Version   uint64     `json:"version"`
}
