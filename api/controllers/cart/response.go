package cart

import (
	"time"

	cartsvc "github.com/tmrivera/cardhaven-backend/internal/cart"
)

type lineItemView struct {
	ProductID      string  `json:"product_id"`
	DisplayName    string  `json:"display_name"`
	ImageURL       string  `json:"image_url,omitempty"`
	ConditionGrade string  `json:"condition_grade"`
	FinishType     string  `json:"finish_type,omitempty"`
	Language       string  `json:"language,omitempty"`
	UnitPrice      string  `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	AvailableStock int     `json:"available_stock"`
	AddedAt        string  `json:"added_at"`
	LastModified   string  `json:"last_modified"`
	PriceChanged   bool    `json:"price_changed,omitempty"`
	OriginalPrice  *string `json:"original_price,omitempty"`
	CurrentPrice   *string `json:"current_price,omitempty"`
	OutOfStock     bool    `json:"out_of_stock,omitempty"`
	CurrentStock   *int    `json:"current_stock,omitempty"`
}

type statsView struct {
	Total             string `json:"total"`
	ItemCount         int    `json:"item_count"`
	UniqueItems       int    `json:"unique_items"`
	PriceChangedItems int    `json:"price_changed_items"`
	OutOfStockItems   int    `json:"out_of_stock_items"`
}

type cartView struct {
	CartID  string         `json:"cart_id"`
	Version uint64         `json:"version"`
	Items   []lineItemView `json:"items"`
	Stats   statsView      `json:"stats"`
}

type notificationView struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	CreatedAt string `json:"created_at"`
}

func newLineItemView(item cartsvc.LineItem) lineItemView {
	view := lineItemView{
		ProductID:      item.ProductID,
		DisplayName:    item.DisplayName,
		ImageURL:       item.ImageURL,
		ConditionGrade: string(item.ConditionGrade),
		FinishType:     string(item.FinishType),
		Language:       item.Language,
		UnitPrice:      item.UnitPrice.StringFixed(2),
		Quantity:       item.Quantity,
		AvailableStock: item.AvailableStock,
		AddedAt:        item.AddedAt.Format(time.RFC3339),
		LastModified:   item.LastModified.Format(time.RFC3339),
		PriceChanged:   item.PriceChanged,
		OutOfStock:     item.OutOfStock,
		CurrentStock:   item.CurrentStock,
	}
	if item.OriginalPrice != nil {
		original := item.OriginalPrice.StringFixed(2)
		view.OriginalPrice = &original
	}
	if item.CurrentPrice != nil {
		current := item.CurrentPrice.StringFixed(2)
		view.CurrentPrice = &current
	}
	return view
}

func newStatsView(stats cartsvc.Stats) statsView {
	return statsView{
		Total:             stats.Total.StringFixed(2),
		ItemCount:         stats.ItemCount,
		UniqueItems:       stats.UniqueItems,
		PriceChangedItems: stats.PriceChangedItems,
		OutOfStockItems:   stats.OutOfStockItems,
	}
}

func newCartView(mgr *cartsvc.Manager) cartView {
	items := mgr.Items()
	views := make([]lineItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newLineItemView(item))
	}
	return cartView{
		CartID:  mgr.CartID(),
		Version: mgr.Version(),
		Items:   views,
		Stats:   newStatsView(mgr.Stats()),
	}
}

func newNotificationViews(notes []cartsvc.Notification) []notificationView {
	views := make([]notificationView, 0, len(notes))
	for _, note := range notes {
		views = append(views, notificationView{
			ID:        note.ID.String(),
			Message:   note.Message,
			Severity:  string(note.Severity),
			CreatedAt: note.CreatedAt.Format(time.RFC3339),
		})
	}
	return views
}
