package cart

// AddItemRequest is the body for adding a card to the cart.
type AddItemRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	DisplayName    string `json:"display_name" validate:"required"`
	ImageURL       string `json:"image_url" validate:"omitempty,url"`
	ConditionGrade string `json:"condition_grade" validate:"required"`
	FinishType     string `json:"finish_type" validate:"omitempty"`
	Language       string `json:"language" validate:"omitempty,max=32"`
	UnitPrice      string `json:"unit_price" validate:"required"`
	AvailableStock int    `json:"available_stock" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the body for setting a line's quantity directly.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}
