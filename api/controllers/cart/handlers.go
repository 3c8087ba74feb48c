package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tmrivera/cardhaven-backend/api/responses"
	"github.com/tmrivera/cardhaven-backend/api/validators"
	cartsvc "github.com/tmrivera/cardhaven-backend/internal/cart"
	"github.com/tmrivera/cardhaven-backend/pkg/enums"
	pkgerrors "github.com/tmrivera/cardhaven-backend/pkg/errors"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
)

const maxCartIDLength = 128

// ManagerProvider resolves the cart manager for a cart ID.
type ManagerProvider interface {
	Manager(ctx context.Context, cartID string) (*cartsvc.Manager, error)
}

// AddItem inserts or increments a cart line.
func AddItem(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toAddItemInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.AddItem(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(mgr))
	}
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func UpdateQuantity(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, condition, err := lineKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.UpdateQuantity(r.Context(), productID, condition, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(mgr))
	}
}

// RemoveItem deletes a cart line. Removing an absent line succeeds quietly.
func RemoveItem(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, condition, err := lineKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.Remove(r.Context(), productID, condition); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(mgr))
	}
}

// ClearCart empties the cart.
func ClearCart(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(mgr))
	}
}

// CheckoutComplete clears the cart after a completed checkout.
func CheckoutComplete(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := mgr.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "completed"})
	}
}

// GetCart returns the full cart view.
func GetCart(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(mgr))
	}
}

// GetStats returns the derived cart aggregates.
func GetStats(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStatsView(mgr.Stats()))
	}
}

// GetNotifications returns the cart's not-yet-expired notifications.
func GetNotifications(carts ManagerProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mgr, err := resolveManager(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newNotificationViews(mgr.Notifications()))
	}
}

func resolveManager(r *http.Request, carts ManagerProvider) (*cartsvc.Manager, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable")
	}
	cartID := validators.SanitizeString(chi.URLParam(r, "cartID"), maxCartIDLength)
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	mgr, err := carts.Manager(r.Context(), cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve cart")
	}
	return mgr, nil
}

func lineKeyFromPath(r *http.Request) (string, enums.ConditionGrade, error) {
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	condition, err := enums.ParseConditionGrade(chi.URLParam(r, "condition"))
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition grade")
	}
	return productID, condition, nil
}

func toAddItemInput(payload AddItemRequest) (cartsvc.AddItemInput, error) {
	condition, err := enums.ParseConditionGrade(payload.ConditionGrade)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition grade")
	}

	finish := enums.FinishType("")
	if payload.FinishType != "" {
		finish, err = enums.ParseFinishType(payload.FinishType)
		if err != nil {
			return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid finish type")
		}
	}

	price, err := decimal.NewFromString(payload.UnitPrice)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
	}

	return cartsvc.AddItemInput{
		ProductID:      payload.ProductID,
		DisplayName:    payload.DisplayName,
		ImageURL:       payload.ImageURL,
		ConditionGrade: condition,
		FinishType:     finish,
		Language:       payload.Language,
		UnitPrice:      price,
		AvailableStock: payload.AvailableStock,
	}, nil
}
