package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

type customerOrders interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error)
	Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*orders.OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[orders.OrderDTO], error)
}

type placeOrderRequest struct {
	AddressID      *uuid.UUID `json:"address_id"`
	FirstName      string     `json:"first_name" validate:"max=100"`
	LastName       string     `json:"last_name" validate:"max=100"`
	Email          string     `json:"email" validate:"required,email,max=254"`
	Phone          string     `json:"phone" validate:"max=20"`
	AddressLine1   string     `json:"address_line1" validate:"max=255"`
	AddressLine2   string     `json:"address_line2" validate:"max=255"`
	City           string     `json:"city" validate:"max=100"`
	State          string     `json:"state" validate:"max=100"`
	PostalCode     string     `json:"postal_code" validate:"max=20"`
	Country        string     `json:"country" validate:"max=100"`
	PaymentMethod  string     `json:"payment_method" validate:"required"`
	ShippingMethod string     `json:"shipping_method" validate:"max=100"`
	Notes          string     `json:"notes" validate:"max=2000"`
}

// OrderPlace converts the caller's cart into an order. Replays are handled by
// the idempotency middleware in front of it. Charges are priced server-side, so
// bodies carrying tax, shipping_cost or discount fail strict decoding.
func OrderPlace(svc customerOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("orders"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(body.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), orders.PlaceOrderInput{
			UserID: userID,
			Customer: orders.CustomerInfo{
				FirstName: body.FirstName,
				LastName:  body.LastName,
				Email:     body.Email,
				Phone:     body.Phone,
			},
			Shipping: orders.ShippingInfo{
				AddressLine1: body.AddressLine1,
				AddressLine2: body.AddressLine2,
				City:         body.City,
				State:        body.State,
				PostalCode:   body.PostalCode,
				Country:      body.Country,
			},
			AddressID:      body.AddressID,
			PaymentMethod:  method,
			ShippingMethod: body.ShippingMethod,
			Notes:          body.Notes,
			IPAddress:      clientIP(r),
			UserAgent:      userAgent(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderNumber(r.Context(), order.OrderNumber), "orders.placed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderList(svc customerOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("orders"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderGet looks an order up by its INV number within the caller's orders.
func OrderGet(svc customerOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("orders"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), userID, chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
