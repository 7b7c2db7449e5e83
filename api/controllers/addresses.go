package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/addresses"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type addressCreateRequest struct {
	AddressType          string `json:"address_type" validate:"omitempty,oneof=shipping billing both"`
	FirstName            string `json:"first_name" validate:"required,max=100"`
	LastName             string `json:"last_name" validate:"required,max=100"`
	Company              string `json:"company" validate:"max=100"`
	AddressLine1         string `json:"address_line1" validate:"required,max=255"`
	AddressLine2         string `json:"address_line2" validate:"max=255"`
	City                 string `json:"city" validate:"required,max=100"`
	State                string `json:"state" validate:"max=100"`
	PostalCode           string `json:"postal_code" validate:"max=20"`
	Country              string `json:"country" validate:"max=100"`
	Phone                string `json:"phone" validate:"required,max=20"`
	IsDefault            bool   `json:"is_default"`
	DeliveryInstructions string `json:"delivery_instructions" validate:"max=1000"`
}

type addressUpdateRequest struct {
	AddressType          *string `json:"address_type" validate:"omitempty,oneof=shipping billing both"`
	FirstName            *string `json:"first_name" validate:"omitempty,max=100"`
	LastName             *string `json:"last_name" validate:"omitempty,max=100"`
	Company              *string `json:"company" validate:"omitempty,max=100"`
	AddressLine1         *string `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2         *string `json:"address_line2" validate:"omitempty,max=255"`
	City                 *string `json:"city" validate:"omitempty,max=100"`
	State                *string `json:"state" validate:"omitempty,max=100"`
	PostalCode           *string `json:"postal_code" validate:"omitempty,max=20"`
	Country              *string `json:"country" validate:"omitempty,max=100"`
	Phone                *string `json:"phone" validate:"omitempty,max=20"`
	IsDefault            *bool   `json:"is_default"`
	DeliveryInstructions *string `json:"delivery_instructions" validate:"omitempty,max=1000"`
}

func AddressList(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("addresses"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AddressCreate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("addresses"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressType := enums.AddressTypeShipping
		if body.AddressType != "" {
			addressType = enums.AddressType(body.AddressType)
		}
		created, err := svc.Create(r.Context(), userID, addresses.CreateInput{
			AddressType:          addressType,
			FirstName:            body.FirstName,
			LastName:             body.LastName,
			Company:              body.Company,
			AddressLine1:         body.AddressLine1,
			AddressLine2:         body.AddressLine2,
			City:                 body.City,
			State:                body.State,
			PostalCode:           body.PostalCode,
			Country:              body.Country,
			Phone:                body.Phone,
			IsDefault:            body.IsDefault,
			DeliveryInstructions: body.DeliveryInstructions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AddressUpdate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("addresses"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := addresses.UpdateInput{
			FirstName:            body.FirstName,
			LastName:             body.LastName,
			Company:              body.Company,
			AddressLine1:         body.AddressLine1,
			AddressLine2:         body.AddressLine2,
			City:                 body.City,
			State:                body.State,
			PostalCode:           body.PostalCode,
			Country:              body.Country,
			Phone:                body.Phone,
			IsDefault:            body.IsDefault,
			DeliveryInstructions: body.DeliveryInstructions,
		}
		if body.AddressType != nil {
			parsed, err := enums.ParseAddressType(*body.AddressType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address_type"))
				return
			}
			input.AddressType = &parsed
		}

		updated, err := svc.Update(r.Context(), userID, addressID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AddressDelete(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("addresses"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AddressGet(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("addresses"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		address, err := svc.Get(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}
