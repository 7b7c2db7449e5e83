// Package addresses manages a user's address book.
package addresses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes owner-scoped address book operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo           Repository
	tx             txRunner
	defaultCountry string
}

func NewService(repo Repository, tx txRunner, defaultCountry string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("addresses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if strings.TrimSpace(defaultCountry) == "" {
		defaultCountry = "Zambia"
	}
	return &service{repo: repo, tx: tx, defaultCountry: defaultCountry}, nil
}

// CreateInput carries a new address book entry.
type CreateInput struct {
	AddressType          enums.AddressType
	FirstName            string
	LastName             string
	Company              string
	AddressLine1         string
	AddressLine2         string
	City                 string
	State                string
	PostalCode           string
	Country              string
	Phone                string
	IsDefault            bool
	DeliveryInstructions string
}

// UpdateInput patches an address; nil fields are left alone.
type UpdateInput struct {
	AddressType          *enums.AddressType
	FirstName            *string
	LastName             *string
	Company              *string
	AddressLine1         *string
	AddressLine2         *string
	City                 *string
	State                *string
	PostalCode           *string
	Country              *string
	Phone                *string
	IsDefault            *bool
	DeliveryInstructions *string
}

// AddressDTO is the API shape of an address.
type AddressDTO struct {
	ID                   uuid.UUID         `json:"id"`
	AddressType          enums.AddressType `json:"address_type"`
	FirstName            string            `json:"first_name"`
	LastName             string            `json:"last_name"`
	FullName             string            `json:"full_name"`
	Company              string            `json:"company,omitempty"`
	AddressLine1         string            `json:"address_line1"`
	AddressLine2         string            `json:"address_line2,omitempty"`
	City                 string            `json:"city"`
	State                string            `json:"state"`
	PostalCode           string            `json:"postal_code"`
	Country              string            `json:"country"`
	Phone                string            `json:"phone"`
	IsDefault            bool              `json:"is_default"`
	DeliveryInstructions string            `json:"delivery_instructions,omitempty"`
	FullAddress          string            `json:"full_address"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func FromModel(a models.Address) AddressDTO {
	return AddressDTO{
		ID:                   a.ID,
		AddressType:          a.AddressType,
		FirstName:            a.FirstName,
		LastName:             a.LastName,
		FullName:             a.FullName(),
		Company:              a.Company,
		AddressLine1:         a.AddressLine1,
		AddressLine2:         a.AddressLine2,
		City:                 a.City,
		State:                a.State,
		PostalCode:           a.PostalCode,
		Country:              a.Country,
		Phone:                a.Phone,
		IsDefault:            a.IsDefault,
		DeliveryInstructions: a.DeliveryInstructions,
		FullAddress:          a.FullAddress(),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	row, err := s.load(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	address := &models.Address{
		UserID:               userID,
		AddressType:          input.AddressType,
		FirstName:            strings.TrimSpace(input.FirstName),
		LastName:             strings.TrimSpace(input.LastName),
		Company:              strings.TrimSpace(input.Company),
		AddressLine1:         strings.TrimSpace(input.AddressLine1),
		AddressLine2:         strings.TrimSpace(input.AddressLine2),
		City:                 strings.TrimSpace(input.City),
		State:                strings.TrimSpace(input.State),
		PostalCode:           strings.TrimSpace(input.PostalCode),
		Country:              strings.TrimSpace(input.Country),
		Phone:                strings.TrimSpace(input.Phone),
		IsDefault:            input.IsDefault,
		DeliveryInstructions: strings.TrimSpace(input.DeliveryInstructions),
	}
	if address.AddressType == "" {
		address.AddressType = enums.AddressTypeShipping
	}
	if address.Country == "" {
		address.Country = s.defaultCountry
	}
	if err := validate(address); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}
		if count == 0 {
			address.IsDefault = true
		}
		if err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, userID, address.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error) {
	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		address, err := s.load(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		applyUpdate(address, input)
		if err := validate(address); err != nil {
			return err
		}
		if err := repo.Save(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
		}
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, userID, address.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		updated = address
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, userID, id uuid.UUID) (*models.Address, error) {
	row, err := repo.FindForUser(ctx, userID, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return row, nil
}

func applyUpdate(a *models.Address, in UpdateInput) {
	if in.AddressType != nil {
		a.AddressType = *in.AddressType
	}
	setTrimmed(&a.FirstName, in.FirstName)
	setTrimmed(&a.LastName, in.LastName)
	setTrimmed(&a.Company, in.Company)
	setTrimmed(&a.AddressLine1, in.AddressLine1)
	setTrimmed(&a.AddressLine2, in.AddressLine2)
	setTrimmed(&a.City, in.City)
	setTrimmed(&a.State, in.State)
	setTrimmed(&a.PostalCode, in.PostalCode)
	setTrimmed(&a.Country, in.Country)
	setTrimmed(&a.Phone, in.Phone)
	setTrimmed(&a.DeliveryInstructions, in.DeliveryInstructions)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func validate(a *models.Address) error {
	if !a.AddressType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid address_type")
	}
	required := []struct {
		field string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address_line1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	missing := make([]string, 0)
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required address fields").
			WithDetails(map[string]any{"fields": missing})
	}
	return nil
}
