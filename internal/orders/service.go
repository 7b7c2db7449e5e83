// Package orders turns carts into orders and carries the operator commands
// that move an order through fulfilment and payment.
package orders

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/internal/notifications"
	"github.com/angelmondragon/shopfront-backend/pkg/bulk"
	"github.com/angelmondragon/shopfront-backend/pkg/checkout"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressLookup interface {
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
}

// Actor is the operator issuing a command.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}

// Service is the order engine.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[OrderDTO], error)

	AdminGet(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, params AdminListParams) (*pagination.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.PaymentStatus, transactionID *string) (*OrderDTO, error)
	SetTracking(ctx context.Context, actor Actor, id uuid.UUID, tracking string) (*OrderDTO, error)
	ApplyBulkStatus(ctx context.Context, actor Actor, ids []uuid.UUID, status enums.OrderStatus) (*bulk.Result, error)
	ApplyBulkPaymentStatus(ctx context.Context, actor Actor, ids []uuid.UUID, status enums.PaymentStatus) (*bulk.Result, error)
}

// ServiceParams wires the order engine.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Addresses  addressLookup
	Outbox     outbox.Emitter
	Notifier   notifications.Notifier
	Activity   activity.Recorder
	Metrics    *metrics.ShopMetrics
	Logger     *logger.Logger
	Location   *time.Location
	Pricing    Pricing
	MaxBulkIDs int
	Now        func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	addresses addressLookup
	outbox    outbox.Emitter
	notifier  notifications.Notifier
	activity  activity.Recorder
	metrics   *metrics.ShopMetrics
	logg      *logger.Logger
	loc       *time.Location
	pricing   Pricing
	maxBulk   int
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if err := params.Pricing.validate(); err != nil {
		return nil, err
	}
	if params.Outbox == nil {
		params.Outbox = outbox.NopEmitter{}
	}
	if params.Activity == nil {
		params.Activity = activity.Nop{}
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Location == nil {
		params.Location = time.UTC
	}
	if params.MaxBulkIDs <= 0 {
		params.MaxBulkIDs = bulk.DefaultMaxIDs
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		addresses: params.Addresses,
		outbox:    params.Outbox,
		notifier:  params.Notifier,
		activity:  params.Activity,
		metrics:   params.Metrics,
		logg:      params.Logger,
		loc:       params.Location,
		pricing:   params.Pricing,
		maxBulk:   params.MaxBulkIDs,
		now:       params.Now,
	}, nil
}

// PlaceOrder snapshots the cart into an order, allocates the day's next order
// number and takes stock, all in one transaction. The cart is deleted on
// success; any failure leaves cart, stock and counter untouched.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.resolveShipping(ctx, &input); err != nil {
		return nil, err
	}
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCart(ctx, input.UserID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		lines, err := repo.CartItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		products, err := repo.LockProducts(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		checks := make([]checkout.StockValidationInput, 0, len(lines))
		for _, line := range lines {
			p, ok := byID[line.ProductID]
			checks = append(checks, checkout.StockValidationInput{
				ProductID:      line.ProductID,
				ProductName:    p.Name,
				Active:         ok && p.IsActive,
				TrackInventory: p.TrackInventory,
				Available:      p.Quantity,
				Quantity:       line.Quantity,
			})
		}
		if err := checkout.ValidateStock(checks); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(lines))
		subtotal := decimal.Zero
		for _, line := range lines {
			p := byID[line.ProductID]
			productID := p.ID
			item := models.OrderItem{
				ProductID:   &productID,
				ProductName: p.Name,
				ProductSKU:  p.SKU,
				Quantity:    line.Quantity,
				Price:       p.Price,
			}
			subtotal = subtotal.Add(item.Total())
			items = append(items, item)
		}
		charges := s.pricing.Charges(subtotal)
		total := subtotal.Add(charges.Tax).Add(charges.ShippingCost).Sub(charges.Discount)
		if total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order value")
		}

		day := dayKey(s.now(), s.loc)
		seq, err := repo.NextSequence(ctx, day)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		for _, line := range lines {
			p := byID[line.ProductID]
			if !p.TrackInventory {
				if err := repo.IncrementSales(ctx, p.ID, line.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sales")
				}
				continue
			}
			ok, err := repo.DecrementStock(ctx, p.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock for "+p.Name).
					WithDetails(map[string]any{"product_id": p.ID, "requested_qty": line.Quantity})
			}
		}

		order = &models.Order{
			UserID:         input.UserID,
			OrderNumber:    FormatOrderNumber(day, seq),
			Status:         enums.OrderStatusPending,
			FirstName:      input.Customer.FirstName,
			LastName:       input.Customer.LastName,
			Email:          input.Customer.Email,
			Phone:          input.Customer.Phone,
			AddressLine1:   input.Shipping.AddressLine1,
			AddressLine2:   input.Shipping.AddressLine2,
			City:           input.Shipping.City,
			State:          input.Shipping.State,
			PostalCode:     input.Shipping.PostalCode,
			Country:        input.Shipping.Country,
			ShippingMethod: input.ShippingMethod,
			ShippingCost:   charges.ShippingCost,
			PaymentMethod:  input.PaymentMethod,
			PaymentStatus:  enums.PaymentStatusPending,
			Subtotal:       subtotal,
			Tax:            charges.Tax,
			Discount:       charges.Discount,
			Total:          total,
			Notes:          input.Notes,
			Items:          items,
		}
		if ip := strings.TrimSpace(input.IPAddress); ip != "" {
			order.IPAddress = &ip
		}
		if err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already issued")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.DeleteCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}

		itemCount := 0
		for _, item := range items {
			itemCount += item.Quantity
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: enums.UserRoleCustomer},
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				TotalAmount:   order.Total.StringFixed(2),
				ItemCount:     itemCount,
				PaymentMethod: order.PaymentMethod,
			},
		}); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, tx, notifications.Input{
			UserID:   order.UserID,
			Type:     enums.NotificationTypeOrder,
			Title:    "Order Placed",
			Message:  fmt.Sprintf("Your order %s has been placed successfully.", order.OrderNumber),
			Link:     orderLink(order.OrderNumber),
			Metadata: map[string]any{"order_id": order.ID.String(), "order_number": order.OrderNumber},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderPlaced()
	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	logCtx = s.logg.WithFields(logCtx, map[string]any{"user_id": order.UserID.String(), "total": order.Total.StringFixed(2)})
	s.logg.Info(logCtx, "orders.placed")
	s.activity.Record(ctx, activity.Entry{
		UserID:      order.UserID,
		Type:        enums.ActivityPlaceOrder,
		Description: "Placed order " + order.OrderNumber,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Metadata:    map[string]any{"order_number": order.OrderNumber},
	})
	return FromModel(order), nil
}

// Get returns one of the caller's own orders by number.
func (s *service) Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderDTO, error) {
	order, err := s.repo.FindByNumberForUser(ctx, userID, strings.TrimSpace(orderNumber))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	s.activity.Record(ctx, activity.Entry{
		UserID:      userID,
		Type:        enums.ActivityViewOrder,
		Description: "Viewed order " + order.OrderNumber,
		Metadata:    map[string]any{"order_number": order.OrderNumber},
	})
	return FromModel(order), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	return s.list(ctx, listParams{UserID: &userID}, params)
}

func (s *service) AdminGet(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) AdminList(ctx context.Context, params AdminListParams) (*pagination.Page[OrderDTO], error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if params.PaymentStatus != nil && !params.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	return s.list(ctx, listParams{
		Status:        params.Status,
		PaymentStatus: params.PaymentStatus,
		Search:        params.Search,
	}, pagination.Params{Limit: params.Limit, Cursor: params.Cursor})
}

func (s *service) list(ctx context.Context, filters listParams, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filters.Cursor = cursor
	filters.Limit = pagination.LimitWithBuffer(params.Limit)
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	page := pagination.Trim(dtos, params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// resolveShipping fills customer and shipping details from the address book
// when AddressID is set. Explicit customer fields win over the address.
func (s *service) resolveShipping(ctx context.Context, input *PlaceOrderInput) error {
	if input.AddressID == nil {
		return nil
	}
	if s.addresses == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address book unavailable")
	}
	addr, err := s.addresses.FindForUser(ctx, input.UserID, *input.AddressID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	input.Shipping = ShippingInfo{
		AddressLine1: addr.AddressLine1,
		AddressLine2: addr.AddressLine2,
		City:         addr.City,
		State:        addr.State,
		PostalCode:   addr.PostalCode,
		Country:      addr.Country,
	}
	if input.Customer.FirstName == "" {
		input.Customer.FirstName = addr.FirstName
	}
	if input.Customer.LastName == "" {
		input.Customer.LastName = addr.LastName
	}
	if input.Customer.Phone == "" {
		input.Customer.Phone = addr.Phone
	}
	return nil
}

func validatePlaceOrder(input PlaceOrderInput) error {
	violations := map[string]string{}
	required := map[string]string{
		"first_name":    input.Customer.FirstName,
		"last_name":     input.Customer.LastName,
		"email":         input.Customer.Email,
		"phone":         input.Customer.Phone,
		"address_line1": input.Shipping.AddressLine1,
		"city":          input.Shipping.City,
		"state":         input.Shipping.State,
		"postal_code":   input.Shipping.PostalCode,
		"country":       input.Shipping.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			violations[field] = "required"
		}
	}
	if phone := strings.TrimSpace(input.Customer.Phone); phone != "" && !phonePattern.MatchString(phone) {
		violations["phone"] = "must be 9 to 15 digits with an optional leading +"
	}
	if !input.PaymentMethod.IsValid() {
		violations["payment_method"] = "invalid payment method"
	}
	if len(violations) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(violations)
	}
	return nil
}

func orderLink(number string) *string {
	link := "/orders/" + number
	return &link
}
