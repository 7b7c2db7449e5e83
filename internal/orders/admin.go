package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/notifications"
	"github.com/angelmondragon/shopfront-backend/pkg/bulk"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/payloads"
)

const (
	kindStatus        = "status"
	kindPaymentStatus = "payment_status"
)

func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	var order *models.Order
	changed := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if order.Status == status {
			return nil
		}
		if _, err := repo.UpdateFields(ctx, []uuid.UUID{id}, map[string]any{"status": status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		from := order.Status
		order.Status = status
		changed = 1
		return s.announceStatus(ctx, tx, actor, *order, from)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddStatusChanges(kindStatus, status.String(), changed)
	return s.AdminGet(ctx, order.ID)
}

func (s *service) UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.PaymentStatus, transactionID *string) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	var order *models.Order
	changed := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		fields := map[string]any{"payment_status": status}
		if transactionID != nil {
			if value := strings.TrimSpace(*transactionID); value != "" {
				fields["transaction_id"] = value
			}
		}
		if order.PaymentStatus == status && len(fields) == 1 {
			return nil
		}
		if _, err := repo.UpdateFields(ctx, []uuid.UUID{id}, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if order.PaymentStatus == status {
			return nil
		}
		from := order.PaymentStatus
		order.PaymentStatus = status
		changed = 1
		return s.announcePayment(ctx, tx, actor, *order, from)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddStatusChanges(kindPaymentStatus, status.String(), changed)
	return s.AdminGet(ctx, order.ID)
}

// SetTracking stores the carrier tracking number; blank clears it. A change is
// announced like a status change; the customer is only notified when a number
// is set.
func (s *service) SetTracking(ctx context.Context, actor Actor, id uuid.UUID, tracking string) (*OrderDTO, error) {
	tracking = strings.TrimSpace(tracking)
	if len(tracking) > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number must be at most 100 characters")
	}
	var next *string
	if tracking != "" {
		next = &tracking
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		current := ""
		if order.TrackingNumber != nil {
			current = *order.TrackingNumber
		}
		if current == tracking {
			return nil
		}
		var value any
		if next != nil {
			value = tracking
		}
		if _, err := repo.UpdateFields(ctx, []uuid.UUID{id}, map[string]any{"tracking_number": value}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set tracking number")
		}
		order.TrackingNumber = next
		return s.announceTracking(ctx, tx, actor, *order)
	})
	if err != nil {
		return nil, err
	}
	return s.AdminGet(ctx, id)
}

// ApplyBulkStatus sets status on every existing order in ids. Orders whose
// status actually changed get an outbox event and a notification.
func (s *service) ApplyBulkStatus(ctx context.Context, actor Actor, ids []uuid.UUID, status enums.OrderStatus) (*bulk.Result, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	ids, err := bulk.NormalizeIDs(ids, s.maxBulk)
	if err != nil {
		return nil, err
	}

	result := &bulk.Result{}
	changed := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, existing, err := s.existing(ctx, repo, ids)
		if err != nil {
			return err
		}
		result.MissingIDs = bulk.Missing(ids, existing)
		if len(existing) == 0 {
			return nil
		}
		result.Updated, err = repo.UpdateFields(ctx, existing, map[string]any{"status": status})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bulk update status")
		}
		for _, order := range found {
			if order.Status == status {
				continue
			}
			from := order.Status
			order.Status = status
			if err := s.announceStatus(ctx, tx, actor, order, from); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddStatusChanges(kindStatus, status.String(), changed)
	return result, nil
}

func (s *service) ApplyBulkPaymentStatus(ctx context.Context, actor Actor, ids []uuid.UUID, status enums.PaymentStatus) (*bulk.Result, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	ids, err := bulk.NormalizeIDs(ids, s.maxBulk)
	if err != nil {
		return nil, err
	}

	result := &bulk.Result{}
	changed := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, existing, err := s.existing(ctx, repo, ids)
		if err != nil {
			return err
		}
		result.MissingIDs = bulk.Missing(ids, existing)
		if len(existing) == 0 {
			return nil
		}
		result.Updated, err = repo.UpdateFields(ctx, existing, map[string]any{"payment_status": status})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bulk update payment status")
		}
		for _, order := range found {
			if order.PaymentStatus == status {
				continue
			}
			from := order.PaymentStatus
			order.PaymentStatus = status
			if err := s.announcePayment(ctx, tx, actor, order, from); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddStatusChanges(kindPaymentStatus, status.String(), changed)
	return result, nil
}

func (s *service) existing(ctx context.Context, repo Repository, ids []uuid.UUID) ([]models.Order, []uuid.UUID, error) {
	found, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	existing := make([]uuid.UUID, 0, len(found))
	for _, order := range found {
		existing = append(existing, order.ID)
	}
	return found, existing, nil
}

func (s *service) announceStatus(ctx context.Context, tx *gorm.DB, actor Actor, order models.Order, from enums.OrderStatus) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			From:        from,
			To:          order.Status,
		},
	}); err != nil {
		return err
	}
	return s.notifier.Notify(ctx, tx, notifications.Input{
		UserID:   order.UserID,
		Type:     enums.NotificationTypeOrder,
		Title:    "Order Update",
		Message:  fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, order.Status),
		Link:     orderLink(order.OrderNumber),
		Metadata: map[string]any{"order_id": order.ID.String(), "status": order.Status.String()},
	})
}

func (s *service) announcePayment(ctx context.Context, tx *gorm.DB, actor Actor, order models.Order, from enums.PaymentStatus) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaymentStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.OrderPaymentStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			From:        from,
			To:          order.PaymentStatus,
		},
	}); err != nil {
		return err
	}
	return s.notifier.Notify(ctx, tx, notifications.Input{
		UserID:   order.UserID,
		Type:     enums.NotificationTypeOrder,
		Title:    "Payment Update",
		Message:  fmt.Sprintf("Payment for order %s is now %s.", order.OrderNumber, order.PaymentStatus),
		Link:     orderLink(order.OrderNumber),
		Metadata: map[string]any{"order_id": order.ID.String(), "payment_status": order.PaymentStatus.String()},
	})
}

func (s *service) announceTracking(ctx context.Context, tx *gorm.DB, actor Actor, order models.Order) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderTrackingUpdated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.OrderTrackingUpdatedEvent{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			TrackingNumber: order.TrackingNumber,
		},
	}); err != nil {
		return err
	}
	if order.TrackingNumber == nil {
		return nil
	}
	return s.notifier.Notify(ctx, tx, notifications.Input{
		UserID:   order.UserID,
		Type:     enums.NotificationTypeOrder,
		Title:    "Order Shipped",
		Message:  fmt.Sprintf("Your order %s has tracking number %s.", order.OrderNumber, *order.TrackingNumber),
		Link:     orderLink(order.OrderNumber),
		Metadata: map[string]any{"order_id": order.ID.String(), "tracking_number": *order.TrackingNumber},
	})
}
