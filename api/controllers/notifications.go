package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/notifications"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type notificationAction func(ctx context.Context, userID, notificationID uuid.UUID) error

// ListNotifications returns the caller's non-archived notifications.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("notifications"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unread, err := validators.ParseQueryBool(r, "unread_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := notifications.ListParams{UserID: userID, Limit: page.Limit, Cursor: page.Cursor}
		if unread != nil {
			params.UnreadOnly = *unread
		}
		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return notificationHandler(nil, "read", logg)
	}
	return notificationHandler(svc.MarkRead, "read", logg)
}

func MarkNotificationUnread(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return notificationHandler(nil, "unread", logg)
	}
	return notificationHandler(svc.MarkUnread, "unread", logg)
}

func ArchiveNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return notificationHandler(nil, "archived", logg)
	}
	return notificationHandler(svc.Archive, "archived", logg)
}

func notificationHandler(action notificationAction, status string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if action == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("notifications"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := action(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("notifications"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

type adminNotificationRequest struct {
	UserIDs          []uuid.UUID    `json:"user_ids" validate:"required,min=1,max=100"`
	NotificationType string         `json:"notification_type" validate:"required"`
	Title            string         `json:"title" validate:"required,max=200"`
	Message          string         `json:"message" validate:"required,max=2000"`
	Link             *string        `json:"link" validate:"omitempty,max=500"`
	Metadata         map[string]any `json:"metadata"`
}

// AdminSendNotification lets staff push a notification to a set of users.
func AdminSendNotification(svc notifications.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("notifications"))
			return
		}
		var body adminNotificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseNotificationType(body.NotificationType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification_type"))
			return
		}

		sent := 0
		for _, userID := range body.UserIDs {
			if err := svc.Notify(r.Context(), nil, notifications.Input{
				UserID:   userID,
				Type:     kind,
				Title:    body.Title,
				Message:  body.Message,
				Link:     body.Link,
				Metadata: body.Metadata,
			}); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			sent++
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int{"sent": sent})
	}
}
