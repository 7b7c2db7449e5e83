// Package users owns registration, profiles, password flows and staff user
// management.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/internal/notifications"
	"github.com/angelmondragon/shopfront-backend/pkg/bulk"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/angelmondragon/shopfront-backend/pkg/security"
)

const (
	maxUsernameLength = 150
	resetTokenBytes   = 32
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// tokenStore keeps single-use password reset tokens.
type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, error)
	PasswordResetKey(token string) string
}

// Service exposes account operations for customers and staff.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error

	List(ctx context.Context, params ListParams) (*pagination.Page[UserDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	AdminUpdate(ctx context.Context, actor Actor, id uuid.UUID, input AdminUpdateInput) (*UserDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (*bulk.Result, error)
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Repo           Repository
	Tx             txRunner
	Outbox         outbox.Emitter
	Notifier       notifications.Notifier
	Activity       activity.Recorder
	Tokens         tokenStore
	PasswordConfig config.PasswordConfig
	ResetTokenTTL  time.Duration
	Logger         *logger.Logger
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outbox.Emitter
	notifier    notifications.Notifier
	activity    activity.Recorder
	tokens      tokenStore
	passwordCfg config.PasswordConfig
	resetTTL    time.Duration
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token store required")
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
	if params.ResetTokenTTL <= 0 {
		params.ResetTokenTTL = time.Hour
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		notifier:    params.Notifier,
		activity:    params.Activity,
		tokens:      params.Tokens,
		passwordCfg: params.PasswordConfig,
		resetTTL:    params.ResetTokenTTL,
		logg:        params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if err := security.ValidatePasswordStrength(input.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if err := validatePhone(input.PhoneNumber); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:                  email,
		PasswordHash:           hash,
		FirstName:              strings.TrimSpace(input.FirstName),
		LastName:               strings.TrimSpace(input.LastName),
		PhoneNumber:            input.PhoneNumber,
		NewsletterSubscription: input.NewsletterSubscription,
		IsActive:               true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.EmailTaken(ctx, email, uuid.Nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "user with this email already exists")
		}
		username, err := deriveUsername(ctx, repo, email)
		if err != nil {
			return err
		}
		user.Username = username

		if err := repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: enums.UserRoleCustomer},
			Data: payloads.UserRegisteredEvent{
				UserID:                 user.ID,
				Email:                  user.Email,
				NewsletterSubscription: user.NewsletterSubscription,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// deriveUsername uses the email local part, then local_1, local_2, ... until free.
func deriveUsername(ctx context.Context, repo Repository, email string) (string, error) {
	base, _, _ := strings.Cut(email, "@")
	base = strings.TrimSpace(base)
	if base == "" {
		base = "user"
	}
	if len(base) > maxUsernameLength-8 {
		base = base[:maxUsernameLength-8]
	}
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := repo.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "_" + strconv.Itoa(counter)
	}
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if err := validatePhone(input.PhoneNumber); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = input.PhoneNumber
	}
	if input.DateOfBirth != nil {
		dob := input.DateOfBirth.UTC()
		user.DateOfBirth = &dob
	}
	if input.NewsletterSubscription != nil {
		user.NewsletterSubscription = *input.NewsletterSubscription
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.Entry{
		UserID:      user.ID,
		Type:        enums.ActivityUpdateProfile,
		Description: "Profile updated",
	})
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "old password and new password are required")
	}
	user, err := s.load(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "old password is incorrect")
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil
	}

	token, err := security.GenerateToken(resetTokenBytes)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	if err := s.tokens.Set(ctx, s.tokens.PasswordResetKey(token), user.ID.String(), s.resetTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":     user.ID.String(),
		"reset_token": token,
		"expires_in":  s.resetTTL.String(),
	})
	s.logg.Info(logCtx, "users.password_reset_issued")

	if s.notifier != nil {
		err := s.notifier.Notify(ctx, nil, notifications.Input{
			UserID:  user.ID,
			Type:    enums.NotificationTypeAlert,
			Title:   "Password reset requested",
			Message: "A password reset was requested for your account. If this was not you, change your password.",
		})
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "users.password_reset_notify_failed")
		}
	}
	return nil
}

func (s *service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token and new password are required")
	}
	if err := security.ValidatePasswordStrength(newPassword); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	raw, err := s.tokens.Take(ctx, s.tokens.PasswordResetKey(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "reset token is invalid or expired")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reset token")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reset token is invalid or expired")
	}
	if _, err := s.load(ctx, s.repo, userID); err != nil {
		return err
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *service) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := security.ValidatePasswordStrength(password); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[UserDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listParams{
		Limit:    pagination.LimitWithBuffer(params.Limit),
		Cursor:   cursor,
		Search:   params.Search,
		IsActive: params.IsActive,
		IsStaff:  params.IsStaff,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	page := pagination.Trim(dtos, params.Limit, func(u UserDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	return s.Profile(ctx, id)
}

func (s *service) AdminUpdate(ctx context.Context, actor Actor, id uuid.UUID, input AdminUpdateInput) (*UserDTO, error) {
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if input.IsStaff != nil && !actor.IsSuperuser {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only superusers can change staff access")
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.UserID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot delete your own account")
	}
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (*bulk.Result, error) {
	ids, err := bulk.NormalizeIDs(ids, bulk.DefaultMaxIDs)
	if err != nil {
		return nil, err
	}
	result := &bulk.Result{MissingIDs: []uuid.UUID{}}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ExistingIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load users")
		}
		result.MissingIDs = bulk.Missing(ids, existing)
		if len(existing) == 0 {
			return nil
		}
		updated, err := repo.SetActive(ctx, existing, active)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update users")
		}
		result.Updated = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	taken, err := s.repo.EmailTaken(ctx, email, self)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
	}
	return nil
}

func (s *service) save(ctx context.Context, user *models.User) error {
	if err := s.repo.Save(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePhone(phone *string) error {
	if phone == nil || *phone == "" {
		return nil
	}
	if !phonePattern.MatchString(*phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone number must be entered in the format '+999999999', up to 15 digits")
	}
	return nil
}
