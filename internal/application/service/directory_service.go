package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
	"github.com/foodlink/donation-coordinator/pkg/utils"
)

// NewListing is the donor input for a food lot
type NewListing struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    entity.Quantity `json:"quantity"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Pickup      entity.Location `json:"pickup"`
}

// NewUser is the registration input for an actor
type NewUser struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           entity.Role `json:"role"`
	AccountStatus  string      `json:"account_status"`
	LarkOpenID     string      `json:"lark_open_id"`
	TelegramChatID int64       `json:"telegram_chat_id"`
}

// DirectoryService manages the entities the coordinator reads but does not own:
// user accounts and new food listings
type DirectoryService interface {
	CreateListing(ctx context.Context, actor lifecycle.Actor, in NewListing) (*entity.Food, error)
	ListFoods(ctx context.Context, filter port.FoodFilter) ([]*entity.Food, error)
	RegisterUser(ctx context.Context, in NewUser) (*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	// SetAccountStatus is the admin vetting step for new accounts
	SetAccountStatus(ctx context.Context, actor lifecycle.Actor, id, status string) (*entity.User, error)
}

type directoryServiceImpl struct {
	repos  Repositories
	now    func() time.Time
	logger Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(repos Repositories, logger Logger) DirectoryService {
	return &directoryServiceImpl{
		repos:  repos,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (s *directoryServiceImpl) CreateListing(ctx context.Context, actor lifecycle.Actor, in NewListing) (*entity.Food, error) {
	if actor.Role != entity.RoleDonor {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrAuthorizationFailed, Entity: lifecycle.EntityUser, ID: actor.UserID, Reason: "only donors may list food"}
	}

	donor, err := s.repos.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get donor: %w", err)
	}
	if donor == nil {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrNotFound, Entity: lifecycle.EntityUser, ID: actor.UserID, Reason: "user does not exist"}
	}
	if !donor.IsApproved() {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrPreconditionFailed, Entity: lifecycle.EntityUser, ID: donor.ID, Reason: "donor account is " + donor.AccountStatus}
	}

	now := s.now()
	title := strings.TrimSpace(utils.SanitizeString(in.Title))
	if title == "" {
		return nil, invalidListing("title is required")
	}
	if err := utils.ValidateQuantity(in.Quantity.Amount, in.Quantity.Unit); err != nil {
		return nil, invalidListing(err.Error())
	}
	if err := utils.ValidateCoordinates(in.Pickup.Latitude, in.Pickup.Longitude); err != nil {
		return nil, invalidListing(err.Error())
	}
	if !in.ExpiresAt.IsZero() && !in.ExpiresAt.After(now) {
		return nil, invalidListing("expiry must be in the future")
	}

	food := &entity.Food{
		ID:          uuid.NewString(),
		DonorID:     donor.ID,
		Title:       title,
		Description: utils.SanitizeString(in.Description),
		Quantity:    in.Quantity,
		Status:      entity.FoodStatusAvailable,
		ExpiresAt:   in.ExpiresAt.UTC(),
		Pickup:      in.Pickup,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Foods.Create(ctx, food); err != nil {
		s.logger.Error("Failed to create listing", "error", err, "donor_id", donor.ID)
		return nil, fmt.Errorf("create food: %w", err)
	}

	s.logger.Info("Food listed", "food_id", food.ID, "donor_id", donor.ID, "expires_at", food.ExpiresAt)
	return food, nil
}

func invalidListing(reason string) error {
	return &lifecycle.Error{Kind: lifecycle.ErrInvalidIntent, Entity: lifecycle.EntityFood, Reason: reason}
}

func (s *directoryServiceImpl) ListFoods(ctx context.Context, filter port.FoodFilter) ([]*entity.Food, error) {
	foods, err := s.repos.Foods.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list foods", "error", err)
		return nil, err
	}
	return foods, nil
}

func (s *directoryServiceImpl) RegisterUser(ctx context.Context, in NewUser) (*entity.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrInvalidIntent, Entity: lifecycle.EntityUser, Reason: "name is required"}
	}
	if in.Email != "" {
		if err := utils.ValidateEmail(in.Email); err != nil {
			return nil, &lifecycle.Error{Kind: lifecycle.ErrInvalidIntent, Entity: lifecycle.EntityUser, Reason: err.Error()}
		}
	}
	if !in.Role.IsValid() || in.Role == entity.RoleSystem {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrInvalidIntent, Entity: lifecycle.EntityUser, Reason: fmt.Sprintf("unknown role %q", in.Role)}
	}

	status := in.AccountStatus
	if status == "" {
		status = entity.AccountStatusPending
	}
	if !validAccountStatus(status) {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrInvalidIntent, Entity: lifecycle.EntityUser, Reason: fmt.Sprintf("unknown account status %q", status)}
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	user := &entity.User{
		ID:             id,
		Name:           strings.TrimSpace(in.Name),
		Email:          in.Email,
		Role:           in.Role,
		AccountStatus:  status,
		LarkOpenID:     in.LarkOpenID,
		TelegramChatID: in.TelegramChatID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		s.logger.Error("Failed to register user", "error", err, "user_id", id)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role, "account_status", user.AccountStatus)
	return user, nil
}

func (s *directoryServiceImpl) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrNotFound, Entity: lifecycle.EntityUser, ID: id, Reason: "user does not exist"}
	}
	return user, nil
}

func (s *directoryServiceImpl) SetAccountStatus(ctx context.Context, actor lifecycle.Actor, id, status string) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrAuthorizationFailed, Entity: lifecycle.EntityUser, ID: id, Reason: "only admins may vet accounts"}
	}
	if !validAccountStatus(status) {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrInvalidIntent, Entity: lifecycle.EntityUser, ID: id, Reason: fmt.Sprintf("unknown account status %q", status)}
	}

	ok, err := s.repos.Users.UpdateAccountStatus(ctx, id, status, s.now())
	if err != nil {
		s.logger.Error("Failed to update account status", "error", err, "user_id", id)
		return nil, fmt.Errorf("update account status: %w", err)
	}
	if !ok {
		return nil, &lifecycle.Error{Kind: lifecycle.ErrNotFound, Entity: lifecycle.EntityUser, ID: id, Reason: "user does not exist"}
	}

	s.logger.Info("Account status changed", "user_id", id, "account_status", status, "admin_id", actor.UserID)
	return s.GetUser(ctx, id)
}

func validAccountStatus(status string) bool {
	switch status {
	case entity.AccountStatusPending, entity.AccountStatusApproved, entity.AccountStatusSuspended:
		return true
	}
	return false
}
