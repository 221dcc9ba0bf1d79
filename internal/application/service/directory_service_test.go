package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

func TestDirectoryService_CreateListing(t *testing.T) {
	ctx := context.Background()
	tomorrow := time.Now().Add(24 * time.Hour)

	valid := NewListing{Title: "Rice", Quantity: kg(20), ExpiresAt: tomorrow}

	tests := []struct {
		name    string
		actor   lifecycle.Actor
		listing NewListing
		setup   func(store *memStore)
		kind    error
	}{
		{name: "donor lists food", actor: donorActor, listing: valid},
		{name: "no expiry", actor: donorActor, listing: NewListing{Title: "Tins", Quantity: kg(3)}},
		{name: "ngo cannot list", actor: ngoA, listing: valid, kind: lifecycle.ErrAuthorizationFailed},
		{
			name:    "unknown donor",
			actor:   lifecycle.Actor{UserID: "nobody", Role: entity.RoleDonor},
			listing: valid,
			kind:    lifecycle.ErrNotFound,
		},
		{
			name:    "donor not yet approved",
			actor:   donorActor,
			listing: valid,
			setup: func(store *memStore) {
				store.users[donorActor.UserID].AccountStatus = entity.AccountStatusPending
			},
			kind: lifecycle.ErrPreconditionFailed,
		},
		{name: "missing title", actor: donorActor, listing: NewListing{Quantity: kg(1), ExpiresAt: tomorrow}, kind: lifecycle.ErrInvalidIntent},
		{name: "zero quantity", actor: donorActor, listing: NewListing{Title: "Rice", Quantity: kg(0), ExpiresAt: tomorrow}, kind: lifecycle.ErrInvalidIntent},
		{name: "missing unit", actor: donorActor, listing: NewListing{Title: "Rice", Quantity: entity.Quantity{Amount: 1}, ExpiresAt: tomorrow}, kind: lifecycle.ErrInvalidIntent},
		{name: "pickup off the map", actor: donorActor, listing: NewListing{Title: "Rice", Quantity: kg(1), Pickup: entity.Location{Latitude: 120}}, kind: lifecycle.ErrInvalidIntent},
		{name: "expiry in the past", actor: donorActor, listing: NewListing{Title: "Rice", Quantity: kg(1), ExpiresAt: time.Now().Add(-time.Hour)}, kind: lifecycle.ErrInvalidIntent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			for _, u := range []lifecycle.Actor{donorActor, ngoA} {
				store.users[u.UserID] = &entity.User{ID: u.UserID, Role: u.Role, AccountStatus: entity.AccountStatusApproved}
			}
			if tt.setup != nil {
				tt.setup(store)
			}
			svc := NewDirectoryService(store.repos(), &mockLogger{})

			food, err := svc.CreateListing(ctx, tt.actor, tt.listing)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
				assert.Empty(t, store.foods)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, food.ID)
			assert.Equal(t, entity.FoodStatusAvailable, food.Status)
			assert.Equal(t, int64(1), food.Version)
			assert.Equal(t, donorActor.UserID, food.DonorID)
			assert.Contains(t, store.foods, food.ID)
		})
	}
}

func TestDirectoryService_ListFoods(t *testing.T) {
	store := newMemStore()
	store.foods["f-1"] = &entity.Food{ID: "f-1", DonorID: "d-1", Status: entity.FoodStatusAvailable}
	store.foods["f-2"] = &entity.Food{ID: "f-2", DonorID: "d-1", Status: entity.FoodStatusExpired}
	store.foods["f-3"] = &entity.Food{ID: "f-3", DonorID: "d-2", Status: entity.FoodStatusAvailable}
	svc := NewDirectoryService(store.repos(), &mockLogger{})

	foods, err := svc.ListFoods(context.Background(), port.FoodFilter{Status: entity.FoodStatusAvailable})
	require.NoError(t, err)
	require.Len(t, foods, 2)
	assert.Equal(t, "f-1", foods[0].ID)
	assert.Equal(t, "f-3", foods[1].ID)
}

func TestDirectoryService_RegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to pending", func(t *testing.T) {
		store := newMemStore()
		svc := NewDirectoryService(store.repos(), &mockLogger{})

		user, err := svc.RegisterUser(ctx, NewUser{Name: " Food Bank ", Role: entity.RoleNGO})
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "Food Bank", user.Name)
		assert.Equal(t, entity.AccountStatusPending, user.AccountStatus)

		got, err := svc.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("keeps caller id and contacts", func(t *testing.T) {
		store := newMemStore()
		svc := NewDirectoryService(store.repos(), &mockLogger{})

		user, err := svc.RegisterUser(ctx, NewUser{
			ID:             "vol-7",
			Name:           "Sam",
			Role:           entity.RoleVolunteer,
			AccountStatus:  entity.AccountStatusApproved,
			LarkOpenID:     "ou_123",
			TelegramChatID: 42,
		})
		require.NoError(t, err)
		assert.Equal(t, "vol-7", user.ID)
		assert.Equal(t, int64(42), store.users["vol-7"].TelegramChatID)
	})

	rejects := []struct {
		name string
		in   NewUser
	}{
		{"no name", NewUser{Role: entity.RoleDonor}},
		{"system role", NewUser{Name: "cron", Role: entity.RoleSystem}},
		{"unknown role", NewUser{Name: "x", Role: "mayor"}},
		{"unknown status", NewUser{Name: "x", Role: entity.RoleDonor, AccountStatus: "banned"}},
		{"bad email", NewUser{Name: "x", Role: entity.RoleDonor, Email: "x@"}},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDirectoryService(newMemStore().repos(), &mockLogger{})
			_, err := svc.RegisterUser(ctx, tt.in)
			assert.ErrorIs(t, err, lifecycle.ErrInvalidIntent)
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		svc := NewDirectoryService(newMemStore().repos(), &mockLogger{})
		_, err := svc.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	})
}

func TestDirectoryService_SetAccountStatus(t *testing.T) {
	ctx := context.Background()
	admin := lifecycle.Actor{UserID: "admin-1", Role: entity.RoleAdmin}

	tests := []struct {
		name   string
		actor  lifecycle.Actor
		id     string
		status string
		kind   error
	}{
		{name: "admin approves", actor: admin, id: "ngo-a", status: entity.AccountStatusApproved},
		{name: "admin suspends", actor: admin, id: "ngo-a", status: entity.AccountStatusSuspended},
		{name: "non-admin", actor: donorActor, id: "ngo-a", status: entity.AccountStatusApproved, kind: lifecycle.ErrAuthorizationFailed},
		{name: "unknown status", actor: admin, id: "ngo-a", status: "vip", kind: lifecycle.ErrInvalidIntent},
		{name: "unknown user", actor: admin, id: "nobody", status: entity.AccountStatusApproved, kind: lifecycle.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.users["ngo-a"] = &entity.User{ID: "ngo-a", Role: entity.RoleNGO, AccountStatus: entity.AccountStatusPending}
			svc := NewDirectoryService(store.repos(), &mockLogger{})

			user, err := svc.SetAccountStatus(ctx, tt.actor, tt.id, tt.status)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
				assert.Equal(t, entity.AccountStatusPending, store.users["ngo-a"].AccountStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, user.AccountStatus)
			assert.Equal(t, tt.status, store.users["ngo-a"].AccountStatus)
		})
	}
}
