package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockLifecycleService struct {
	executeFunc      func(ctx context.Context, intent lifecycle.Intent) (*lifecycle.Outcome, error)
	getLifecycleFunc func(ctx context.Context, foodID string) (*service.LifecycleView, error)
	listRequestsFunc func(ctx context.Context, ngoID string) ([]*entity.Request, error)
	listTasksFunc    func(ctx context.Context, volunteerID string) ([]*entity.Task, error)
}

func (m *mockLifecycleService) Execute(ctx context.Context, intent lifecycle.Intent) (*lifecycle.Outcome, error) {
	return m.executeFunc(ctx, intent)
}

func (m *mockLifecycleService) GetLifecycle(ctx context.Context, foodID string) (*service.LifecycleView, error) {
	return m.getLifecycleFunc(ctx, foodID)
}

func (m *mockLifecycleService) ListRequestsByNGO(ctx context.Context, ngoID string) ([]*entity.Request, error) {
	return m.listRequestsFunc(ctx, ngoID)
}

func (m *mockLifecycleService) ListTasksByVolunteer(ctx context.Context, volunteerID string) ([]*entity.Task, error) {
	return m.listTasksFunc(ctx, volunteerID)
}

type mockDirectoryService struct {
	createListingFunc    func(ctx context.Context, actor lifecycle.Actor, in service.NewListing) (*entity.Food, error)
	listFoodsFunc        func(ctx context.Context, filter port.FoodFilter) ([]*entity.Food, error)
	registerUserFunc     func(ctx context.Context, in service.NewUser) (*entity.User, error)
	getUserFunc          func(ctx context.Context, id string) (*entity.User, error)
	setAccountStatusFunc func(ctx context.Context, actor lifecycle.Actor, id, status string) (*entity.User, error)
}

func (m *mockDirectoryService) CreateListing(ctx context.Context, actor lifecycle.Actor, in service.NewListing) (*entity.Food, error) {
	return m.createListingFunc(ctx, actor, in)
}

func (m *mockDirectoryService) ListFoods(ctx context.Context, filter port.FoodFilter) ([]*entity.Food, error) {
	return m.listFoodsFunc(ctx, filter)
}

func (m *mockDirectoryService) RegisterUser(ctx context.Context, in service.NewUser) (*entity.User, error) {
	return m.registerUserFunc(ctx, in)
}

func (m *mockDirectoryService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return m.getUserFunc(ctx, id)
}

func (m *mockDirectoryService) SetAccountStatus(ctx context.Context, actor lifecycle.Actor, id, status string) (*entity.User, error) {
	return m.setAccountStatusFunc(ctx, actor, id, status)
}

type mockInboxService struct {
	listFunc        func(ctx context.Context, userID string, unreadOnly bool, limit int) (*service.Inbox, error)
	markReadFunc    func(ctx context.Context, userID, notificationID string) error
	markAllReadFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *mockInboxService) List(ctx context.Context, userID string, unreadOnly bool, limit int) (*service.Inbox, error) {
	return m.listFunc(ctx, userID, unreadOnly, limit)
}

func (m *mockInboxService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return m.markReadFunc(ctx, userID, notificationID)
}

func (m *mockInboxService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return m.markAllReadFunc(ctx, userID)
}

type testServer struct {
	lifecycle *mockLifecycleService
	directory *mockDirectoryService
	inbox     *mockInboxService
	health    HealthFunc
}

func newTestServer() *testServer {
	return &testServer{
		lifecycle: &mockLifecycleService{},
		directory: &mockDirectoryService{},
		inbox:     &mockInboxService{},
	}
}

func (ts *testServer) do(t *testing.T, method, path string, actor *lifecycle.Actor, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	srv := NewServer(DefaultServerConfig(), Services{
		Lifecycle: ts.lifecycle,
		Directory: ts.directory,
		Inbox:     ts.inbox,
		Health:    ts.health,
	}, mockLogger{})

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set(HeaderUserID, actor.UserID)
		req.Header.Set(HeaderUserRole, string(actor.Role))
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

var (
	admin     = &lifecycle.Actor{UserID: "admin-1", Role: entity.RoleAdmin}
	donor     = &lifecycle.Actor{UserID: "donor-1", Role: entity.RoleDonor}
	ngo       = &lifecycle.Actor{UserID: "ngo-a", Role: entity.RoleNGO}
	volunteer = &lifecycle.Actor{UserID: "vol-1", Role: entity.RoleVolunteer}
)

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer()
		ts.health = func(context.Context) map[string]string {
			return map[string]string{"database": "healthy"}
		}
		rec, resp := ts.do(t, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("degraded", func(t *testing.T) {
		ts := newTestServer()
		ts.health = func(context.Context) map[string]string {
			return map[string]string{"database": "healthy", "redis": "unhealthy: dial tcp"}
		}
		rec, resp := ts.do(t, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, resp.Success)
	})
}

func TestRequireActor(t *testing.T) {
	tests := []struct {
		name  string
		actor *lifecycle.Actor
	}{
		{"no headers", nil},
		{"unknown role", &lifecycle.Actor{UserID: "x", Role: "mayor"}},
		{"system role", &lifecycle.Actor{UserID: "system", Role: entity.RoleSystem}},
		{"no user id", &lifecycle.Actor{Role: entity.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			rec, resp := ts.do(t, http.MethodPost, "/api/requests/req-1/approve", tt.actor, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestIntentRoutes(t *testing.T) {
	rating := 5

	tests := []struct {
		name   string
		method string
		path   string
		actor  *lifecycle.Actor
		body   interface{}
		want   lifecycle.Intent
		status int
	}{
		{
			name: "submit", method: http.MethodPost, path: "/api/foods/food-1/requests", actor: ngo,
			body:   SubmitRequestBody{Quantity: entity.Quantity{Amount: 4, Unit: "kg"}},
			want:   lifecycle.SubmitRequest{Actor: *ngo, FoodID: "food-1", Quantity: entity.Quantity{Amount: 4, Unit: "kg"}},
			status: http.StatusCreated,
		},
		{
			name: "withdraw", method: http.MethodPost, path: "/api/foods/food-1/withdraw", actor: donor,
			want: lifecycle.WithdrawListing{Actor: *donor, FoodID: "food-1"}, status: http.StatusOK,
		},
		{
			name: "expire", method: http.MethodPost, path: "/api/foods/food-1/expire", actor: admin,
			want: lifecycle.ExpireFood{Actor: *admin, FoodID: "food-1"}, status: http.StatusOK,
		},
		{
			name: "approve", method: http.MethodPost, path: "/api/requests/req-1/approve", actor: admin,
			want: lifecycle.ApproveRequest{Actor: *admin, RequestID: "req-1"}, status: http.StatusOK,
		},
		{
			name: "reject with reason", method: http.MethodPost, path: "/api/requests/req-1/reject", actor: admin,
			body: ReasonBody{Reason: "too far"},
			want: lifecycle.RejectRequest{Actor: *admin, RequestID: "req-1", Reason: "too far"}, status: http.StatusOK,
		},
		{
			name: "reject without body", method: http.MethodPost, path: "/api/requests/req-1/reject", actor: admin,
			want: lifecycle.RejectRequest{Actor: *admin, RequestID: "req-1"}, status: http.StatusOK,
		},
		{
			name: "assign", method: http.MethodPost, path: "/api/requests/req-1/assign", actor: admin,
			body: AssignBody{VolunteerID: "vol-1"},
			want: lifecycle.AssignVolunteer{Actor: *admin, RequestID: "req-1", VolunteerID: "vol-1"}, status: http.StatusCreated,
		},
		{
			name: "cancel", method: http.MethodPost, path: "/api/requests/req-1/cancel", actor: admin,
			want: lifecycle.CancelDelivery{Actor: *admin, RequestID: "req-1"}, status: http.StatusOK,
		},
		{
			name: "accept", method: http.MethodPost, path: "/api/tasks/task-1/accept", actor: volunteer,
			want: lifecycle.AcceptTask{Actor: *volunteer, TaskID: "task-1"}, status: http.StatusOK,
		},
		{
			name: "pickup", method: http.MethodPost, path: "/api/tasks/task-1/pickup", actor: volunteer,
			want: lifecycle.MarkPickedUp{Actor: *volunteer, TaskID: "task-1"}, status: http.StatusOK,
		},
		{
			name: "reached", method: http.MethodPost, path: "/api/tasks/task-1/reached", actor: volunteer,
			want: lifecycle.MarkReachedNGO{Actor: *volunteer, TaskID: "task-1"}, status: http.StatusOK,
		},
		{
			name: "confirm", method: http.MethodPost, path: "/api/tasks/task-1/confirm", actor: ngo,
			body: ConfirmBody{Rating: &rating, Feedback: "thanks"},
			want: lifecycle.ConfirmCompletion{Actor: *ngo, TaskID: "task-1", Rating: &rating, Feedback: "thanks"}, status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			var got lifecycle.Intent
			ts.lifecycle.executeFunc = func(_ context.Context, intent lifecycle.Intent) (*lifecycle.Outcome, error) {
				got = intent
				return &lifecycle.Outcome{Transition: intent.Transition(), Phase: lifecycle.PhaseOpen}, nil
			}

			rec, resp := ts.do(t, tt.method, tt.path, tt.actor, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntentReplayAnswers200(t *testing.T) {
	ts := newTestServer()
	ts.lifecycle.executeFunc = func(_ context.Context, intent lifecycle.Intent) (*lifecycle.Outcome, error) {
		return &lifecycle.Outcome{Transition: intent.Transition(), AlreadyApplied: true}, nil
	}

	rec, resp := ts.do(t, http.MethodPost, "/api/foods/food-1/requests", ngo, SubmitRequestBody{Quantity: entity.Quantity{Amount: 1}})
	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["already_applied"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"precondition", lifecycle.NewError(lifecycle.ErrPreconditionFailed, lifecycle.TransitionApproveRequest, lifecycle.EntityFood, "food-1", "food is approved"), http.StatusPreconditionFailed, "food is approved"},
		{"authorization", lifecycle.NewError(lifecycle.ErrAuthorizationFailed, lifecycle.TransitionApproveRequest, lifecycle.EntityRequest, "req-1", "admin only"), http.StatusForbidden, "admin only"},
		{"conflict", lifecycle.Conflict(lifecycle.TransitionApproveRequest, "food-1", port.ErrVersionConflict), http.StatusConflict, "concurrency conflict"},
		{"not found", lifecycle.NewError(lifecycle.ErrNotFound, lifecycle.TransitionApproveRequest, lifecycle.EntityRequest, "req-1", "no such request"), http.StatusNotFound, "no such request"},
		{"invalid", lifecycle.NewError(lifecycle.ErrInvalidIntent, lifecycle.TransitionApproveRequest, lifecycle.EntityRequest, "req-1", "bad"), http.StatusBadRequest, "bad"},
		{"invariant", lifecycle.NewError(lifecycle.ErrInvariantViolation, lifecycle.TransitionApproveRequest, lifecycle.EntityFood, "food-1", "two winners"), http.StatusInternalServerError, "two winners"},
		{"store failure", fmt.Errorf("load lot: %w", errors.New("disk I/O error")), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.lifecycle.executeFunc = func(context.Context, lifecycle.Intent) (*lifecycle.Outcome, error) {
				return nil, tt.err
			}

			rec, resp := ts.do(t, http.MethodPost, "/api/requests/req-1/approve", admin, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.message)
		})
	}
}

func TestStatusFor_StoreConflict(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("create user: %w", port.ErrVersionConflict)))
}

func TestAssignRequiresVolunteer(t *testing.T) {
	ts := newTestServer()
	rec, _ := ts.do(t, http.MethodPost, "/api/requests/req-1/assign", admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterUser(t *testing.T) {
	tests := []struct {
		name       string
		actor      *lifecycle.Actor
		wantStatus string
	}{
		{"self registration stays pending", nil, entity.AccountStatusPending},
		{"non-admin cannot pre-approve", donor, entity.AccountStatusPending},
		{"admin may pre-approve", admin, entity.AccountStatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			var got service.NewUser
			ts.directory.registerUserFunc = func(_ context.Context, in service.NewUser) (*entity.User, error) {
				got = in
				return &entity.User{ID: "u-1", Name: in.Name, Role: in.Role, AccountStatus: in.AccountStatus}, nil
			}

			rec, resp := ts.do(t, http.MethodPost, "/api/users", tt.actor, service.NewUser{
				Name:          "Food Bank",
				Role:          entity.RoleNGO,
				AccountStatus: entity.AccountStatusApproved,
			})
			assert.Equal(t, http.StatusCreated, rec.Code)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantStatus, got.AccountStatus)
		})
	}
}

func TestSetAccountStatus(t *testing.T) {
	ts := newTestServer()
	ts.directory.setAccountStatusFunc = func(_ context.Context, actor lifecycle.Actor, id, status string) (*entity.User, error) {
		assert.Equal(t, *admin, actor)
		return &entity.User{ID: id, AccountStatus: status}, nil
	}

	rec, _ := ts.do(t, http.MethodPut, "/api/users/ngo-a/status", admin, AccountStatusRequest{Status: entity.AccountStatusApproved})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodPut, "/api/users/ngo-a/status", admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateListing(t *testing.T) {
	ts := newTestServer()
	ts.directory.createListingFunc = func(_ context.Context, actor lifecycle.Actor, in service.NewListing) (*entity.Food, error) {
		assert.Equal(t, *donor, actor)
		assert.Equal(t, "Rice", in.Title)
		return &entity.Food{ID: "food-1", Title: in.Title, Status: entity.FoodStatusAvailable, Version: 1}, nil
	}

	rec, resp := ts.do(t, http.MethodPost, "/api/foods", donor, service.NewListing{Title: "Rice", Quantity: entity.Quantity{Amount: 5, Unit: "kg"}})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
}

func TestListFoods(t *testing.T) {
	ts := newTestServer()
	var got port.FoodFilter
	ts.directory.listFoodsFunc = func(_ context.Context, filter port.FoodFilter) ([]*entity.Food, error) {
		got = filter
		return nil, nil
	}

	rec, resp := ts.do(t, http.MethodGet, "/api/foods?status=available&limit=500", ngo, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, resp.Data)
	assert.Equal(t, port.FoodFilter{Status: entity.FoodStatusAvailable, Limit: 20}, got)

	rec, _ = ts.do(t, http.MethodGet, "/api/foods?status=eaten", ngo, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLifecycle(t *testing.T) {
	ts := newTestServer()
	ts.lifecycle.getLifecycleFunc = func(_ context.Context, foodID string) (*service.LifecycleView, error) {
		if foodID != "food-1" {
			return nil, lifecycle.NewError(lifecycle.ErrNotFound, "", lifecycle.EntityFood, foodID, "food does not exist")
		}
		return &service.LifecycleView{Food: &entity.Food{ID: foodID}, Phase: lifecycle.PhaseOpen}, nil
	}

	rec, resp := ts.do(t, http.MethodGet, "/api/foods/food-1", ngo, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, string(lifecycle.PhaseOpen), data["phase"])

	rec, _ = ts.do(t, http.MethodGet, "/api/foods/food-9", ngo, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListScopedRecords(t *testing.T) {
	ts := newTestServer()
	var askedNGO, askedVolunteer string
	ts.lifecycle.listRequestsFunc = func(_ context.Context, ngoID string) ([]*entity.Request, error) {
		askedNGO = ngoID
		return []*entity.Request{{ID: "req-1", NGOID: ngoID}}, nil
	}
	ts.lifecycle.listTasksFunc = func(_ context.Context, volunteerID string) ([]*entity.Task, error) {
		askedVolunteer = volunteerID
		return nil, nil
	}

	rec, _ := ts.do(t, http.MethodGet, "/api/requests?ngo_id=ngo-b", ngo, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ngo-a", askedNGO, "an NGO only sees its own requests")

	rec, _ = ts.do(t, http.MethodGet, "/api/requests?ngo_id=ngo-b", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ngo-b", askedNGO)

	rec, _ = ts.do(t, http.MethodGet, "/api/requests", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/requests", donor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := ts.do(t, http.MethodGet, "/api/tasks", volunteer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vol-1", askedVolunteer)
	assert.Equal(t, []interface{}{}, resp.Data)
}

func TestNotificationRoutes(t *testing.T) {
	ts := newTestServer()
	ts.inbox.listFunc = func(_ context.Context, userID string, unreadOnly bool, limit int) (*service.Inbox, error) {
		assert.Equal(t, "vol-1", userID)
		assert.True(t, unreadOnly)
		assert.Equal(t, 10, limit)
		return &service.Inbox{Items: []*entity.Notification{}, Unread: 3}, nil
	}
	ts.inbox.markReadFunc = func(_ context.Context, userID, id string) error {
		if id != "n-1" {
			return &lifecycle.Error{Kind: lifecycle.ErrNotFound, Entity: "notification", ID: id}
		}
		return nil
	}
	ts.inbox.markAllReadFunc = func(_ context.Context, userID string) (int64, error) {
		return 3, nil
	}

	rec, resp := ts.do(t, http.MethodGet, "/api/notifications?unread=true&limit=10", volunteer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), resp.Data.(map[string]interface{})["unread"])

	rec, _ = ts.do(t, http.MethodPost, "/api/notifications/n-1/read", volunteer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/notifications/n-2/read", volunteer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = ts.do(t, http.MethodPost, "/api/notifications/read-all", volunteer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), resp.Data.(map[string]interface{})["marked"])
}

func TestListNotifications_RejectsMalformedQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "unread is not a boolean", query: "unread=yes"},
		{name: "limit is not a number", query: "limit=abc"},
		{name: "limit is negative", query: "limit=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			called := false
			ts.inbox.listFunc = func(_ context.Context, _ string, _ bool, _ int) (*service.Inbox, error) {
				called = true
				return &service.Inbox{}, nil
			}

			rec, _ := ts.do(t, http.MethodGet, "/api/notifications?"+tt.query, volunteer, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, called)
		})
	}
}
