package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// Version is reported by the health check
const Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	lifecycle service.LifecycleService
	directory service.DirectoryService
	inbox     service.InboxService
	health    HealthFunc
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		lifecycle: services.Lifecycle,
		directory: services.Directory,
		inbox:     services.Inbox,
		health:    services.Health,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// ListFoodsRequest represents query parameters for listing foods
type ListFoodsRequest struct {
	Status  string `form:"status"`
	DonorID string `form:"donor_id"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

// ListNotificationsRequest represents query parameters for the inbox
type ListNotificationsRequest struct {
	Unread bool `form:"unread"`
	Limit  int  `form:"limit" binding:"min=0"`
}

// AccountStatusRequest is the body of PUT /api/users/:id/status
type AccountStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}
	status := http.StatusOK

	if h.health != nil {
		resp.Components = h.health(c.Request.Context())
		for _, v := range resp.Components {
			if v != "healthy" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
	}

	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

// RegisterUser handles POST /api/users. Only an admin caller may create an
// account that is already vetted.
func (h *Handlers) RegisterUser(c *gin.Context) {
	var in service.NewUser
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	if actor, ok := actorFromHeaders(c); !ok || actor.Role != entity.RoleAdmin {
		in.AccountStatus = entity.AccountStatusPending
	}

	user, err := h.directory.RegisterUser(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "register_user", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// GetUser handles GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.directory.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get_user", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// SetAccountStatus handles PUT /api/users/:id/status
func (h *Handlers) SetAccountStatus(c *gin.Context) {
	var req AccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.directory.SetAccountStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, "set_account_status", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user})
}

// CreateListing handles POST /api/foods
func (h *Handlers) CreateListing(c *gin.Context) {
	var in service.NewListing
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	food, err := h.directory.CreateListing(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		h.respondError(c, "create_listing", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: food})
}

// ListFoods handles GET /api/foods
func (h *Handlers) ListFoods(c *gin.Context) {
	var req ListFoodsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	status := entity.FoodStatus(req.Status)
	if status != "" && !status.IsValid() {
		badRequest(c, "unknown food status: "+req.Status)
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	foods, err := h.directory.ListFoods(c.Request.Context(), port.FoodFilter{
		Status:  status,
		DonorID: req.DonorID,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		h.respondError(c, "list_foods", err)
		return
	}
	if foods == nil {
		foods = []*entity.Food{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: foods})
}

// GetLifecycle handles GET /api/foods/:id
func (h *Handlers) GetLifecycle(c *gin.Context) {
	view, err := h.lifecycle.GetLifecycle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get_lifecycle", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// ListRequests handles GET /api/requests. NGOs see their own requests;
// admins may pass ngo_id.
func (h *Handlers) ListRequests(c *gin.Context) {
	ngoID, ok := h.scopedUser(c, entity.RoleNGO, "ngo_id")
	if !ok {
		return
	}

	requests, err := h.lifecycle.ListRequestsByNGO(c.Request.Context(), ngoID)
	if err != nil {
		h.respondError(c, "list_requests", err)
		return
	}
	if requests == nil {
		requests = []*entity.Request{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// ListTasks handles GET /api/tasks. Volunteers see their own tasks;
// admins may pass volunteer_id.
func (h *Handlers) ListTasks(c *gin.Context) {
	volunteerID, ok := h.scopedUser(c, entity.RoleVolunteer, "volunteer_id")
	if !ok {
		return
	}

	tasks, err := h.lifecycle.ListTasksByVolunteer(c.Request.Context(), volunteerID)
	if err != nil {
		h.respondError(c, "list_tasks", err)
		return
	}
	if tasks == nil {
		tasks = []*entity.Task{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: tasks})
}

// scopedUser resolves whose records a list call reads
func (h *Handlers) scopedUser(c *gin.Context, owner entity.Role, param string) (string, bool) {
	actor := actorFrom(c)
	switch actor.Role {
	case owner:
		return actor.UserID, true
	case entity.RoleAdmin:
		id := c.Query(param)
		if id == "" {
			badRequest(c, param+" is required")
			return "", false
		}
		return id, true
	default:
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "role " + actor.Role.String() + " cannot list these records"})
		return "", false
	}
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	var req ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	inbox, err := h.inbox.List(c.Request.Context(), actorFrom(c).UserID, req.Unread, req.Limit)
	if err != nil {
		h.respondError(c, "list_notifications", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inbox})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.inbox.MarkRead(c.Request.Context(), actorFrom(c).UserID, c.Param("id")); err != nil {
		h.respondError(c, "mark_notification_read", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.inbox.MarkAllRead(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.respondError(c, "mark_all_notifications_read", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"marked": n}})
}
