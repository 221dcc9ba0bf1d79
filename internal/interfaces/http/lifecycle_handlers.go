package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

// SubmitRequestBody is the body of POST /api/foods/:id/requests
type SubmitRequestBody struct {
	Quantity entity.Quantity `json:"quantity"`
}

// ReasonBody is the optional body of reject and cancel
type ReasonBody struct {
	Reason string `json:"reason"`
}

// AssignBody is the body of POST /api/requests/:id/assign
type AssignBody struct {
	VolunteerID string `json:"volunteer_id" binding:"required"`
}

// ConfirmBody is the optional body of POST /api/tasks/:id/confirm
type ConfirmBody struct {
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
}

// execute runs one intent and writes the outcome. A newly created request or
// task answers 201; a replay answers 200 with already_applied set.
func (h *Handlers) execute(c *gin.Context, intent lifecycle.Intent) {
	out, err := h.lifecycle.Execute(c.Request.Context(), intent)
	if err != nil {
		h.respondError(c, intent.Transition().String(), err)
		return
	}

	status := http.StatusOK
	if !out.AlreadyApplied {
		switch intent.Transition() {
		case lifecycle.TransitionSubmitRequest, lifecycle.TransitionAssignVolunteer:
			status = http.StatusCreated
		}
	}
	c.JSON(status, Response{Success: true, Data: out})
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// SubmitRequest handles POST /api/foods/:id/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if !bindOptional(c, &body) {
		return
	}
	h.execute(c, lifecycle.SubmitRequest{Actor: actorFrom(c), FoodID: c.Param("id"), Quantity: body.Quantity})
}

// WithdrawListing handles POST /api/foods/:id/withdraw
func (h *Handlers) WithdrawListing(c *gin.Context) {
	h.execute(c, lifecycle.WithdrawListing{Actor: actorFrom(c), FoodID: c.Param("id")})
}

// ExpireFood handles POST /api/foods/:id/expire
func (h *Handlers) ExpireFood(c *gin.Context) {
	h.execute(c, lifecycle.ExpireFood{Actor: actorFrom(c), FoodID: c.Param("id")})
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.execute(c, lifecycle.ApproveRequest{Actor: actorFrom(c), RequestID: c.Param("id")})
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	var body ReasonBody
	if !bindOptional(c, &body) {
		return
	}
	h.execute(c, lifecycle.RejectRequest{Actor: actorFrom(c), RequestID: c.Param("id"), Reason: body.Reason})
}

// AssignVolunteer handles POST /api/requests/:id/assign
func (h *Handlers) AssignVolunteer(c *gin.Context) {
	var body AssignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.execute(c, lifecycle.AssignVolunteer{Actor: actorFrom(c), RequestID: c.Param("id"), VolunteerID: body.VolunteerID})
}

// CancelDelivery handles POST /api/requests/:id/cancel
func (h *Handlers) CancelDelivery(c *gin.Context) {
	var body ReasonBody
	if !bindOptional(c, &body) {
		return
	}
	h.execute(c, lifecycle.CancelDelivery{Actor: actorFrom(c), RequestID: c.Param("id"), Reason: body.Reason})
}

// AcceptTask handles POST /api/tasks/:id/accept
func (h *Handlers) AcceptTask(c *gin.Context) {
	h.execute(c, lifecycle.AcceptTask{Actor: actorFrom(c), TaskID: c.Param("id")})
}

// MarkPickedUp handles POST /api/tasks/:id/pickup
func (h *Handlers) MarkPickedUp(c *gin.Context) {
	h.execute(c, lifecycle.MarkPickedUp{Actor: actorFrom(c), TaskID: c.Param("id")})
}

// MarkReachedNGO handles POST /api/tasks/:id/reached
func (h *Handlers) MarkReachedNGO(c *gin.Context) {
	h.execute(c, lifecycle.MarkReachedNGO{Actor: actorFrom(c), TaskID: c.Param("id")})
}

// ConfirmCompletion handles POST /api/tasks/:id/confirm
func (h *Handlers) ConfirmCompletion(c *gin.Context) {
	var body ConfirmBody
	if !bindOptional(c, &body) {
		return
	}
	h.execute(c, lifecycle.ConfirmCompletion{
		Actor:    actorFrom(c),
		TaskID:   c.Param("id"),
		Rating:   body.Rating,
		Feedback: body.Feedback,
	})
}
