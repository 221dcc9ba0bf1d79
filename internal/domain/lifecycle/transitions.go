package lifecycle

import (
	"time"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/workflow"
)

func (ch *change) submit(in SubmitRequest) error {
	if err := ch.requireRole(in.Actor, entity.RoleNGO); err != nil {
		return err
	}
	ngo, err := ch.user(in.Actor.UserID)
	if err != nil {
		return err
	}

	qty := in.Quantity
	if qty.Unit == "" {
		qty.Unit = ch.food.Quantity.Unit
	}
	if qty.Unit != ch.food.Quantity.Unit {
		return ch.fail(ErrInvalidIntent, EntityFood, ch.food.ID, "unit %q does not match food unit %q", qty.Unit, ch.food.Quantity.Unit)
	}

	// A replay finds the request it created earlier
	for _, r := range ch.requests {
		if r.NGOID != ngo.ID || !r.Status.IsActive() {
			continue
		}
		if r.Quantity == qty {
			return ch.alreadyApplied(r, ch.taskFor(r.ID))
		}
		return ch.fail(ErrPreconditionFailed, EntityRequest, r.ID, "ngo already has a %s request for this food", r.Status)
	}

	if !ngo.IsApproved() {
		return ch.fail(ErrPreconditionFailed, EntityUser, ngo.ID, "ngo account is %s", ngo.AccountStatus)
	}
	if ch.food.IsExpired(ch.now) {
		return ch.fail(ErrPreconditionFailed, EntityFood, ch.food.ID, "food expired at %s", ch.food.ExpiresAt.Format(time.RFC3339))
	}
	if qty.Amount > ch.food.Quantity.Amount {
		return ch.fail(ErrPreconditionFailed, EntityFood, ch.food.ID, "requested %s exceeds offered %s", quantity(qty), quantity(ch.food.Quantity))
	}
	if err := ch.moveFood(ch.ctx, workflow.TriggerSubmit); err != nil {
		return err
	}

	r := &entity.Request{
		ID:        ch.c.newID(),
		FoodID:    ch.food.ID,
		NGOID:     ngo.ID,
		Quantity:  qty,
		Status:    entity.RequestStatusPending,
		Version:   1,
		CreatedAt: ch.now,
		UpdatedAt: ch.now,
	}
	ch.addRequest(r)
	ch.request = r

	ch.notify(r, nil, submittedMessages(ch.food, r)...)
	return nil
}

func (ch *change) approve(in ApproveRequest) error {
	if err := ch.requireRole(in.Actor, entity.RoleAdmin); err != nil {
		return err
	}
	r, err := ch.requestByID(in.RequestID)
	if err != nil {
		return err
	}
	if r.Status.IsWinning() {
		return ch.alreadyApplied(r, ch.taskFor(r.ID))
	}
	if r.Status != entity.RequestStatusPending {
		return ch.fail(ErrPreconditionFailed, EntityRequest, r.ID, "request is %s", r.Status)
	}
	if winners := ch.siblings(r, entity.RequestStatus.IsWinning); len(winners) > 0 {
		return ch.fail(ErrPreconditionFailed, EntityFood, ch.food.ID, "food is no longer requestable: request %s was approved", winners[0].ID)
	}

	if err := ch.moveFood(ch.ctx, workflow.TriggerApprove); err != nil {
		return err
	}
	if err := ch.moveRequest(r, workflow.TriggerApprove); err != nil {
		return err
	}
	ch.request = r
	ch.notify(r, nil, approvedMessage(ch.food, r))

	for _, sibling := range ch.siblings(r, isPending) {
		if err := ch.rejectWith(sibling, workflow.TriggerSupersede, entity.RejectReasonSiblingApproved); err != nil {
			return err
		}
		ch.superseded = append(ch.superseded, sibling.ID)
		ch.notify(sibling, nil, rejectedMessage(ch.food, sibling))
	}
	return nil
}

func (ch *change) reject(in RejectRequest) error {
	if err := ch.requireRole(in.Actor, entity.RoleAdmin); err != nil {
		return err
	}
	r, err := ch.requestByID(in.RequestID)
	if err != nil {
		return err
	}
	if r.Status == entity.RequestStatusRejected {
		return ch.alreadyApplied(r, ch.taskFor(r.ID))
	}

	if err := ch.rejectWith(r, workflow.TriggerReject, entity.RejectReasonAdmin); err != nil {
		return err
	}
	r.RejectionNote = in.Reason

	last := len(ch.siblings(r, entity.RequestStatus.IsActive)) == 0
	if err := ch.moveFood(withLastActive(ch.ctx, last), workflow.TriggerReject); err != nil {
		return err
	}

	ch.request = r
	ch.notify(r, nil, rejectedMessage(ch.food, r))
	return nil
}

func (ch *change) assign(in AssignVolunteer) error {
	if err := ch.requireRole(in.Actor, entity.RoleAdmin); err != nil {
		return err
	}
	r, err := ch.requestByID(in.RequestID)
	if err != nil {
		return err
	}

	if existing := ch.taskFor(r.ID); existing != nil {
		if existing.VolunteerID == in.VolunteerID && existing.Status != entity.TaskStatusCancelled {
			return ch.alreadyApplied(r, existing)
		}
		return ch.fail(ErrPreconditionFailed, EntityTask, existing.ID, "request already has a %s task", existing.Status)
	}
	if r.Status != entity.RequestStatusApproved {
		return ch.fail(ErrPreconditionFailed, EntityRequest, r.ID, "request is %s", r.Status)
	}

	volunteer, err := ch.user(in.VolunteerID)
	if err != nil {
		return err
	}
	if volunteer.Role != entity.RoleVolunteer {
		return ch.fail(ErrPreconditionFailed, EntityUser, volunteer.ID, "user is a %s, not a volunteer", volunteer.Role)
	}
	if !volunteer.IsApproved() {
		return ch.fail(ErrPreconditionFailed, EntityUser, volunteer.ID, "volunteer account is %s", volunteer.AccountStatus)
	}

	t := &entity.Task{
		ID:          ch.c.newID(),
		RequestID:   r.ID,
		VolunteerID: volunteer.ID,
		Status:      entity.TaskStatusAssigned,
		AssignedAt:  ch.now,
		Version:     1,
		CreatedAt:   ch.now,
		UpdatedAt:   ch.now,
	}
	ch.addTask(t)
	ch.request = r
	ch.task = t

	ch.notify(r, t, assignedMessages(ch.food, r, t)...)
	return nil
}

// advance moves a task one step along its progression on behalf of its volunteer.
// Pickup and arrival drag the food status along.
func (ch *change) advance(actor Actor, taskID string, target entity.TaskStatus, trigger workflow.Trigger) error {
	if err := ch.requireRole(actor, entity.RoleVolunteer); err != nil {
		return err
	}
	t, err := ch.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.VolunteerID != actor.UserID {
		return ch.fail(ErrAuthorizationFailed, EntityTask, t.ID, "task is assigned to another volunteer")
	}
	r, err := ch.requestByID(t.RequestID)
	if err != nil {
		return err
	}

	if t.Status != entity.TaskStatusCancelled && t.Status.Step() >= target.Step() {
		return ch.alreadyApplied(r, t)
	}
	if prev, ok := target.Previous(); ok && t.Status != entity.TaskStatusCancelled && t.Status != prev {
		return ch.fail(ErrPreconditionFailed, EntityTask, t.ID, "task is %s; %s must come first", t.Status, prev)
	}
	if err := ch.moveTask(t, trigger); err != nil {
		return err
	}

	switch target {
	case entity.TaskStatusPickedUp, entity.TaskStatusReachedNGO:
		if err := ch.moveFood(ch.ctx, trigger); err != nil {
			return err
		}
	}

	ch.request = r
	ch.task = t
	ch.notify(r, t, progressMessages(ch.food, r, t)...)
	return nil
}

func (ch *change) confirm(in ConfirmCompletion) error {
	if err := ch.requireRole(in.Actor, entity.RoleNGO); err != nil {
		return err
	}
	t, err := ch.taskByID(in.TaskID)
	if err != nil {
		return err
	}
	r, err := ch.requestByID(t.RequestID)
	if err != nil {
		return err
	}
	if r.NGOID != in.Actor.UserID {
		return ch.fail(ErrAuthorizationFailed, EntityRequest, r.ID, "only the requesting ngo may confirm receipt")
	}
	if t.Status == entity.TaskStatusCompleted {
		return ch.alreadyApplied(r, t)
	}

	if err := ch.moveTask(t, workflow.TriggerConfirm); err != nil {
		return err
	}
	if err := ch.moveRequest(r, workflow.TriggerConfirm); err != nil {
		return err
	}
	if err := ch.moveFood(ch.ctx, workflow.TriggerConfirm); err != nil {
		return err
	}
	if in.Rating != nil {
		rating := *in.Rating
		r.Rating = &rating
	}
	r.Feedback = in.Feedback

	ch.request = r
	ch.task = t
	ch.notify(r, t, completedMessages(ch.food, t)...)
	return nil
}

func (ch *change) expire(in ExpireFood) error {
	if err := ch.requireRole(in.Actor, entity.RoleSystem, entity.RoleAdmin); err != nil {
		return err
	}
	if ch.food.Status == entity.FoodStatusExpired {
		return ch.alreadyApplied(nil, nil)
	}
	if !ch.food.IsExpired(ch.now) {
		if !ch.food.Status.IsRequestable() {
			return ch.fail(ErrPreconditionFailed, EntityFood, ch.food.ID, "food is %s", ch.food.Status)
		}
		return ch.fail(ErrPreconditionFailed, EntityFood, ch.food.ID, "food expires at %s", ch.food.ExpiresAt.Format(time.RFC3339))
	}

	if err := ch.moveFood(ch.ctx, workflow.TriggerExpire); err != nil {
		return err
	}
	for _, r := range ch.siblings(nil, isPending) {
		if err := ch.rejectWith(r, workflow.TriggerExpire, entity.RejectReasonExpired); err != nil {
			return err
		}
		ch.superseded = append(ch.superseded, r.ID)
		ch.notify(r, nil, rejectedMessage(ch.food, r))
	}

	ch.notify(nil, nil, expiredMessage(ch.food))
	return nil
}

func (ch *change) cancel(in CancelDelivery) error {
	if err := ch.requireRole(in.Actor, entity.RoleAdmin); err != nil {
		return err
	}
	r, err := ch.requestByID(in.RequestID)
	if err != nil {
		return err
	}
	t := ch.taskFor(r.ID)

	if r.Status == entity.RequestStatusRejected && r.RejectionReason == entity.RejectReasonCancelled {
		return ch.alreadyApplied(r, t)
	}
	if r.Status != entity.RequestStatusApproved {
		return ch.fail(ErrPreconditionFailed, EntityRequest, r.ID, "request is %s", r.Status)
	}

	if t.IsLive() {
		if err := ch.moveTask(t, workflow.TriggerCancel); err != nil {
			return err
		}
	}
	if err := ch.rejectWith(r, workflow.TriggerCancel, entity.RejectReasonCancelled); err != nil {
		return err
	}
	r.RejectionNote = in.Reason
	if err := ch.moveFood(ch.ctx, workflow.TriggerCancel); err != nil {
		return err
	}

	ch.request = r
	ch.task = t
	ch.notify(r, t, cancelledMessages(ch.food, r, t, in.Reason)...)
	return nil
}

func (ch *change) withdraw(in WithdrawListing) error {
	if err := ch.requireRole(in.Actor, entity.RoleDonor, entity.RoleAdmin); err != nil {
		return err
	}
	if in.Actor.Role == entity.RoleDonor && ch.food.DonorID != in.Actor.UserID {
		return ch.fail(ErrAuthorizationFailed, EntityFood, ch.food.ID, "only the donor who listed the food may withdraw it")
	}
	if ch.food.Status == entity.FoodStatusCancelled {
		// A lot cancelled after it left the donor was never withdrawn
		if ch.leftDonor() {
			return ch.fail(ErrPreconditionFailed, EntityFood, ch.food.ID, "food was cancelled during delivery")
		}
		return ch.alreadyApplied(nil, nil)
	}

	if err := ch.moveFood(ch.ctx, workflow.TriggerWithdraw); err != nil {
		return err
	}
	for _, r := range ch.siblings(nil, isPending) {
		if err := ch.rejectWith(r, workflow.TriggerWithdraw, entity.RejectReasonWithdrawn); err != nil {
			return err
		}
		ch.superseded = append(ch.superseded, r.ID)
		ch.notify(r, nil, withdrawnMessage(ch.food, r))
	}
	return nil
}

// leftDonor reports whether any delivery of the lot got as far as pickup
func (ch *change) leftDonor() bool {
	for _, t := range ch.tasks {
		if t.PickedUpAt != nil {
			return true
		}
	}
	return false
}
