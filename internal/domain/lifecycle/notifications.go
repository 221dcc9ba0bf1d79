package lifecycle

import (
	"fmt"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// message is one notification before ids and timestamps are assigned
type message struct {
	userID   string
	category entity.Category
	title    string
	body     string
}

func quantity(q entity.Quantity) string {
	if q.Unit == "" {
		return fmt.Sprintf("%g", q.Amount)
	}
	return fmt.Sprintf("%g %s", q.Amount, q.Unit)
}

func submittedMessages(food *entity.Food, r *entity.Request) []message {
	return []message{
		{
			userID:   r.NGOID,
			category: entity.CategoryRequestSubmitted,
			title:    "Request submitted",
			body:     fmt.Sprintf("Your request for %s of %q is waiting for review.", quantity(r.Quantity), food.Title),
		},
		{
			userID:   food.DonorID,
			category: entity.CategoryRequestReceived,
			title:    "New request for your donation",
			body:     fmt.Sprintf("An NGO requested %s of %q.", quantity(r.Quantity), food.Title),
		},
	}
}

func approvedMessage(food *entity.Food, r *entity.Request) message {
	return message{
		userID:   r.NGOID,
		category: entity.CategoryRequestApproved,
		title:    "Request approved",
		body:     fmt.Sprintf("Your request for %q was approved. A volunteer will be assigned shortly.", food.Title),
	}
}

func rejectedMessage(food *entity.Food, r *entity.Request) message {
	var body string
	switch r.RejectionReason {
	case entity.RejectReasonSiblingApproved:
		body = fmt.Sprintf("%q was allocated to another organisation.", food.Title)
	case entity.RejectReasonExpired:
		body = fmt.Sprintf("%q expired before your request could be approved.", food.Title)
	case entity.RejectReasonAdmin:
		if r.RejectionNote != "" {
			body = fmt.Sprintf("Your request for %q was rejected: %s.", food.Title, r.RejectionNote)
		} else {
			body = fmt.Sprintf("Your request for %q was rejected.", food.Title)
		}
	default:
		body = fmt.Sprintf("Your request for %q was rejected.", food.Title)
	}
	return message{
		userID:   r.NGOID,
		category: entity.CategoryRequestRejected,
		title:    "Request rejected",
		body:     body,
	}
}

func assignedMessages(food *entity.Food, r *entity.Request, t *entity.Task) []message {
	return []message{
		{
			userID:   t.VolunteerID,
			category: entity.CategoryTaskAssigned,
			title:    "New delivery task",
			body:     fmt.Sprintf("Pick up %q at %s.", food.Title, food.Pickup.Address),
		},
		{
			userID:   r.NGOID,
			category: entity.CategoryTaskUpdate,
			title:    "Volunteer assigned",
			body:     fmt.Sprintf("A volunteer has been assigned to deliver %q.", food.Title),
		},
	}
}

func progressMessages(food *entity.Food, r *entity.Request, t *entity.Task) []message {
	switch t.Status {
	case entity.TaskStatusAccepted:
		return []message{
			{r.NGOID, entity.CategoryTaskUpdate, "Delivery accepted", fmt.Sprintf("The volunteer accepted the delivery of %q.", food.Title)},
			{food.DonorID, entity.CategoryTaskUpdate, "Pickup scheduled", fmt.Sprintf("A volunteer will collect %q.", food.Title)},
		}
	case entity.TaskStatusPickedUp:
		return []message{
			{r.NGOID, entity.CategoryTaskUpdate, "Food picked up", fmt.Sprintf("%q is on its way.", food.Title)},
			{food.DonorID, entity.CategoryTaskUpdate, "Food collected", fmt.Sprintf("%q was collected by the volunteer.", food.Title)},
		}
	case entity.TaskStatusReachedNGO:
		return []message{
			{r.NGOID, entity.CategoryConfirmDelivery, "Please confirm delivery", fmt.Sprintf("The volunteer has arrived with %q. Confirm receipt to complete the donation.", food.Title)},
		}
	}
	return nil
}

func completedMessages(food *entity.Food, t *entity.Task) []message {
	return []message{
		{t.VolunteerID, entity.CategoryDonationCompleted, "Delivery completed", fmt.Sprintf("The NGO confirmed receipt of %q. Thank you!", food.Title)},
		{food.DonorID, entity.CategoryDonationCompleted, "Donation completed", fmt.Sprintf("%q reached its destination.", food.Title)},
	}
}

func expiredMessage(food *entity.Food) message {
	return message{
		userID:   food.DonorID,
		category: entity.CategoryFoodExpired,
		title:    "Listing expired",
		body:     fmt.Sprintf("%q expired and is no longer offered.", food.Title),
	}
}

func cancelledMessages(food *entity.Food, r *entity.Request, t *entity.Task, reason string) []message {
	suffix := "."
	if reason != "" {
		suffix = ": " + reason + "."
	}

	msgs := []message{
		{r.NGOID, entity.CategoryDeliveryCancelled, "Delivery cancelled", fmt.Sprintf("The delivery of %q was cancelled%s", food.Title, suffix)},
		{food.DonorID, entity.CategoryDeliveryCancelled, "Delivery cancelled", fmt.Sprintf("The delivery of %q was cancelled%s", food.Title, suffix)},
	}
	if t != nil {
		msgs = append(msgs, message{t.VolunteerID, entity.CategoryDeliveryCancelled, "Task cancelled", fmt.Sprintf("Your task for %q was cancelled%s", food.Title, suffix)})
	}
	return msgs
}

func withdrawnMessage(food *entity.Food, r *entity.Request) message {
	return message{
		userID:   r.NGOID,
		category: entity.CategoryListingWithdrawn,
		title:    "Listing withdrawn",
		body:     fmt.Sprintf("The donor withdrew %q.", food.Title),
	}
}
