package notify

import (
	"fmt"
	"strings"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// Text renders a notification as plain text for chat channels
func Text(n *entity.Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	if n.Message != "" {
		b.WriteString("\n")
		b.WriteString(n.Message)
	}
	if n.FoodID != "" {
		fmt.Fprintf(&b, "\nFood: %s", n.FoodID)
	}
	return b.String()
}
