package cli

import "github.com/rcliao/agent-memory/internal/model"

// categoryOf converts a free-text category flag/field to model.Category,
// leaving it empty (Core defaults to "conversation") when unrecognized.
func categoryOf(s string) model.Category {
	c := model.Category(s)
	if model.ValidCategories[c] {
		return c
	}
	return ""
}
