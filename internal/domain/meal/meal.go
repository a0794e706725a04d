// Package meal models meal log entries.
package meal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMeal marks a meal missing its menu or user.
var ErrInvalidMeal = errors.New("invalid meal")

// Meal is a stored meal record.
type Meal struct {
	ID        string    `json:"id"`
	Menu      string    `json:"menu"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is a meal before it is stored.
type Draft struct {
	Menu string
	User string
}

// Validate trims the draft in place and checks both fields are present.
func (d *Draft) Validate() error {
	d.Menu = strings.TrimSpace(d.Menu)
	d.User = strings.TrimSpace(d.User)
	switch {
	case d.Menu == "":
		return fmt.Errorf("%w: menu is required", ErrInvalidMeal)
	case d.User == "":
		return fmt.Errorf("%w: user is required", ErrInvalidMeal)
	}
	return nil
}
