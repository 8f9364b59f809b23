package domain

import (
	"fmt"
	"strings"
	"time"
)

// Campaign is a named email send definition. The name is the lookup key:
// exactly one campaign row exists per distinct name.
type Campaign struct {
	ID              string
	Name            string
	SubjectTemplate string
	BodyTemplate    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: campaign name is required", ErrValidation)
	}
	if strings.TrimSpace(c.SubjectTemplate) == "" {
		return fmt.Errorf("%w: subject template is required", ErrValidation)
	}
	if strings.TrimSpace(c.BodyTemplate) == "" {
		return fmt.Errorf("%w: body template is required", ErrValidation)
	}
	return nil
}
