package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/edgard/goodlifebot/internal/domain"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks struct constraints plus the cross-field rules validator
// tags cannot express.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	seen := make(map[string]bool, len(c.Session.Regions))
	for _, r := range c.Session.Regions {
		if seen[r.Label] {
			return fmt.Errorf("%w: duplicate region label %q", ErrConfiguration, r.Label)
		}
		seen[r.Label] = true
	}

	buttons := []string{c.Buttons.Launch, c.Buttons.ChangeTime, c.Buttons.Stop, c.Buttons.Skip, c.Buttons.Back}
	for _, b := range buttons {
		if seen[b] {
			return fmt.Errorf("%w: button %q collides with a region label", ErrConfiguration, b)
		}
	}

	for name, task := range c.Scheduler.Tasks {
		if !task.Enabled {
			continue
		}
		if _, err := cron.ParseStandard(task.Schedule); err != nil {
			return fmt.Errorf("%w: task %q has invalid schedule %q: %v", ErrConfiguration, name, task.Schedule, err)
		}
	}

	return nil
}

// Regions converts the configured regions for domain.NewZones.
func (c *Config) Regions() []domain.Region {
	out := make([]domain.Region, 0, len(c.Session.Regions))
	for _, r := range c.Session.Regions {
		out = append(out, domain.Region{Label: r.Label, Zone: r.Timezone})
	}
	return out
}
