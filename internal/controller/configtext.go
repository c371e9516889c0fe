package controller

import (
	"context"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// LoadConfigText replaces the buffer with the backend's config.txt and clears
// the dirty flag.
func (c *Controller) LoadConfigText(ctx context.Context) (models.State, *models.AppError) {
	var text string
	return c.guarded(ctx,
		beginConfigText,
		func(ctx context.Context) error {
			var err error
			text, err = c.gw.GetConfigText(ctx)
			return err
		},
		func(s *models.State, err error) {
			s.ConfigText.Loading = false
			if err == nil {
				s.ConfigText.Text = text
				s.ConfigText.Original = text
				s.ConfigText.Dirty = false
				s.ConfigText.Loaded = true
			}
		},
	)
}

// EditConfigText replaces the buffer locally. Any edit marks the buffer dirty,
// even one that restores the saved text. The content is free-form and not
// validated.
func (c *Controller) EditConfigText(text string) (models.State, *models.AppError) {
	state, err := c.apply(func(s *models.State) error {
		if err := requireMounted(s); err != nil {
			return err
		}
		if s.ConfigText.Loading {
			return models.ErrBusy("configTxt")
		}
		s.ConfigText.Text = text
		s.ConfigText.Dirty = true
		return nil
	})
	if err != nil {
		return models.State{}, asAppError(err)
	}
	return state, nil
}

// SaveConfigText writes the buffer to the backend. On success the buffer is
// trusted as persisted; it is not re-fetched.
func (c *Controller) SaveConfigText(ctx context.Context) (models.State, *models.AppError) {
	var text string
	return c.guarded(ctx,
		func(s *models.State) error {
			if err := beginConfigText(s); err != nil {
				return err
			}
			text = s.ConfigText.Text
			return nil
		},
		func(ctx context.Context) error {
			return c.gw.SetConfigText(ctx, text)
		},
		func(s *models.State, err error) {
			s.ConfigText.Loading = false
			if err == nil {
				s.ConfigText.Original = text
				s.ConfigText.Dirty = false
				c.notifyLocked(s, models.SeveritySuccess, "config.txt saved")
			}
		},
	)
}

// DiscardConfigText drops unsaved edits, restoring the last loaded or saved text.
func (c *Controller) DiscardConfigText() (models.State, *models.AppError) {
	state, err := c.apply(func(s *models.State) error {
		if s.ConfigText.Loading {
			return models.ErrBusy("configTxt")
		}
		discardEdits(s)
		return nil
	})
	if err != nil {
		return models.State{}, asAppError(err)
	}
	return state, nil
}

func beginConfigText(s *models.State) error {
	if err := requireMounted(s); err != nil {
		return err
	}
	if s.ConfigText.Loading {
		return models.ErrBusy("configTxt")
	}
	s.ConfigText.Loading = true
	return nil
}

func discardEdits(s *models.State) {
	s.ConfigText.Text = s.ConfigText.Original
	s.ConfigText.Dirty = false
}
