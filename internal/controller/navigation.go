package controller

import (
	"context"

	"github.com/micro-nova/piconfig-go/internal/models"
)

// Navigate switches the page shown by the presentation shell.
func (c *Controller) Navigate(ctx context.Context, page models.Page) (models.State, *models.AppError) {
	switch page {
	case models.PageEditConfigTxt:
		return c.ShowEditConfigText(ctx)
	case models.PageMenu:
		return c.ShowMenu(), nil
	}
	return models.State{}, models.ErrBadRequest("unknown page " + string(page))
}

// ShowEditConfigText loads config.txt and opens the editor. If the load
// fails the page does not change.
func (c *Controller) ShowEditConfigText(ctx context.Context) (models.State, *models.AppError) {
	if _, appErr := c.LoadConfigText(ctx); appErr != nil {
		return models.State{}, appErr
	}
	state, _ := c.apply(func(s *models.State) error {
		s.Page = models.PageEditConfigTxt
		return nil
	})
	return state, nil
}

// ShowMenu returns to the menu. Leaving the editor without saving discards
// the unsaved edits, unless a save is still in flight.
func (c *Controller) ShowMenu() models.State {
	state, _ := c.apply(func(s *models.State) error {
		if s.Page == models.PageEditConfigTxt && !s.ConfigText.Loading {
			discardEdits(s)
		}
		s.Page = models.PageMenu
		return nil
	})
	return state
}
