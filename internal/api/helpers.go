// Package api implements the HTTP/SSE surface the presentation shell talks to.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/micro-nova/piconfig-go/internal/advisory"
	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
	info   InfoFunc
}

// Controller is the interface the handlers use to drive the session.
type Controller interface {
	State() models.State
	View() advisory.View
	RefreshMountState(ctx context.Context) (models.State, *models.AppError)
	Mount(ctx context.Context) (models.State, *models.AppError)
	RefreshInterface(ctx context.Context, id models.InterfaceID) (models.State, *models.AppError)
	SetConfigured(ctx context.Context, id models.InterfaceID, desired bool) (models.State, *models.AppError)
	LoadConfigText(ctx context.Context) (models.State, *models.AppError)
	EditConfigText(text string) (models.State, *models.AppError)
	SaveConfigText(ctx context.Context) (models.State, *models.AppError)
	DiscardConfigText() (models.State, *models.AppError)
	Navigate(ctx context.Context, page models.Page) (models.State, *models.AppError)
	RequestReboot(ctx context.Context, confirm controller.Confirmer) bool
	Dismiss(seq uint64) models.State
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe() (string, <-chan models.State)
	Unsubscribe(id string)
}

// InfoFunc reports system information for GET /api/info.
type InfoFunc func() models.Info

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// writeResult answers a controller call with the resulting view or its error.
func writeResult(w http.ResponseWriter, state models.State, appErr *models.AppError) {
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, advisory.NewView(state))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) *models.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// interfaceParam reads the {id} path parameter as an interface id.
func interfaceParam(r *http.Request) (models.InterfaceID, *models.AppError) {
	id, err := models.ParseInterfaceID(chi.URLParam(r, "id"))
	if err != nil {
		return "", asAppError(err)
	}
	return id, nil
}

func asAppError(err error) *models.AppError {
	if appErr, ok := err.(*models.AppError); ok {
		return appErr
	}
	return models.ErrBadRequest(err.Error())
}
