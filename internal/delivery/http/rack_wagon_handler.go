package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/iot-project/rack-wagon-service/internal/database/usecase"
	"github.com/iot-project/rack-wagon-service/internal/logging"
	"github.com/iot-project/rack-wagon-service/internal/models"
)

// rackWagonHandler serves the single rack wagon endpoint, dispatching on the method.
type rackWagonHandler struct {
	rackWagonUseCase *usecase.RackWagonUseCase
}

func NewRackWagonHandler(r chi.Router, rackWagonUseCase *usecase.RackWagonUseCase) {
	handler := &rackWagonHandler{
		rackWagonUseCase: rackWagonUseCase,
	}

	r.Route("/rack_wagons", func(r chi.Router) {
		r.Post("/", HandlerFunc(handler.PostRackWagon).ServeHTTP)
		r.Get("/", HandlerFunc(handler.GetRack).ServeHTTP)
		r.Delete("/", HandlerFunc(handler.DeleteAll).ServeHTTP)
		r.MethodNotAllowed(HandlerFunc(methodNotAllowed).ServeHTTP)
	})
}

// PostRackWagon sets the operator limit when the body has both set_wagon_limit
// and rackId, otherwise it appends a wagon to rackId.
func (h *rackWagonHandler) PostRackWagon(w http.ResponseWriter, r *http.Request) *HandlerError {
	var req models.RackWagonRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return NewHandlerError("request body too large", http.StatusRequestEntityTooLarge)
		}
		return NewHandlerError("invalid JSON body: "+err.Error(), http.StatusBadRequest)
	}

	ctx := r.Context()
	if req.IsSetLimit() {
		res, err := h.rackWagonUseCase.SetLimit(ctx, int(*req.SetWagonLimit), *req.RackID)
		if err != nil {
			return rackWagonError(err)
		}
		logging.GetLogger().Infof("wagon limit set to %d for rack %s", *req.SetWagonLimit, *req.RackID)
		render.JSON(w, r, res)
		return nil
	}

	if req.RackID == nil {
		return rackWagonError(usecase.ErrMissingRackID)
	}

	res, err := h.rackWagonUseCase.AppendWagon(ctx, *req.RackID, req.Status)
	if err != nil {
		return rackWagonError(err)
	}
	render.JSON(w, r, res)
	return nil
}

// GetRack returns the first stored rack, or the one named by the rackId query parameter.
func (h *rackWagonHandler) GetRack(w http.ResponseWriter, r *http.Request) *HandlerError {
	var rackID *string
	if r.URL.Query().Has("rackId") {
		id := r.URL.Query().Get("rackId")
		rackID = &id
	}

	res, err := h.rackWagonUseCase.GetRack(r.Context(), rackID)
	if err != nil {
		return rackWagonError(err)
	}
	render.JSON(w, r, res)
	return nil
}

func (h *rackWagonHandler) DeleteAll(w http.ResponseWriter, r *http.Request) *HandlerError {
	res, err := h.rackWagonUseCase.DeleteAll(r.Context())
	if err != nil {
		return rackWagonError(err)
	}
	logging.GetLogger().Warn("all racks and settings deleted")
	render.JSON(w, r, res)
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) *HandlerError {
	return NewHandlerError("method not allowed", http.StatusMethodNotAllowed)
}

func rackWagonError(err error) *HandlerError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrMissingRackID):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidRackID):
		code = http.StatusForbidden
	case errors.Is(err, usecase.ErrNoRecords):
		code = http.StatusNotFound
	case errors.Is(err, usecase.ErrLimitNotConfigured),
		errors.Is(err, usecase.ErrLimitReached),
		errors.Is(err, usecase.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	return NewHandlerError(err.Error(), code)
}
