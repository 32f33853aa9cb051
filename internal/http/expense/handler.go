package expense

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/subtrack/internal/expense"
	"github.com/MrJamesThe3rd/subtrack/internal/http/respond"
)

type Handler struct {
	svc *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := expense.ListFilter{
		Name:     respond.String(r, "name"),
		Currency: respond.String(r, "currency"),
	}

	var err error

	if filter.IsActive, err = respond.Bool(r, "isActive"); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if filter.Sort, err = respond.Sort(r, "name", "amount", "nextBillingDate", "isActive"); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if filter.Page, err = respond.Page(r); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCollection(res))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	categoryID, _, err := categoryRef(req.Category)
	if err != nil {
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	params := expense.CreateParams{
		Name:       deref(req.Name),
		Currency:   deref(req.Currency),
		CategoryID: categoryID,
		IsActive:   req.IsActive,
		Notes:      req.Notes,
	}

	if req.Amount != nil {
		params.Amount = *req.Amount
	}

	if req.Interval != nil {
		params.Interval = *req.Interval
	}

	if d := req.nextBillingDate(); d != nil {
		params.NextBillingDate = *d
	}

	e, err := h.svc.Create(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(e))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req expenseRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	categoryID, setCategory, err := categoryRef(req.Category)
	if err != nil {
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	e, err := h.svc.Update(r.Context(), id, expense.UpdateParams{
		Name:            req.Name,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Interval:        req.Interval,
		NextBillingDate: req.nextBillingDate(),
		SetCategory:     setCategory,
		CategoryID:      categoryID,
		IsActive:        req.IsActive,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Not Found")
		return uuid.Nil, false
	}

	return id, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, expense.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Not Found")
	case errors.Is(err, expense.ErrInvalid):
		respond.Error(w, http.StatusUnprocessableEntity, strings.TrimPrefix(err.Error(), expense.ErrInvalid.Error()+": "))
	case errors.Is(err, expense.ErrUnknownCategory):
		respond.Error(w, http.StatusUnprocessableEntity, "category: this category does not exist")
	default:
		respond.Internal(w, r, err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
