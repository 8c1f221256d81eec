package http

import (
	"net/http"

	domain "mediatheque/internal/domain/subscriber"
	"mediatheque/internal/usecase/subscriber"

	"github.com/labstack/echo/v4"
)

type SubscriberHandler struct{ uc *subscriber.Usecase }

func NewSubscriberHandler(uc *subscriber.Usecase) *SubscriberHandler {
	return &SubscriberHandler{uc: uc}
}

type createSubscriberReq struct {
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Address   string `json:"address" validate:"required,notblank"`
	Phone     string `json:"phone" validate:"required,min=8"`
}

type updateSubscriberReq struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Address   *string `json:"address" validate:"omitempty,notblank"`
	Phone     *string `json:"phone" validate:"omitempty,min=8"`
}

func (h *SubscriberHandler) List(c echo.Context) error {
	p := readPage(c)
	items, total, err := h.uc.List(c.Request().Context(), p.Page, p.PerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newPage(items, total, p))
}

func (h *SubscriberHandler) Create(c echo.Context) error {
	var req createSubscriberReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	s, err := h.uc.Create(c.Request().Context(), subscriber.CreateInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, message[*domain.Subscriber]{Message: "Subscriber created successfully", Data: s})
}

func (h *SubscriberHandler) Get(c echo.Context) error {
	subscriberID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	s, err := h.uc.Get(c.Request().Context(), subscriberID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SubscriberHandler) Update(c echo.Context) error {
	subscriberID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateSubscriberReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	s, err := h.uc.Update(c.Request().Context(), subscriberID, subscriber.UpdateInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[*domain.Subscriber]{Message: "Subscriber updated successfully", Data: s})
}

func (h *SubscriberHandler) Delete(c echo.Context) error {
	subscriberID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), subscriberID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[any]{Message: "Subscriber deleted successfully"})
}

// Reconcile rebuilds the subscriber's loan arrays from the loan records.
func (h *SubscriberHandler) Reconcile(c echo.Context) error {
	subscriberID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	s, err := h.uc.Reconcile(c.Request().Context(), subscriberID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[*domain.Subscriber]{Message: "Subscriber reconciled", Data: s})
}
