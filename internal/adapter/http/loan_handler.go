package http

import (
	"net/http"
	"strings"
	"time"

	domain "mediatheque/internal/domain/loan"
	"mediatheque/internal/usecase/loan"
	"mediatheque/pkg/id"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	SubscriberID string     `json:"subscriber_id" validate:"required,hex32"`
	DocumentID   string     `json:"document_id" validate:"required,hex32"`
	LoanDate     *time.Time `json:"loan_date"`
	DueDate      *time.Time `json:"due_date"`
}

type extendLoanReq struct {
	Days *int `json:"days" validate:"omitempty,gte=1,lte=365"`
}

func (h *LoanHandler) List(c echo.Context) error {
	p := readPage(c)
	in := loan.ListInput{
		Page:         p.Page,
		PerPage:      p.PerPage,
		Status:       domain.Status(strings.TrimSpace(c.QueryParam("status"))),
		SubscriberID: strings.TrimSpace(c.QueryParam("subscriber_id")),
		DocumentID:   strings.TrimSpace(c.QueryParam("document_id")),
	}
	for _, ref := range []string{in.SubscriberID, in.DocumentID} {
		if ref != "" && !id.Valid(ref) {
			return respondError(c, errInvalidID)
		}
	}
	items, total, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newPage(items, total, p))
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	l, err := h.uc.Create(c.Request().Context(), loan.CreateInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, message[*domain.Loan]{Message: "Loan created successfully", Data: l})
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	l, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ReturnLoan(c echo.Context) error {
	loanID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	l, err := h.uc.Return(c.Request().Context(), loanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[*domain.Loan]{Message: "Loan returned successfully", Data: l})
}

// ExtendLoan accepts an optional {"days": n}; an empty body uses the default.
func (h *LoanHandler) ExtendLoan(c echo.Context) error {
	loanID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req extendLoanReq
	if c.Request().ContentLength != 0 {
		if ok, err := bindValid(c, &req); !ok {
			return err
		}
	}
	l, err := h.uc.Extend(c.Request().Context(), loanID, req.Days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[*domain.Loan]{Message: "Loan extended successfully", Data: l})
}

func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	loanID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), loanID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[any]{Message: "Loan deleted successfully"})
}
