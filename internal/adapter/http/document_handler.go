package http

import (
	"net/http"
	"strings"
	"time"

	domain "mediatheque/internal/domain/document"
	"mediatheque/internal/usecase/document"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

type DocumentHandler struct{ uc *document.Usecase }

func NewDocumentHandler(uc *document.Usecase) *DocumentHandler { return &DocumentHandler{uc: uc} }

type createDocumentReq struct {
	Title           string `json:"title" validate:"required,notblank"`
	Author          string `json:"author" validate:"required,notblank"`
	Type            string `json:"type" validate:"required,oneof=book magazine dvd"`
	ISBN            string `json:"isbn"`
	Genre           string `json:"genre" validate:"required,notblank"`
	PublicationDate string `json:"publication_date" validate:"required,datetime=2006-01-02"`
}

type updateDocumentReq struct {
	Title           *string `json:"title" validate:"omitempty,notblank"`
	Author          *string `json:"author" validate:"omitempty,notblank"`
	Type            *string `json:"type" validate:"omitempty,oneof=book magazine dvd"`
	ISBN            *string `json:"isbn"`
	Genre           *string `json:"genre" validate:"omitempty,notblank"`
	PublicationDate *string `json:"publication_date" validate:"omitempty,datetime=2006-01-02"`
}

// documentDTO renders publication_date as a calendar date.
type documentDTO struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Type            string `json:"type"`
	ISBN            string `json:"isbn,omitempty"`
	Genre           string `json:"genre"`
	PublicationDate string `json:"publication_date"`
	Available       bool   `json:"available"`
}

func toDocumentDTO(d *domain.Document) *documentDTO {
	return &documentDTO{
		ID:              d.ID,
		Title:           d.Title,
		Author:          d.Author,
		Type:            string(d.Type),
		ISBN:            d.ISBN,
		Genre:           d.Genre,
		PublicationDate: d.PublicationDate.UTC().Format(dateLayout),
		Available:       d.Available,
	}
}

func (h *DocumentHandler) List(c echo.Context) error {
	p := readPage(c)
	in := document.ListInput{Page: p.Page, PerPage: p.PerPage}
	if t := strings.TrimSpace(c.QueryParam("type")); t != "" {
		in.Type = domain.Type(t)
		if !in.Type.Valid() {
			return respondError(c, errInvalidType)
		}
	}
	avail, ok := queryBool(c, "available")
	if !ok {
		return respondError(c, errInvalidBool)
	}
	in.Available = avail

	items, total, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]*documentDTO, 0, len(items))
	for i := range items {
		out = append(out, toDocumentDTO(&items[i]))
	}
	return c.JSON(http.StatusOK, newPage(out, total, p))
}

func (h *DocumentHandler) Create(c echo.Context) error {
	var req createDocumentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	// layout already checked by the validator
	pub, _ := time.Parse(dateLayout, req.PublicationDate)
	d, err := h.uc.Create(c.Request().Context(), document.CreateInput{
		Title:           req.Title,
		Author:          req.Author,
		Type:            domain.Type(req.Type),
		ISBN:            req.ISBN,
		Genre:           req.Genre,
		PublicationDate: pub,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, message[*documentDTO]{Message: "Document created successfully", Data: toDocumentDTO(d)})
}

func (h *DocumentHandler) Get(c echo.Context) error {
	documentID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.uc.Get(c.Request().Context(), documentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toDocumentDTO(d))
}

func (h *DocumentHandler) Update(c echo.Context) error {
	documentID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateDocumentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := document.UpdateInput{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Genre:  req.Genre,
	}
	if req.Type != nil {
		t := domain.Type(*req.Type)
		in.Type = &t
	}
	if req.PublicationDate != nil {
		pub, _ := time.Parse(dateLayout, *req.PublicationDate)
		in.PublicationDate = &pub
	}
	d, err := h.uc.Update(c.Request().Context(), documentID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[*documentDTO]{Message: "Document updated successfully", Data: toDocumentDTO(d)})
}

func (h *DocumentHandler) Delete(c echo.Context) error {
	documentID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), documentID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[any]{Message: "Document deleted successfully"})
}

func (h *DocumentHandler) Reconcile(c echo.Context) error {
	documentID, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.uc.Reconcile(c.Request().Context(), documentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, message[*documentDTO]{Message: "Document reconciled", Data: toDocumentDTO(d)})
}
