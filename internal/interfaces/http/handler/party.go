package handler

import (
	"github.com/gin-gonic/gin"

	actapp "github.com/actdesk/backend/internal/application/act"
)

// PartyHandler serves the address book
type PartyHandler struct {
	BaseHandler
	book *actapp.AddressBookService
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(book *actapp.AddressBookService) *PartyHandler {
	return &PartyHandler{book: book}
}

// List handles GET /parties
func (h *PartyHandler) List(c *gin.Context) {
	req := actapp.ListPartiesRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	result, err := h.book.List(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.Size)
}

// Get handles GET /parties/:id
func (h *PartyHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid party ID format")
		return
	}
	party, err := h.book.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, party)
}

// Create handles POST /parties. A party with the same registration
// number, or the same name when it has none, is updated instead.
func (h *PartyHandler) Create(c *gin.Context) {
	var req actapp.PartyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	party, err := h.book.Save(c.Request.Context(), req.ToParty())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, party)
}

// Update handles PUT /parties/:id
func (h *PartyHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid party ID format")
		return
	}
	var req actapp.PartyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	party, err := h.book.Update(c.Request.Context(), id, req.ToParty())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, party)
}

// Delete handles DELETE /parties/:id
func (h *PartyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid party ID format")
		return
	}
	if err := h.book.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
