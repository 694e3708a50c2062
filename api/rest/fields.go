package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// ListFields handles GET /fields. Fields are few, so there is no pagination.
func (h *Handler) ListFields(c *gin.Context) {
	fields, err := h.store.ListFields(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": fields})
}

// GetField handles GET /fields/:id where id is a UUID or a slug
func (h *Handler) GetField(c *gin.Context) {
	field, err := h.store.GetField(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if field == nil {
		h.fail(c, helper.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, field)
}

// CreateField handles POST /fields
func (h *Handler) CreateField(c *gin.Context) {
	input := &model.FieldInput{}
	if err := bindJSON(c, input); err != nil {
		h.fail(c, err)
		return
	}

	field, err := h.store.CreateField(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, field)
}
