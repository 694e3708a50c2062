package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// ListInfluences handles GET /influences
func (h *Handler) ListInfluences(c *gin.Context) {
	filter, err := influenceFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	influences, err := h.store.ListInfluences(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, influences)
}

// GetInfluence handles GET /influences/:id
func (h *Handler) GetInfluence(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	influence, err := h.store.GetInfluence(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if influence == nil {
		h.fail(c, helper.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, influence)
}

// CreateInfluence handles POST /influences
func (h *Handler) CreateInfluence(c *gin.Context) {
	input := &model.InfluenceInput{}
	if err := bindJSON(c, input); err != nil {
		h.fail(c, err)
		return
	}

	influence, err := h.store.CreateInfluence(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, influence)
}

// UpdateInfluence handles PUT and PATCH /influences/:id. Both endpoints
// are required.
func (h *Handler) UpdateInfluence(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	input := &model.InfluenceInput{}
	if err := bindJSON(c, input); err != nil {
		h.fail(c, err)
		return
	}

	influence, err := h.store.UpdateInfluence(c.Request.Context(), id, input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, influence)
}

// DeleteInfluence handles DELETE /influences/:id
func (h *Handler) DeleteInfluence(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	err = h.store.DeleteInfluence(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
