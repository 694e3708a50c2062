package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// ListFigures handles GET /figures
func (h *Handler) ListFigures(c *gin.Context) {
	filter, err := figureFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	figures, err := h.store.ListFigures(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, figures)
}

// GetFigure handles GET /figures/:id where id is a UUID or a slug
func (h *Handler) GetFigure(c *gin.Context) {
	figure, err := h.store.GetFigure(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if figure == nil {
		h.fail(c, helper.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, figure)
}

// CreateFigure handles POST /figures
func (h *Handler) CreateFigure(c *gin.Context) {
	input := &model.FigureInput{}
	if err := bindJSON(c, input); err != nil {
		h.fail(c, err)
		return
	}

	figure, err := h.store.CreateFigure(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, figure)
}

// UpdateFigure handles PUT and PATCH /figures/:id. Only the attributes
// present in the body change.
func (h *Handler) UpdateFigure(c *gin.Context) {
	id, err := h.figureID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	patch := &model.FigurePatch{}
	if err := bindJSON(c, patch); err != nil {
		h.fail(c, err)
		return
	}

	figure, err := h.store.UpdateFigure(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, figure)
}

// DeleteFigure handles DELETE /figures/:id
func (h *Handler) DeleteFigure(c *gin.Context) {
	id, err := h.figureID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	err = h.store.DeleteFigure(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// FigureLineage handles GET /figures/:id/lineage?direction=&depth=
func (h *Handler) FigureLineage(c *gin.Context) {
	direction := model.LineageDirection(c.DefaultQuery("direction", string(model.LineageInfluenced)))

	depth, err := queryInt(c, "depth")
	if err != nil {
		h.fail(c, err)
		return
	}
	if depth == nil {
		defaultDepth := model.DefaultLineageDepth
		depth = &defaultDepth
	}

	entries, err := h.store.FigureLineage(c.Request.Context(), c.Param("id"), direction, *depth)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// figureID resolves the :id parameter, which may also be a slug
func (h *Handler) figureID(c *gin.Context) (uuid.UUID, error) {
	if id, err := uuid.Parse(c.Param("id")); err == nil {
		return id, nil
	}

	figure, err := h.store.GetFigure(c.Request.Context(), c.Param("id"))
	if err != nil {
		return uuid.Nil, err
	}
	if figure == nil {
		return uuid.Nil, helper.ErrNotFound
	}
	return figure.ID, nil
}
