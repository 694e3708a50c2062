package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

// ListTimelineEvents handles GET /timeline
func (h *Handler) ListTimelineEvents(c *gin.Context) {
	filter, err := timelineEventFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	events, err := h.store.ListTimelineEvents(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetTimelineEvent handles GET /timeline/:id
func (h *Handler) GetTimelineEvent(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	event, err := h.store.GetTimelineEvent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if event == nil {
		h.fail(c, helper.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, event)
}

// CreateTimelineEvent handles POST /timeline
func (h *Handler) CreateTimelineEvent(c *gin.Context) {
	input := &model.TimelineEventInput{}
	if err := bindJSON(c, input); err != nil {
		h.fail(c, err)
		return
	}

	event, err := h.store.CreateTimelineEvent(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// UpdateTimelineEvent handles PUT and PATCH /timeline/:id
func (h *Handler) UpdateTimelineEvent(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	patch := &model.TimelineEventPatch{}
	if err := bindJSON(c, patch); err != nil {
		h.fail(c, err)
		return
	}

	event, err := h.store.UpdateTimelineEvent(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteTimelineEvent handles DELETE /timeline/:id
func (h *Handler) DeleteTimelineEvent(c *gin.Context) {
	id, err := pathUUID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	err = h.store.DeleteTimelineEvent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
