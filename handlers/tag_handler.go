package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/services"
)

type TagHandler struct {
	tagService services.TagService
	Helper     *helper.HTTPHelper
}

func NewTagHandler(tagService services.TagService, h *helper.HTTPHelper) *TagHandler {
	return &TagHandler{tagService: tagService, Helper: h}
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	var req models.CreateTagRequest
	if !bindJSON(c, h.Helper, &req) {
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	id := strconv.FormatUint(uint64(tag.ID), 10)
	h.Helper.SetEntityAlert(c, "tag", helper.AlertCreated, id)
	c.Header("Location", "/api/tags/"+id)
	c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) GetTags(c *gin.Context) {
	tags, err := h.tagService.GetTags(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) GetTag(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	tag, err := h.tagService.GetTag(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, tag)
}
