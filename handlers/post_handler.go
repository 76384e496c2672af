package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/services"
)

const entityPost = "post"

// IndexStatusReporter reports the state of the search index and its outbox.
type IndexStatusReporter interface {
	Status(ctx context.Context) (*services.IndexStatus, error)
}

type PostHandler struct {
	postService services.PostService
	status      IndexStatusReporter
	Helper      *helper.HTTPHelper
}

func NewPostHandler(postService services.PostService, status IndexStatusReporter, h *helper.HTTPHelper) *PostHandler {
	return &PostHandler{postService: postService, status: status, Helper: h}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req models.PostRequest
	if !bindJSON(c, h.Helper, &req) {
		return
	}

	post, err := h.postService.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	id := strconv.FormatUint(uint64(post.ID), 10)
	h.Helper.SetEntityAlert(c, entityPost, helper.AlertCreated, id)
	c.Header("Location", "/api/posts/"+id)
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req models.PostRequest
	if !bindJSON(c, h.Helper, &req) {
		return
	}

	post, err := h.postService.Update(c.Request.Context(), principal, req)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	h.Helper.SetEntityAlert(c, entityPost, helper.AlertUpdated, strconv.FormatUint(uint64(post.ID), 10))
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	page, err := h.Helper.ParsePageRequest(c)
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid paging parameters", err.Error())
		return
	}

	result, err := h.postService.List(c.Request.Context(), principal, page)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	h.Helper.SetPaginationHeaders(c, result.Page, result.Size, result.Total)
	c.JSON(http.StatusOK, result.Content)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.Get(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), id); err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	h.Helper.SetEntityAlert(c, entityPost, helper.AlertDeleted, strconv.FormatUint(uint64(id), 10))
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	page, err := h.Helper.ParsePageRequest(c)
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid paging parameters", err.Error())
		return
	}

	result, err := h.postService.Search(c.Request.Context(), c.Query("query"), page)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	h.Helper.SetPaginationHeaders(c, result.Page, result.Size, result.Total)
	c.JSON(http.StatusOK, result.Content)
}

func (h *PostHandler) GetIndexStatus(c *gin.Context) {
	status, err := h.status.Status(c.Request.Context())
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Index status loaded", status)
}

func (h *PostHandler) principal(c *gin.Context) (services.Principal, bool) {
	return principalFrom(c, h.Helper)
}
