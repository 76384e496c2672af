package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/services"
)

type BlogHandler struct {
	blogService services.BlogService
	Helper      *helper.HTTPHelper
}

func NewBlogHandler(blogService services.BlogService, h *helper.HTTPHelper) *BlogHandler {
	return &BlogHandler{blogService: blogService, Helper: h}
}

func (h *BlogHandler) CreateBlog(c *gin.Context) {
	principal, ok := principalFrom(c, h.Helper)
	if !ok {
		return
	}

	var req models.CreateBlogRequest
	if !bindJSON(c, h.Helper, &req) {
		return
	}

	blog, err := h.blogService.CreateBlog(c.Request.Context(), principal, req)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	id := strconv.FormatUint(uint64(blog.ID), 10)
	h.Helper.SetEntityAlert(c, "blog", helper.AlertCreated, id)
	c.Header("Location", "/api/blogs/"+id)
	c.JSON(http.StatusCreated, blog)
}

func (h *BlogHandler) GetBlogs(c *gin.Context) {
	principal, ok := principalFrom(c, h.Helper)
	if !ok {
		return
	}

	blogs, err := h.blogService.GetBlogs(c.Request.Context(), principal)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, blogs)
}

func (h *BlogHandler) GetBlog(c *gin.Context) {
	principal, ok := principalFrom(c, h.Helper)
	if !ok {
		return
	}

	id, ok := h.Helper.ParseID(c, "id")
	if !ok {
		return
	}

	blog, err := h.blogService.GetBlog(c.Request.Context(), principal, id)
	if err != nil {
		h.Helper.SendErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, blog)
}
