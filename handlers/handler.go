package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/middleware"
	"github.com/jemaltech/app2automate/services"
)

// bindJSON decodes the body into req and validates it, writing the error
// response itself when either step fails.
func bindJSON(c *gin.Context, h *helper.HTTPHelper, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.SendBadRequest(c, "Invalid request body: "+err.Error(), h.EmptyJsonMap())
		return false
	}
	if err := h.ValidateStruct(req); err != nil {
		h.SendBindError(c, err)
		return false
	}
	return true
}

func principalFrom(c *gin.Context, h *helper.HTTPHelper) (services.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		h.SendUnauthorizedError(c, "User not found in context", h.EmptyJsonMap())
	}
	return principal, ok
}
