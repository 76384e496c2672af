package helper

import "github.com/gin-gonic/gin"

const (
	AlertCreated = "created"
	AlertUpdated = "updated"
	AlertDeleted = "deleted"
)

// SetEntityAlert sets X-<app>-alert to "<app>.<entity>.<action>" and
// X-<app>-params to param, for clients that show a translated notice.
func (u *HTTPHelper) SetEntityAlert(c *gin.Context, entity, action, param string) {
	c.Header("X-"+u.AppName+"-alert", u.AppName+"."+entity+"."+action)
	c.Header("X-"+u.AppName+"-params", param)
}

// SetFailureAlert sets X-<app>-error to the error code and X-<app>-params to
// the entity name.
func (u *HTTPHelper) SetFailureAlert(c *gin.Context, entity, code string) {
	c.Header("X-"+u.AppName+"-error", code)
	c.Header("X-"+u.AppName+"-params", entity)
}
