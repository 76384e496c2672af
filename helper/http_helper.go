package helper

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"go.uber.org/zap"
	"gopkg.in/go-playground/validator.v9"

	"github.com/jemaltech/app2automate/logger"
	"github.com/jemaltech/app2automate/models"
)

const (
	textError             = `error`
	textOk                = `ok`
	codeSuccess           = 200
	codeBadRequestError   = 400
	codeUnauthorizedError = 401
	codeStorageError      = 402
	codeValidationError   = 403
	codeNotFound          = 404
	codeConflict          = 409
)

// ResponseHelper ...
type ResponseHelper struct {
	C          *gin.Context
	Status     string
	Message    string
	Data       interface{}
	Code       int // not the http code
	CodeType   string
	HTTPStatus int
}

// HTTPHelper ...
type HTTPHelper struct {
	Validate   *validator.Validate
	Translator ut.Translator
	// AppName prefixes alert headers: X-<AppName>-alert.
	AppName         string
	DefaultPageSize int
	MaxPageSize     int
}

// GetStatusCode maps an error from the service layer to its HTTP status.
func (u *HTTPHelper) GetStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		invalid      *models.ErrorInvalidRequest
		notFound     *models.ErrorNotFound
		conflict     *models.ErrorConflict
		unauthorized *models.ErrorUnauthorized
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// SetResponse ...
// Set response data.
func (u *HTTPHelper) SetResponse(c *gin.Context, status string, message string, data interface{}, code int, codeType string, httpStatus int) ResponseHelper {
	return ResponseHelper{c, status, message, data, code, codeType, httpStatus}
}

// SendError ...
// Send error response to consumers.
func (u *HTTPHelper) SendError(c *gin.Context, message string, data interface{}, code int, codeType string, httpStatus int) error {
	res := u.SetResponse(c, textError, message, data, code, codeType, httpStatus)

	return u.SendResponse(res)
}

// SendErrorFrom writes the response for an error returned by a service.
// Storage failures are logged and reported without their cause.
func (u *HTTPHelper) SendErrorFrom(c *gin.Context, err error) error {
	var invalid *models.ErrorInvalidRequest
	if errors.As(err, &invalid) {
		return u.SendInvalidRequest(c, invalid)
	}

	switch u.GetStatusCode(err) {
	case http.StatusNotFound:
		return u.SendNotFoundError(c, err.Error(), u.EmptyJsonMap())
	case http.StatusConflict:
		return u.SendError(c, err.Error(), u.EmptyJsonMap(), codeConflict, `conflict`, http.StatusConflict)
	case http.StatusUnauthorized:
		return u.SendUnauthorizedError(c, err.Error(), u.EmptyJsonMap())
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
		return u.SendStorageError(c, "internal server error", u.EmptyJsonMap())
	}
}

// SendInvalidRequest ...
// Send a rejected precondition together with its failure alert headers.
func (u *HTTPHelper) SendInvalidRequest(c *gin.Context, err *models.ErrorInvalidRequest) error {
	u.SetFailureAlert(c, err.Entity, err.Code())

	c.JSON(http.StatusBadRequest, map[string]interface{}{
		"code":         codeBadRequestError,
		"code_type":    "badRequest",
		"code_message": err.Message,
		"entity":       err.Entity,
		"error_key":    err.Key,
		"data":         u.EmptyJsonMap(),
	})
	return nil
}

// SendBadRequest ...
// Send bad request response to consumers.
func (u *HTTPHelper) SendBadRequest(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeBadRequestError, `badRequest`, http.StatusBadRequest)
}

// SendValidationError ...
// Send validation error response to consumers.
func (u *HTTPHelper) SendValidationError(c *gin.Context, validationErrors validator.ValidationErrors) error {
	errorResponse := map[string][]string{}
	errorTranslation := validationErrors.Translate(u.Translator)
	for _, err := range validationErrors {
		errKey := Underscore(err.StructField())
		errorResponse[errKey] = append(errorResponse[errKey], errorTranslation[err.Namespace()])
	}

	c.JSON(http.StatusBadRequest, map[string]interface{}{
		"code":         codeValidationError,
		"code_type":    "validationError",
		"code_message": errorResponse,
		"data":         u.EmptyJsonMap(),
	})
	return nil
}

// SendBindError reports a body that failed to decode or validate.
func (u *HTTPHelper) SendBindError(c *gin.Context, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return u.SendValidationError(c, validationErrors)
	}
	return u.SendBadRequest(c, "Invalid request body: "+err.Error(), u.EmptyJsonMap())
}

// SendStorageError ...
// Send storage error response to consumers.
func (u *HTTPHelper) SendStorageError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeStorageError, `storageError`, http.StatusInternalServerError)
}

// SendUnauthorizedError ...
// Send unauthorized response to consumers.
func (u *HTTPHelper) SendUnauthorizedError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeUnauthorizedError, `unAuthorized`, http.StatusUnauthorized)
}

// SendNotFoundError ...
// Send not found response to consumers.
func (u *HTTPHelper) SendNotFoundError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeNotFound, `notFound`, http.StatusNotFound)
}

// SendSuccess ...
// Send success response to consumers.
func (u *HTTPHelper) SendSuccess(c *gin.Context, message string, data interface{}) error {
	res := u.SetResponse(c, textOk, message, data, codeSuccess, `success`, http.StatusOK)

	return u.SendResponse(res)
}

// SendResponse ...
// Send response
func (u *HTTPHelper) SendResponse(res ResponseHelper) error {
	if len(res.Message) == 0 {
		res.Message = `success`
	}

	httpStatus := res.HTTPStatus
	if httpStatus == 0 {
		httpStatus = http.StatusOK
		if res.Code != codeSuccess {
			httpStatus = http.StatusBadRequest
		}
	}

	res.C.JSON(httpStatus, map[string]interface{}{
		"code":         res.Code,
		"code_type":    res.CodeType,
		"code_message": res.Message,
		"data":         res.Data,
	})
	return nil
}

func (u *HTTPHelper) EmptyJsonMap() map[string]interface{} {
	return make(map[string]interface{})
}

// ParseID reads a positive numeric path parameter.
func (u *HTTPHelper) ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		u.SendBadRequest(c, "Invalid "+name, u.EmptyJsonMap())
		return 0, false
	}
	return uint(id), true
}
