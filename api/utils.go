package api

import (
	"errors"
	"net/http"

	"github.com/igor04091968/tunnel-panel/logger"
	"github.com/igor04091968/tunnel-panel/service"

	"github.com/gin-gonic/gin"
)

type Msg struct {
	Success bool        `json:"success"`
	Msg     string      `json:"msg"`
	Obj     interface{} `json:"obj"`
}

var (
	errUnauthorized    = errors.New("unauthorized")
	errRegisterClosed  = errors.New("registration is disabled")
	errTooManyRequests = errors.New("too many requests, please try again later")
)

// requestError marks a malformed request that never reached a service.
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(err error) error {
	return &requestError{err: err}
}

func errorStatus(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errRegisterClosed):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, errTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// publicError is the text a client may see for err. Server side failures are
// logged and replaced by a generic message.
func publicError(msg string, err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		logger.Error(msg, ": ", err)
		return "internal server error"
	}
	logger.Debug(msg, ": ", err)
	return err.Error()
}

func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

func jsonObj(c *gin.Context, obj interface{}, err error) {
	jsonMsgObj(c, "", obj, err)
}

func jsonMsgObj(c *gin.Context, msg string, obj interface{}, err error) {
	jsonMsgObjStatus(c, http.StatusOK, msg, obj, err)
}

func jsonMsgObjStatus(c *gin.Context, okStatus int, msg string, obj interface{}, err error) {
	m := Msg{
		Obj: obj,
	}
	status := okStatus
	if err == nil {
		m.Success = true
		if msg != "" {
			m.Msg = msg
		}
	} else {
		status = errorStatus(err)
		m.Success = false
		m.Obj = nil
		text := publicError(msg, err)
		if msg != "" {
			m.Msg = msg + ": " + text
		} else {
			m.Msg = text
		}
	}
	c.JSON(status, m)
}

// getRemoteIp honours forwarding headers only from trusted proxies, see
// web.Server.
func getRemoteIp(c *gin.Context) string {
	return c.ClientIP()
}
