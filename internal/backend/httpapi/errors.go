package httpapi

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"

	"taskdeck/internal/service"
)

// errorBody covers the error shapes the service emits: a list of field
// errors, a message, or a bare error string.
type errorBody struct {
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeError classifies a non-2xx response.
func decodeError(status int, body []byte) error {
	code := classify(status)

	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	msg := ""
	switch {
	case len(eb.Errors) > 0 && strings.TrimSpace(eb.Errors[0].Message) != "":
		msg = eb.Errors[0].Message
	case strings.TrimSpace(eb.Message) != "":
		msg = eb.Message
	case strings.TrimSpace(eb.Error) != "":
		msg = eb.Error
	default:
		msg = genericMessage(code)
	}

	return &service.Error{Code: code, Status: status, Message: msg}
}

func classify(status int) service.ErrorCode {
	switch status {
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return service.CodeInvalidCredentials
	case fasthttp.StatusBadRequest, fasthttp.StatusConflict, fasthttp.StatusUnprocessableEntity:
		return service.CodeValidationRejected
	default:
		return service.CodeServerError
	}
}

func genericMessage(code service.ErrorCode) string {
	switch code {
	case service.CodeInvalidCredentials:
		return "not authorized"
	case service.CodeValidationRejected:
		return "request rejected by server"
	default:
		return "server error"
	}
}
