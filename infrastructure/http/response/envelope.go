package response

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerr "github.com/adsops/adsops/domain/error"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorData is the data payload of a failed response
type ErrorData struct {
	Code    domainerr.ErrorCode `json:"code"`
	Details string              `json:"details,omitempty"`
	TraceID string              `json:"trace_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, status bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	envelope := Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(envelope)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, true, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, false, message, nil)
}

// AppError writes err with the status its code maps to. Errors outside the
// catalog are reported as executor failures without leaking their text.
func AppError(w http.ResponseWriter, err error, traceID string) {
	var appErr *domainerr.AppError
	if !errors.As(err, &appErr) {
		WriteJSON(w, http.StatusBadGateway, false, "Write operation failed", ErrorData{
			Code:    domainerr.ErrCodeExecutorFailed,
			TraceID: traceID,
		})
		return
	}

	details := appErr.Details
	if appErr.Code == domainerr.ErrCodeStore || appErr.Code == domainerr.ErrCodeAudit {
		details = ""
	}
	WriteJSON(w, domainerr.HTTPStatus(appErr), false, appErr.Message, ErrorData{
		Code:    appErr.Code,
		Details: details,
		TraceID: traceID,
	})
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}
