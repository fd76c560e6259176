// Package errors maps gateway and adapter failures onto the HTTP error
// envelope served by the API.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/3leaps/godrives/pkg/gateway"
	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/registry"
	"github.com/3leaps/godrives/pkg/restclient"
)

// HTTPErrorResponse is the wire envelope for all error responses.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// HTTPErrorDetail carries the machine code and human message for a failure.
type HTTPErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// gatewayKindCodes maps non-terminal gateway kinds to wire codes. All of
// them are client-visible operation failures served as 400.
var gatewayKindCodes = map[gateway.ErrorKind]string{
	gateway.KindContents: "CONTENTS_ERROR",
	gateway.KindCreate:   "CREATE_ERROR",
	gateway.KindSave:     "SAVE_ERROR",
	gateway.KindRename:   "RENAME_ERROR",
	gateway.KindDelete:   "DELETE_ERROR",
	gateway.KindCopy:     "COPY_ERROR",
	gateway.KindList:     "LIST_ERROR",
}

// Classify resolves an error to its HTTP status and wire code.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, restclient.ErrMissingCredentials):
		return http.StatusBadRequest, "MISSING_CREDENTIALS"
	case errors.Is(err, registry.ErrAlreadyMounted):
		return http.StatusConflict, "ALREADY_MOUNTED"
	case errors.Is(err, registry.ErrNotMounted):
		return http.StatusNotFound, "NOT_MOUNTED"
	case gateway.IsKind(err, gateway.KindNotFound), errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, provider.ErrUnsupported):
		return http.StatusNotImplemented, "UNSUPPORTED_PROVIDER"
	}

	var transportErr *restclient.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway, "TRANSPORT_ERROR"
	}
	var providerErr *restclient.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadGateway, "PROVIDER_ERROR"
	}
	var decodeErr *restclient.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadGateway, "DECODE_ERROR"
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		if code, ok := gatewayKindCodes[gwErr.Kind]; ok {
			return http.StatusBadRequest, code
		}
	}
	var mountErr *registry.MountError
	if errors.As(err, &mountErr) {
		return http.StatusBadRequest, "MOUNT_FAILED"
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// RespondWithError writes the envelope for err. The request id is taken
// from the response header populated by the request-id middleware.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Classify(err)
	WriteError(w, status, code, err.Error(), w.Header().Get("X-Request-ID"))
}

// WriteError writes an explicit error envelope.
func WriteError(w http.ResponseWriter, status int, code, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}
