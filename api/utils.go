package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/builder"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/export"
	"hermannm.dev/wrap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(res http.ResponseWriter, statusCode int, err error, message string) {
	if err != nil {
		if message == "" {
			message = err.Error()
		} else {
			message = wrap.Error(err, message).Error()
		}
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if err := json.NewEncoder(res).Encode(errorResponse{Error: message}); err != nil {
		log.ErrorCause(err, "failed to write error response")
	}
}

func sendClientError(res http.ResponseWriter, err error, message string) {
	sendError(res, http.StatusBadRequest, err, message)
}

func sendServerError(res http.ResponseWriter, err error, message string) {
	log.ErrorCause(err, message)
	sendError(res, http.StatusInternalServerError, err, message)
}

// Picks the status code for an error from the builder or its collaborators.
func sendWorkflowError(res http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		sendError(res, http.StatusNotFound, err, message)
	case errors.Is(err, builder.ErrRunInFlight):
		sendError(res, http.StatusConflict, err, message)
	case isBuilderError(err), errors.Is(err, export.ErrTextReport):
		sendClientError(res, err, message)
	default:
		sendServerError(res, err, message)
	}
}

func isBuilderError(err error) bool {
	for _, builderErr := range []error{
		builder.ErrNoEntry,
		builder.ErrNoSQL,
		builder.ErrTextHasNoSource,
		builder.ErrNoStatement,
		builder.ErrNilConfig,
		builder.ErrInvalidStep,
		builder.ErrStepUnreachable,
		builder.ErrNoNextStep,
		builder.ErrNoPreviousStep,
		builder.ErrNothingToApply,
		builder.ErrNotOnFinalStep,
		builder.ErrCannotFinish,
	} {
		if errors.Is(err, builderErr) {
			return true
		}
	}
	return false
}

func sendJSON(res http.ResponseWriter, value any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(res).Encode(value); err != nil {
		log.ErrorCause(err, "failed to serialize response")
	}
}

func decodeBody(req *http.Request, target any) error {
	decoder := json.NewDecoder(req.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
