package core

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func RequestBody[TRequest any](r *http.Request) (TRequest, error) {
	var request TRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	return request, err
}

type ResponseOption func(http.ResponseWriter, *http.Request)

func WithHeader(header, value string) ResponseOption {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add(header, value)
	}
}

func WriteOK(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, http.StatusOK, body)
}

func WriteCreated(w http.ResponseWriter, r *http.Request, location string, body interface{}) {
	var opts []ResponseOption
	if location != "" {
		opts = append(opts, WithHeader("Location", location))
	}

	WriteResponse(w, r, http.StatusCreated, body, opts...)
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, http.StatusBadRequest, body)
}

// WriteCommandError maps err onto a response. Anything that is not a
// CommandError is reported as a 500 without leaking its message.
func WriteCommandError(w http.ResponseWriter, r *http.Request, err error, opts ...ResponseOption) {
	commandErr, ok := AsCommandError(err)
	if !ok {
		WriteResponse(w, r, http.StatusInternalServerError, errorBody{Error: "internal server error"}, opts...)
		return
	}

	WriteResponse(w, r, commandErr.StatusCode, errorBody{Error: commandErr.Message()}, opts...)
}

func WriteResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	body interface{},
	opts ...ResponseOption,
) {
	for _, opt := range opts {
		opt(w, r)
	}

	if body != nil {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(statusCode)
	writeBodyIfPresent(r.Context(), w, body)
}

func writeBodyIfPresent(ctx context.Context, w http.ResponseWriter, body interface{}) {
	if body == nil {
		return
	}

	// error marshals into an empty object.
	if err, ok := body.(error); ok {
		body = errorBody{Error: err.Error()}
	}

	responseBytes, err := json.Marshal(body)
	if err != nil {
		LogError(ctx, "failed to serialize response", zap.Error(err))
		return
	}

	if _, err := w.Write(responseBytes); err != nil {
		LogError(ctx, "failed to write response", zap.Error(err))
	}
}
