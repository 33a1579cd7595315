// Package http serves the finvue JSON API.
//
// This file holds a small fluent builder so every handler writes status,
// headers and JSON bodies the same way.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ResponseBuilder collects a status, headers and a body before writing.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	data       any
	hasData    bool
}

// NewResponse starts a 200 response.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the body on Write.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.data = v
	b.hasData = true
	return b
}

// Body sets a raw body with its content type.
func (b *ResponseBuilder) Body(contentType string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.body = content
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	if b.hasData {
		encoded, err := json.Marshal(b.data)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// ValidationError is a 422 carrying one message per invalid field.
func ValidationError(fields map[string]string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(errorBody{Error: "validation failed", Fields: fields})
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
