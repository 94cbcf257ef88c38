package bserr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeUpstreamError  = "UPSTREAM_ERROR"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")

	// ErrUpstream is returned when the CRM data source fails or reports an error.
	ErrUpstream = New(fiber.StatusBadGateway, CodeUpstreamError, "funnel data source request failed")
)

type Extras map[string]interface{}

type BrandSpotError struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"INVALID_REQUEST"`
	Message    string `example:"invalid request: some or all request parameters are invalid"`
	Extras     *Extras
}

func New(statusCode int, errorCode string, message string) *BrandSpotError {
	return &BrandSpotError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func (e BrandSpotError) Msg(format string, parts ...interface{}) *BrandSpotError {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e BrandSpotError) WithExtras(extras Extras) *BrandSpotError {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations interface{}) *BrandSpotError {
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *BrandSpotError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
