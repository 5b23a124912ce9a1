package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

const (
	RequestIDPrefix      string     = "r"
	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"
)

// Operation names carried by OperationError.
const (
	OpCreate     = "create"
	OpBulkCreate = "bulk-create"
	OpGet        = "get"
	OpList       = "list"
	OpUpdate     = "update"
	OpDelete     = "delete"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrEmptyBody      = errors.New("empty request body")
	ErrInvalidBookID  = errors.New("invalid book id")
	ErrEmptyBulkInput = errors.New("at least one book is required")
)

type (
	ContextKey        string
	invalidFieldError string
)

func (i invalidFieldError) Error() string {
	return string(i) + " must not be negative"
}

// OperationError reports a storage failure that happened while
// running a book operation.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("books: %s operation failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(ContextRequestNumber).(uint64); ok {
		return val
	}
	return 0
}

// DecodeBookRequestBody reads the content of a book creation or update request.
func DecodeBookRequestBody(r *http.Request, br *BookRequest) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	return json.NewDecoder(r.Body).Decode(br)
}

// DecodeBookRequestsBody reads the json array sent on bulk creation.
func DecodeBookRequestsBody(r *http.Request, brs *[]BookRequest) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	if err := json.NewDecoder(r.Body).Decode(brs); err != nil {
		return err
	}
	if len(*brs) == 0 {
		return ErrEmptyBulkInput
	}
	return nil
}

// ValidateBookRequestBody checks the numeric fields of a book payload.
// Every field is optional.
func ValidateBookRequestBody(br *BookRequest) error {
	if br.Price != nil && *br.Price < 0 {
		return invalidFieldError("price")
	}
	if br.Qty != nil && *br.Qty < 0 {
		return invalidFieldError("qty")
	}
	return nil
}

// ValidateBookRequestsBody validates each payload of a bulk creation and
// reports the position of the first invalid one.
func ValidateBookRequestsBody(brs []BookRequest) error {
	for i := range brs {
		if err := ValidateBookRequestBody(&brs[i]); err != nil {
			return fmt.Errorf("book at index %d: %w", i, err)
		}
	}
	return nil
}

// ParseBookID extracts the book id path parameter. Only positive
// integers are accepted.
func ParseBookID(ps httprouter.Params) (int64, error) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidBookID
	}
	return id, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
