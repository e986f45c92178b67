package pos

import (
	"errors"

	"github.com/desims/tokobangunansaya/internal/repo"
	"github.com/desims/tokobangunansaya/internal/sales"
)

var (
	// ErrInvalidArgument is returned when a form field cannot be parsed
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownOperation is returned for operations the dispatcher does not know
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInternal stands in for storage and other unexpected failures
	ErrInternal = errors.New("internal error")
)

// Stable error codes shared by the HTTP API and the CLI
const (
	CodeDuplicateCode     = "DUPLICATE_CODE"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeSaleNotFound      = "SALE_NOT_FOUND"
	CodeInternal          = "INTERNAL"
)

var codeSentinels = map[string]error{
	CodeDuplicateCode:     repo.ErrDuplicateCode,
	CodeItemNotFound:      repo.ErrItemNotFound,
	CodeInsufficientStock: repo.ErrInsufficientStock,
	CodeInvalidArgument:   ErrInvalidArgument,
	CodeSaleNotFound:      repo.ErrSaleNotFound,
	CodeInternal:          ErrInternal,
}

// ErrorCode classifies err into one of the stable codes
func ErrorCode(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &remote):
		return remote.Code
	case errors.Is(err, repo.ErrDuplicateCode):
		return CodeDuplicateCode
	case errors.Is(err, repo.ErrItemNotFound):
		return CodeItemNotFound
	case errors.Is(err, repo.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, repo.ErrSaleNotFound):
		return CodeSaleNotFound
	case errors.Is(err, repo.ErrInvalidItem),
		errors.Is(err, sales.ErrInvalidQuantity),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnknownOperation):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

// RemoteError is an error received from a server, rebuilt from its code
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the local sentinel for the code
func (e *RemoteError) Unwrap() error {
	if sentinel, ok := codeSentinels[e.Code]; ok {
		return sentinel
	}
	return ErrInternal
}

// ErrorFromCode rebuilds an error reported by a server
func ErrorFromCode(code, message string) error {
	if _, ok := codeSentinels[code]; !ok {
		code = CodeInternal
	}
	if message == "" {
		message = codeSentinels[code].Error()
	}
	return &RemoteError{Code: code, Message: message}
}

// Describe returns the message shown to the cashier for err
func Describe(err error) string {
	switch ErrorCode(err) {
	case "":
		return ""
	case CodeDuplicateCode:
		return "Item code already exists"
	case CodeItemNotFound:
		return "Item not found"
	case CodeInsufficientStock:
		return "Insufficient stock"
	case CodeSaleNotFound:
		return "Sale not found"
	case CodeInvalidArgument:
		return err.Error()
	default:
		return "Could not complete the request, please try again"
	}
}
