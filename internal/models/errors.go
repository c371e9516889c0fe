package models

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Error codes shared between the gateway contract and the panel API.
const (
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeTransport        = "TRANSPORT"
	CodeBusy             = "BUSY"
	CodeNotMounted       = "NOT_MOUNTED"
	CodeAlreadyMounted   = "ALREADY_MOUNTED"
)

// PermissionDeniedMessage is shown when mounting is refused by the host. It
// tells the operator how to fix it instead of echoing the code.
const PermissionDeniedMessage = "Permission denied. Please disable protection mode in the settings and restart the add-on."

// Error constructors.
var (
	ErrNotFound = func(msg string) *AppError {
		return &AppError{Code: "NOT_FOUND", Message: msg, Status: 404}
	}
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: "BAD_REQUEST", Message: msg, Status: 400}
	}
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "authentication required", Status: 401}
	ErrInternal     = func(msg string) *AppError {
		return &AppError{Code: "INTERNAL", Message: msg, Status: 500}
	}
	ErrConflict = func(msg string) *AppError {
		return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
	}
	ErrBusy = func(entity string) *AppError {
		return &AppError{Code: CodeBusy, Message: entity + " operation already in progress", Field: entity, Status: 409}
	}
	ErrNotMounted       = &AppError{Code: CodeNotMounted, Message: "boot partition is not mounted", Status: 409}
	ErrAlreadyMounted   = &AppError{Code: CodeAlreadyMounted, Message: "boot partition is already mounted", Status: 409}
	ErrPermissionDenied = &AppError{Code: CodePermissionDenied, Message: PermissionDeniedMessage, Status: 403}
	ErrRemote           = func(code string) *AppError {
		return &AppError{Code: code, Message: "Error: " + code, Status: 502}
	}
	ErrTransport = func(msg string) *AppError {
		return &AppError{Code: CodeTransport, Message: "Error: " + msg, Status: 502}
	}
)
