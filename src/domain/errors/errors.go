package errors

import "errors"

const (
	// NotFound error indicates a missing resource
	NotFound        = "NotFound"
	notFoundMessage = "record not found"

	// ValidationError indicates an error in input validation
	ValidationError        = "ValidationError"
	validationErrorMessage = "validation error"

	// ResourceAlreadyExists indicates a duplicate / uniqueness error
	ResourceAlreadyExists = "ResourceAlreadyExists"
	alreadyExistsMessage  = "resource already exists"

	// RepositoryError indicates a repository (e.g., database) error
	RepositoryError        = "RepositoryError"
	repositoryErrorMessage = "error in repository operation"

	// NotAuthenticated indicates an authentication error
	NotAuthenticated            = "NotAuthenticated"
	notAuthenticatedMessage     = "not authenticated"
	NotAuthorized               = "NotAuthorized"
	notAuthorizedMessage        = "not authorized"
	TokenGeneratorError         = "TokenGeneratorError"
	tokenGeneratorErrorMessage  = "error in token generation"
	InvalidStateTransition      = "InvalidStateTransition"
	invalidStateTransitionError = "lifecycle state transition not allowed"

	// UnknownError indicates an error that the app cannot find the cause for
	UnknownError        = "UnknownError"
	unknownErrorMessage = "something went wrong"
)

// AppError defines an application (domain) error
type AppError struct {
	Err  error
	Type string
}

// NewAppError initializes a new domain error using an error and its type
func NewAppError(err error, errType string) *AppError {
	return &AppError{
		Err:  err,
		Type: errType,
	}
}

// NewAppErrorWithType initializes a new default error for a given type
func NewAppErrorWithType(errType string) *AppError {
	var err error

	switch errType {
	case NotFound:
		err = errors.New(notFoundMessage)
	case ValidationError:
		err = errors.New(validationErrorMessage)
	case ResourceAlreadyExists:
		err = errors.New(alreadyExistsMessage)
	case RepositoryError:
		err = errors.New(repositoryErrorMessage)
	case NotAuthenticated:
		err = errors.New(notAuthenticatedMessage)
	case NotAuthorized:
		err = errors.New(notAuthorizedMessage)
	case TokenGeneratorError:
		err = errors.New(tokenGeneratorErrorMessage)
	case InvalidStateTransition:
		err = errors.New(invalidStateTransitionError)
	default:
		err = errors.New(unknownErrorMessage)
	}

	return &AppError{
		Err:  err,
		Type: errType,
	}
}

// String converts the app error to a human-readable string
func (appErr *AppError) Error() string {
	return appErr.Err.Error()
}
