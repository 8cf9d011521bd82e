package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrTokenRevoked       ErrCode = "TOKEN_REVOKED"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrUsernameTaken      ErrCode = "USERNAME_TAKEN"
	ErrResetTokenInvalid  ErrCode = "RESET_TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrInvalidQuestion   ErrCode = "INVALID_QUESTION"
	ErrInvalidTestConfig ErrCode = "INVALID_TEST_CONFIG"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrNoActiveTest      ErrCode = "NO_ACTIVE_TEST"
	ErrResultNotFound    ErrCode = "RESULT_NOT_FOUND"
	ErrNotResultOwner    ErrCode = "NOT_RESULT_OWNER"

	// ─── Payments ──────────────────────────────────────────────────────
	ErrPaymentRequired    ErrCode = "PAYMENT_REQUIRED"
	ErrAlreadyPurchased   ErrCode = "ALREADY_PURCHASED"
	ErrOrderNotFound      ErrCode = "ORDER_NOT_FOUND"
	ErrPaymentPending     ErrCode = "PAYMENT_PENDING"
	ErrPaymentFailed      ErrCode = "PAYMENT_FAILED"
	ErrInvalidSignature   ErrCode = "INVALID_SIGNATURE"
	ErrAmountMismatch     ErrCode = "AMOUNT_MISMATCH"
	ErrGatewayUnavailable ErrCode = "GATEWAY_UNAVAILABLE"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired. Please log in again."
	case ErrTokenRevoked:
		return "This session has been logged out. Please log in again."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrUsernameTaken:
		return "This username is already taken."
	case ErrResetTokenInvalid:
		return "This password reset link is invalid or has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrAdminAccessOnly:
		return "Only administrators can access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request body could not be read."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The data conflicts with an existing record."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrInvalidQuestion:
		return "The question is invalid."
	case ErrInvalidTestConfig:
		return "The test configuration is invalid."
	case ErrNoQuestions:
		return "No questions are available for the test yet."
	case ErrNoActiveTest:
		return "There is no open test to submit. Start a new test first."
	case ErrResultNotFound:
		return "Result not found."
	case ErrNotResultOwner:
		return "This result belongs to another user."

	// ─── Payments ──────────────────────────────────────────────────────
	case ErrPaymentRequired:
		return "The certificate for this result has not been purchased."
	case ErrAlreadyPurchased:
		return "The certificate for this result has already been purchased."
	case ErrOrderNotFound:
		return "Payment order not found."
	case ErrPaymentPending:
		return "The payment has not been completed yet."
	case ErrPaymentFailed:
		return "The payment was not successful."
	case ErrInvalidSignature:
		return "The payment signature could not be verified."
	case ErrAmountMismatch:
		return "The paid amount does not match the order."
	case ErrGatewayUnavailable:
		return "The payment gateway is unavailable. Please try again."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file is required."
	case ErrUnsupportedFile:
		return "Unsupported file type. Allowed: JPEG, PNG, GIF."
	case ErrFileTooLarge:
		return "The file exceeds the maximum upload size."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
