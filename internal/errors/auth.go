package errors

var (
	ErrInvalidOrExpiredCode = &DomainError{
		Code:    "INVALID_OR_EXPIRED_CODE",
		Message: "the code is invalid or has expired",
		Kind:    KindConflict,
	}
	ErrEmailExists = &DomainError{
		Code:    "EMAIL_EXISTS",
		Message: "an account with this email already exists, reset your password instead",
		Kind:    KindConflict,
	}
	ErrPhoneMismatch = &DomainError{
		Code:    "PHONE_MISMATCH",
		Message: "the phone number does not match our records",
		Kind:    KindConflict,
	}
	ErrUserNotFound = &DomainError{
		Code:    "USER_NOT_FOUND",
		Message: "no account exists for this email",
		Kind:    KindNotFound,
	}
	ErrPhoneTaken = &DomainError{
		Code:    "PHONE_TAKEN",
		Message: "this phone number is already used by another account",
		Kind:    KindConflict,
	}
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
		Kind:    KindUnauthorized,
	}
	ErrPasswordNotSet = &DomainError{
		Code:    "PASSWORD_NOT_SET",
		Message: "this account has no password yet, sign in with a one-time code",
		Kind:    KindConflict,
	}
	ErrInvalidToken = &DomainError{
		Code:    "INVALID_TOKEN",
		Message: "invalid or expired token",
		Kind:    KindUnauthorized,
	}
	ErrAccountBlocked = &DomainError{
		Code:    "ACCOUNT_BLOCKED",
		Message: "your account is blocked, please contact support",
		Kind:    KindForbidden,
	}
	ErrForbidden = &DomainError{
		Code:    "FORBIDDEN",
		Message: "insufficient permissions",
		Kind:    KindForbidden,
	}
)
