package errors

var (
	ErrInsufficientCredits = &DomainError{
		Code:    "INSUFFICIENT_CREDITS",
		Message: "you have no credits left, buy a credit package to publish",
		Kind:    KindConflict,
	}
	ErrComplianceViolation = &DomainError{
		Code:    "COMPLIANCE_VIOLATION",
		Message: "this listing violates our publishing rules and your account has been blocked, please contact support",
		Kind:    KindCompliance,
	}
	ErrPropertyNotFound = &DomainError{
		Code:    "PROPERTY_NOT_FOUND",
		Message: "listing not found",
		Kind:    KindNotFound,
	}
	ErrNotOwner = &DomainError{
		Code:    "NOT_OWNER",
		Message: "you do not own this listing",
		Kind:    KindForbidden,
	}
	ErrInvalidTransition = &DomainError{
		Code:    "INVALID_STATUS_TRANSITION",
		Message: "the listing cannot change to the requested status",
		Kind:    KindConflict,
	}
	ErrInvalidExtra = &DomainError{
		Code:    "INVALID_EXTRA",
		Message: "unknown extra type or invalid duration",
		Kind:    KindValidation,
	}
	ErrAdNotFound = &DomainError{
		Code:    "AD_NOT_FOUND",
		Message: "ad not found",
		Kind:    KindNotFound,
	}
	ErrKeywordNotFound = &DomainError{
		Code:    "KEYWORD_NOT_FOUND",
		Message: "keyword not found",
		Kind:    KindNotFound,
	}
)
