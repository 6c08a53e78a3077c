package errors

var (
	ErrUnavailable = &DomainError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: "something went wrong on our side, please try again",
		Kind:    KindUnavailable,
	}
	ErrDataStore = &DomainError{
		Code:    "DATA_STORE_UNAVAILABLE",
		Message: "something went wrong on our side, please try again",
		Kind:    KindUnavailable,
	}
	ErrDeliveryFailed = &DomainError{
		Code:    "DELIVERY_FAILED",
		Message: "we could not send the email, please try again",
		Kind:    KindUnavailable,
	}
	ErrStorageFailed = &DomainError{
		Code:    "STORAGE_FAILED",
		Message: "the upload failed, please try again",
		Kind:    KindUnavailable,
	}
	ErrPaymentProvider = &DomainError{
		Code:    "PAYMENT_PROVIDER_FAILED",
		Message: "the payment provider is unavailable, please try again",
		Kind:    KindUnavailable,
	}
	ErrPackageNotFound = &DomainError{
		Code:    "PACKAGE_NOT_FOUND",
		Message: "package not found or no longer available",
		Kind:    KindNotFound,
	}
	ErrInvalidMetadata = &DomainError{
		Code:    "INVALID_METADATA",
		Message: "payment event metadata is malformed",
		Kind:    KindValidation,
	}
	ErrInvalidSignature = &DomainError{
		Code:    "INVALID_SIGNATURE",
		Message: "webhook signature verification failed",
		Kind:    KindValidation,
	}
	ErrDuplicatePayment = &DomainError{
		Code:    "DUPLICATE_PAYMENT",
		Message: "payment already processed",
		Kind:    KindConflict,
	}
)
