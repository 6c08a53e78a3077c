package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// String lengths
	MaxTitleLength       = 150
	MaxDescriptionLength = 5000
	MaxNameLength        = 120
	MaxKeywordLength     = 100

	OTPCodeLength = 6
)
