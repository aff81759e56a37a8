package species

import "errors"

var (
	// ErrMissingKey is returned when a record has no scientific name
	ErrMissingKey = errors.New("scientific name is required")

	// ErrInvalidField is returned when a string field can't be stored on a single line
	ErrInvalidField = errors.New("field cannot contain newlines")

	// ErrDuplicateKey is returned by Insert when the scientific name is already stored
	ErrDuplicateKey = errors.New("species already exists")

	// ErrNotFound is returned by Find and Update when no record matches the key
	ErrNotFound = errors.New("species not found")

	// ErrMalformedRow is returned when a data row has fewer than 8 columns.
	// It means the file is corrupted and retrying won't help.
	ErrMalformedRow = errors.New("malformed row")

	// ErrInvalidNumber is returned only with NumericStrict
	ErrInvalidNumber = errors.New("invalid number")
)
