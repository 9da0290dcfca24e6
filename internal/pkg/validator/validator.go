package validator

// Validator validates a struct and returns an error describing every failing
// field, or nil.
type Validator interface {
	Validate(data any) error
}
