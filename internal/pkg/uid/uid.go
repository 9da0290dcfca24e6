// Package uid generates identifiers: snowflake numbers for user primary keys
// and UUIDv7 strings for token IDs and correlation IDs.
package uid

type NumberID interface {
	Generate() int64
}

type StringID interface {
	Generate() string
}
