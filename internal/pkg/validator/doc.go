// Package validator checks request structs against their `validate` tags.
//
// Failures come back as a V10ValidationError keyed by snake_case field path,
// so `Members[1].Email` is reported as `members[1].email`.
package validator
