// Package otp generates the short numeric one-time codes mailed to users.
//
// Codes are uniformly random six digit numbers in [100000, 999999]. They are
// not time based: the caller stores the code with an absolute expiry and
// compares it later.
package otp
