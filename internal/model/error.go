package model

import "errors"

var ErrorAuthenticationFailure = errors.New("incorrect credentials")
var ErrorForbidden = errors.New("forbidden")
var ErrorUserNotFound = errors.New("user not found")
var ErrorInvalidToken = errors.New("invalid token")
var ErrorEmailDelivery = errors.New("email delivery failed")
var ErrorEmailInUse = errors.New("email in use")

// ValidationError aggregates every failed field check of a request. Values
// are message keys resolved to localised text at the boundary.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failure"
}
