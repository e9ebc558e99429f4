package services

import "errors"

// ErrValidation marks client-fixable request errors. Handlers map it to a
// 400 response; it is always returned before any side effect.
var ErrValidation = errors.New("validation failed")
