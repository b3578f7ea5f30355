package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyAdvice means the provider answered without any usable recommendation.
var ErrEmptyAdvice = errors.New("ai returned no recommendations")
