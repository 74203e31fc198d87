package rfm

import "errors"

// ErrPrecondition signals that a pipeline stage ran before its predecessor, or
// that a summary was requested for a zero-customer dataset. It indicates a
// caller ordering bug and is never retried.
var ErrPrecondition = errors.New("pipeline precondition not met")

// ErrDataQuality signals defective input: missing required columns, values
// that cannot be coerced, or a metric distribution too degenerate to bucket.
// Upload layers surface these to the user as validation failures.
var ErrDataQuality = errors.New("data quality")

// ErrCustomerNotFound is returned by per-customer lookups for unknown ids.
var ErrCustomerNotFound = errors.New("customer not found")
