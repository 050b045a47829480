package journal

import (
	"fmt"

	"mercator-hq/docgate/pkg/submission"
)

const (
	// DefaultLimit is applied by ApplyDefaults when no limit is given.
	DefaultLimit = 100

	// MaxLimit is the largest limit Validate accepts.
	MaxLimit = 10000

	SortAsc  = "asc"
	SortDesc = "desc"
)

var validOutcomes = map[string]bool{
	string(submission.ResultSuccess):   true,
	string(submission.ResultInvalid):   true,
	string(submission.ResultEncode):    true,
	string(submission.ResultAdmission): true,
	string(submission.ResultTransport): true,
	string(submission.ResultRejected):  true,
}

// Validate returns a QueryError if q is malformed.
func Validate(q *Query) error {
	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.SortOrder != "" && q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		return NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.Since != nil && q.Until != nil && q.Since.After(*q.Until) {
		return NewQueryError(q, fmt.Errorf("since must not be after until"))
	}
	if q.Outcome != "" && !validOutcomes[q.Outcome] {
		return NewQueryError(q, fmt.Errorf("invalid outcome: %s", q.Outcome))
	}
	return nil
}

// ApplyDefaults fills in the default limit and sort order.
func ApplyDefaults(q *Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
}
