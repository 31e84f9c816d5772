package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// classify maps a go-github failure onto the domain error vocabulary so the
// dispatcher can route it without knowing library types. Primary and
// secondary rate limits both become ErrQuotaExhausted; a 403 that is not
// rate limiting (token scope, SSO enforcement, search access restrictions)
// becomes ErrForbidden. Everything else passes through wrapped and is
// treated as transient by callers.
func classify(op string, err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w: %w", op, driven.ErrQuotaExhausted, err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w: %w", op, driven.ErrForbidden, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// isNotFetchable reports whether a contents fetch failed in a way that
// means the file simply cannot be scanned (gone, or access denied) rather
// than a fault worth surfacing. Rate-limit 403s are excluded; those must
// reach the dispatcher as quota errors.
func isNotFetchable(err error) bool {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return false
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		return code == http.StatusNotFound || code == http.StatusForbidden
	}
	return false
}
