// Package apierror maps domain errors onto HTTP errors for the shared error middleware
package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/locks"
	"github.com/Ramsey-B/clover/pkg/merging"
)

// FromError converts err into an HTTP error. HTTP errors pass through unchanged.
func FromError(err error) error {
	if err == nil || httperror.IsHTTPError(err) {
		return err
	}

	var mergeErr *merging.MergeError
	state := ""
	if errors.As(err, &mergeErr) {
		state = fmt.Sprintf(" (%s)", mergeErr.State)
	}

	switch {
	case errors.Is(err, merging.ErrInsufficientSelection):
		return httperror.NewHTTPError(http.StatusBadRequest, "at least two distinct contacts are required to merge")
	case errors.Is(err, dedupe.ErrContactNotFound):
		return httperror.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, locks.ErrLockNotAcquired):
		return httperror.NewHTTPError(http.StatusConflict, "another operation is in progress for this tenant, retry later")
	case errors.Is(err, merging.ErrStoreFetchFailure):
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "contact store unavailable"+state)
	case errors.Is(err, merging.ErrStoreTransactionFailure):
		return httperror.NewHTTPError(http.StatusInternalServerError, "merge could not be committed"+state)
	case errors.Is(err, context.DeadlineExceeded):
		return httperror.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
	default:
		return httperror.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
