package gist

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"

	"github.com/google/go-github/v66/github"

	"github.com/vittorius/zed-settings-sync/internal/remote"
)

// classify maps an error from the GitHub client onto the remote taxonomy.
// Anything without an explicit mapping degrades to KindUnclassified.
func classify(err error) *remote.Error {
	if err == nil {
		return nil
	}

	var (
		errResp     *github.ErrorResponse
		rateErr     *github.RateLimitError
		abuseErr    *github.AbuseRateLimitError
		twoFactor   *github.TwoFactorAuthError
		acceptedErr *github.AcceptedError
		urlErr      *url.Error
		netErr      net.Error
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &errResp),
		errors.As(err, &rateErr),
		errors.As(err, &abuseErr),
		errors.As(err, &twoFactor),
		errors.As(err, &acceptedErr):
		return &remote.Error{Kind: remote.KindRemoteService, Err: err}

	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &urlErr),
		errors.As(err, &netErr),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return &remote.Error{Kind: remote.KindTransport, Err: err}

	default:
		e := remote.Unclassified("unexpected error from the GitHub client (%T): %v", err, err)
		e.Err = err
		return e
	}
}
