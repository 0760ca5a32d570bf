package pipeline

import (
	"context"
	"errors"
	"net/url"

	"aniscan/internal/anime"
)

// OutcomeKind tags the result of one fetch+parse attempt.
type OutcomeKind int

const (
	// OutcomeSuccess means the document was fetched and parsed.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeParseFailed means the document was fetched but its
	// structure was unusable. Never retried.
	OutcomeParseFailed
	// OutcomeFetchFailed means the document could not be fetched.
	OutcomeFetchFailed
)

// FetchOutcome is the exhaustively-cased result of one attempt, so
// every consumer handles every case instead of catching exceptions.
type FetchOutcome struct {
	Kind     OutcomeKind
	Episodes anime.EpisodeList // valid when Kind == OutcomeSuccess

	// Failure details, valid when Kind != OutcomeSuccess.
	Reason      string
	Class       Classification
	Retryable   bool
	RateLimited bool // retryable, but deserves a longer backoff
}

func successOutcome(ep anime.EpisodeList) FetchOutcome {
	return FetchOutcome{Kind: OutcomeSuccess, Episodes: ep}
}

func parseFailedOutcome(reason string) FetchOutcome {
	return FetchOutcome{
		Kind:   OutcomeParseFailed,
		Reason: reason,
		Class:  ClassParse,
	}
}

// classifyFetchError maps a fetch error onto the failure taxonomy:
// network trouble is retryable, rate-limit and server-side statuses are
// retryable with appropriate pacing, missing identifiers and mis-shaped
// documents are terminal.
func classifyFetchError(err error) FetchOutcome {
	var statusErr *anime.HTTPStatusError
	if errors.As(err, &statusErr) {
		return FetchOutcome{
			Kind:        OutcomeFetchFailed,
			Reason:      statusErr.Error(),
			Class:       ClassHTTPStatus,
			Retryable:   statusErr.Retryable(),
			RateLimited: statusErr.StatusCode == 429,
		}
	}

	var parseErr *anime.ParseError
	if errors.As(err, &parseErr) {
		return parseFailedOutcome(parseErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FetchOutcome{
			Kind:      OutcomeFetchFailed,
			Reason:    "fetch timed out",
			Class:     ClassNetwork,
			Retryable: true,
		}
	}
	if errors.Is(err, context.Canceled) {
		return FetchOutcome{
			Kind:   OutcomeFetchFailed,
			Reason: "run cancelled",
			Class:  ClassOther,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return FetchOutcome{
			Kind:      OutcomeFetchFailed,
			Reason:    urlErr.Error(),
			Class:     ClassNetwork,
			Retryable: true,
		}
	}

	return FetchOutcome{
		Kind:   OutcomeFetchFailed,
		Reason: err.Error(),
		Class:  ClassOther,
	}
}
