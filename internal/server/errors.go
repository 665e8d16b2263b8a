package server

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/at-ishikawa/elicitor/internal/elicitation"
	"github.com/at-ishikawa/elicitor/internal/remote"
	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

// ErrorDomain is the ErrorInfo domain attached to wordlist errors.
const ErrorDomain = "elicitor"

// ErrorInfo reasons. Clients use them to tell an unreadable file apart from
// a readable file that holds nothing to import.
const (
	ReasonMalformedDocument      = "MALFORMED_DOCUMENT"
	ReasonDecodeError            = "DECODE_ERROR"
	ReasonNoEntriesFound         = "NO_ENTRIES_FOUND"
	ReasonSerializationInvariant = "SERIALIZATION_INVARIANT"
)

// toConnectError maps domain errors to connect codes.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var statusErr *remote.StatusError
	switch {
	case errors.Is(err, wordlist.ErrNoEntriesFound):
		return withReason(connect.CodeInvalidArgument, err, ReasonNoEntriesFound)
	case errors.Is(err, wordlist.ErrDecode):
		return withReason(connect.CodeInvalidArgument, err, ReasonDecodeError)
	case errors.Is(err, wordlist.ErrMalformedDocument):
		return withReason(connect.CodeInvalidArgument, err, ReasonMalformedDocument)
	case errors.Is(err, elicitation.ErrEmptyAudio),
		errors.Is(err, elicitation.ErrInvalidPosition):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, elicitation.ErrEntryNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &statusErr):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, wordlist.ErrSerializationInvariant):
		slog.Default().Error("wordlist serialization invariant violated", slog.Any("error", err))
		return withReason(connect.CodeInternal, err, ReasonSerializationInvariant)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func withReason(code connect.Code, err error, reason string) *connect.Error {
	connectErr := connect.NewError(code, err)
	if detail, detailErr := connect.NewErrorDetail(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: ErrorDomain,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}
