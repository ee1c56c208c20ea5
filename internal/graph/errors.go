package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog/log"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/errx"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/metrics"
)

// gqlError is what the execution engine sees. Its Extensions end up in the
// "extensions" member of the response error.
type gqlError struct {
	message string
	code    string
	err     error
}

func (e *gqlError) Error() string { return e.message }

func (e *gqlError) Unwrap() error { return e.err }

func (e *gqlError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// presentError converts a resolver error into its client form. Errors that
// did not originate in this package keep their message.
func presentError(err error) error {
	if err == nil {
		return nil
	}

	kind := errx.KindOf(err)
	code := kind.Code()
	metrics.ResolverErrors.WithLabelValues(code).Inc()

	switch kind {
	case errx.Unknown, errx.Internal, errx.Unavailable:
		log.Error().
			Err(err).
			Str("op", errx.OpOf(err)).
			Str("code", code).
			Msg("resolver failed")
	default:
		log.Debug().
			Err(err).
			Str("code", code).
			Msg("resolver rejected request")
	}

	return &gqlError{
		message: errx.Message(err),
		code:    code,
		err:     err,
	}
}

// resolveWith adapts a resolver to the engine and presents its errors.
func resolveWith(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v, err := fn(p)
		if err != nil {
			return nil, presentError(err)
		}
		return v, nil
	}
}
