package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/tmrivera/cardhaven-backend/api/responses"
	"github.com/tmrivera/cardhaven-backend/api/validators"
	"github.com/tmrivera/cardhaven-backend/internal/search"
	pkgerrors "github.com/tmrivera/cardhaven-backend/pkg/errors"
	"github.com/tmrivera/cardhaven-backend/pkg/justtcg"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
)

const (
	maxQueryLength  = 200
	sessionIDHeader = "X-Session-Id"
)

// SearchService is the autocomplete surface exposed over HTTP.
type SearchService interface {
	Autocomplete(ctx context.Context, sessionID, query string) ([]justtcg.Suggestion, error)
	FilterCounts(ctx context.Context, query string) (map[string]int, error)
}

// SearchAutocomplete proxies a debounced suggestion query. A query superseded
// by a newer one from the same session, or abandoned by the client, returns an
// empty result rather than an error.
func SearchAutocomplete(svc SearchService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}

		query, err := validators.RequireQuery(r, "q")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query = validators.SanitizeString(query, maxQueryLength)
		sessionID := sessionIDFromRequest(r)

		suggestions, err := svc.Autocomplete(r.Context(), sessionID, query)
		if err != nil {
			if errors.Is(err, search.ErrSuperseded) || errors.Is(err, context.Canceled) {
				responses.WriteSuccess(w, []justtcg.Suggestion{})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if suggestions == nil {
			suggestions = []justtcg.Suggestion{}
		}

		responses.WriteSuccess(w, suggestions)
	}
}

// SearchFilterCounts returns suggestion counts grouped by set for the query.
func SearchFilterCounts(svc SearchService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}

		query, err := validators.RequireQuery(r, "q")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query = validators.SanitizeString(query, maxQueryLength)

		counts, err := svc.FilterCounts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, counts)
	}
}

// sessionIDFromRequest scopes debouncing. A client without the session header
// falls back to its IP so concurrent strangers never cancel each other.
func sessionIDFromRequest(r *http.Request) string {
	if session := r.Header.Get(sessionIDHeader); session != "" {
		return session
	}
	return clientAddr(r)
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
