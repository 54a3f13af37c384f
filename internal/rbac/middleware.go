package rbac

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// MaxBodyBytes caps request bodies decoded by the pipeline.
const MaxBodyBytes = 1 << 20

var errMalformedBody = errors.New("rbac: request body must be a JSON object")

// Middleware is the HTTP enforcement point: it parses parameters, resolves the
// caller, scopes the customer and authorizes the route before dispatching.
// Handlers read the outcome with ParamsFromContext and IdentityFromContext.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stage := StageReceived
		logger := p.logger.With(slog.String("method", r.Method), slog.String("path", r.URL.Path))

		params, err := parseParams(w, r)
		if err != nil {
			logger.Debug("request rejected", slog.String("stage", string(stage)), slog.Any("error", err))
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		stage = StageParsed

		target, mapped := p.catalog.Lookup(Endpoint(r.URL.Path), r.Method)

		var id *Identity
		if p.resolver != nil {
			resolved, err := p.resolver.Resolve(r)
			switch {
			case err == nil:
				id = resolved
			case mapped && errors.Is(err, ErrInfrastructure):
				p.record(OutcomeError)
				logger.Error("identity resolution failed",
					slog.String("stage", string(StageIdentified)),
					slog.String("permission", string(target)),
					slog.Any("error", err),
				)
				httpx.RespondError(w, err)
				return
			default:
				logger.Debug("identity not resolved", slog.Any("error", err))
			}
		}
		stage = StageIdentified

		decision, err := p.AuthorizeAndScope(r.Context(), id, target, params)
		if err != nil {
			logger.Error("authorization failed",
				slog.String("stage", string(StageAuthorized)),
				slog.String("permission", string(target)),
				slog.Any("error", err),
			)
			httpx.RespondError(w, err)
			return
		}
		stage = StageAuthorized

		switch decision.Reason {
		case ReasonUnauthenticated:
			logger.Info("request rejected", slog.String("stage", string(stage)), slog.String("reason", string(decision.Reason)))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		case ReasonForbidden:
			logger.Info("request rejected",
				slog.String("stage", string(stage)),
				slog.String("reason", string(decision.Reason)),
				slog.String("username", id.Username),
				slog.String("permission", string(target)),
			)
			httpx.RespondError(w, fmt.Errorf("%w: permission %s required", httpx.ErrForbidden, target))
			return
		}

		ctx := ContextWithParams(r.Context(), decision.Params)
		ctx = ContextWithIdentity(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseParams(w http.ResponseWriter, r *http.Request) (Params, error) {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		params := make(Params)
		for key, values := range r.URL.Query() {
			switch len(values) {
			case 0:
			case 1:
				params[key] = values[0]
			default:
				list := make([]any, len(values))
				for i, v := range values {
					list[i] = v
				}
				params[key] = list
			}
		}
		return params, nil
	}
	if r.Body == nil || r.Body == http.NoBody {
		return Params{}, nil
	}
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("rbac: read body: %w", err)
	}
	if len(raw) == 0 {
		return Params{}, nil
	}
	var params Params
	if err := json.Unmarshal(raw, &params); err != nil || params == nil {
		return nil, errMalformedBody
	}
	return params, nil
}
