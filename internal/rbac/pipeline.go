package rbac

import (
	"context"
	"log/slog"
	"net/http"
)

// Stage names a step of the request pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageReceived   Stage = "received"
	StageParsed     Stage = "parsed"
	StageIdentified Stage = "identified"
	StageScoped     Stage = "scoped"
	StageAuthorized Stage = "authorized"
	StageDispatched Stage = "dispatched"
)

// Reason classifies a rejected request.
type Reason string

// Rejection reasons.
const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision outcomes reported to the Recorder.
const (
	OutcomeAllowed         = "allowed"
	OutcomeForbidden       = "forbidden"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomePublic          = "public"
	OutcomeSystem          = "system"
	OutcomeError           = "error"
)

// IdentityResolver turns a verified request into an Identity. A request with
// no credentials yields (nil, nil); invalid credentials yield an error.
type IdentityResolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

// Authorizer is the evaluation contract the pipeline needs from Engine.
type Authorizer interface {
	Evaluate(ctx context.Context, customer, roleName string, target Permission) (Verdict, error)
}

// Recorder receives one outcome per authorization decision.
type Recorder interface {
	RecordDecision(outcome string)
}

// Decision is the combined scoping and authorization result.
type Decision struct {
	Allowed bool
	Params  Params
	Verdict Verdict
	Reason  Reason
}

// Pipeline is the enforcement point every request passes through.
type Pipeline struct {
	catalog  *Catalog
	engine   Authorizer
	resolver IdentityResolver
	logger   *slog.Logger
	recorder Recorder
}

// NewPipeline wires the pipeline collaborators. recorder may be nil.
func NewPipeline(catalog *Catalog, engine Authorizer, resolver IdentityResolver, logger *slog.Logger, recorder Recorder) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{catalog: catalog, engine: engine, resolver: resolver, logger: logger, recorder: recorder}
}

// AuthorizeAndScope runs the SCOPED and AUTHORIZED stages. An empty target
// means the route has no mapping and is public. A non-nil error is an
// infrastructure failure and carries no verdict.
func (p *Pipeline) AuthorizeAndScope(ctx context.Context, id *Identity, target Permission, params Params) (Decision, error) {
	scoped := Scope(id, params)
	decision := Decision{Params: scoped, Verdict: Verdict{Permission: target}}

	switch {
	case target == "":
		p.record(OutcomePublic)
		decision.Allowed = true
		decision.Verdict.Allowed = true
		return decision, nil
	case id == nil:
		p.record(OutcomeUnauthenticated)
		decision.Reason = ReasonUnauthenticated
		return decision, nil
	case id.IsSystem:
		p.record(OutcomeSystem)
		decision.Allowed = true
		decision.Verdict.Allowed = true
		return decision, nil
	}

	verdict, err := p.engine.Evaluate(ctx, id.Customer, id.Role, target)
	if err != nil {
		p.record(OutcomeError)
		return Decision{}, err
	}
	decision.Verdict = verdict
	if !verdict.Allowed {
		p.record(OutcomeForbidden)
		decision.Reason = ReasonForbidden
		return decision, nil
	}
	p.record(OutcomeAllowed)
	decision.Allowed = true
	return decision, nil
}

func (p *Pipeline) record(outcome string) {
	if p.recorder != nil {
		p.recorder.RecordDecision(outcome)
	}
}
