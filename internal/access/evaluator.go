package access

import (
	"context"
	"log/slog"
	"strings"

	"clubportal/internal/model"
)

// CapabilityStore resolves the two sources a capability can come from.
type CapabilityStore interface {
	// AssignedRoles returns roles assigned directly to the user.
	AssignedRoles(ctx context.Context, userID uint) ([]model.Role, error)
	// PositionRole returns the role linked to the TeamPosition matching the
	// user's profile position, or nil when there is none.
	PositionRole(ctx context.Context, userID uint) (*model.Role, error)
}

// Decision is the outcome of a permission evaluation.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Evaluator decides whether a principal may perform a verb on a resource type.
type Evaluator struct {
	store  CapabilityStore
	logger *slog.Logger
}

// NewEvaluator creates an evaluator backed by store.
func NewEvaluator(store CapabilityStore, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: store, logger: logger}
}

// Evaluate runs the ordered checks and returns the first matching decision.
// Object-level checks use the same rules as type-level ones; ownership
// exceptions belong to the domain services.
func (e *Evaluator) Evaluate(ctx context.Context, p *Principal, resource ResourceType, verb Verb, objectLevel bool) Decision {
	decision, reason := e.evaluate(ctx, p, resource, verb)
	e.logger.DebugContext(ctx, "permission check",
		slog.String("resource", resource.String()),
		slog.String("verb", verb.String()),
		slog.Bool("object_level", objectLevel),
		slog.Any("user_id", p.ID()),
		slog.String("decision", decision.String()),
		slog.String("reason", reason),
	)
	return decision
}

func (e *Evaluator) evaluate(ctx context.Context, p *Principal, resource ResourceType, verb Verb) (Decision, string) {
	if IsPublic(resource, verb) {
		return Allow, "public"
	}
	if !p.Authenticated() {
		return Deny, "anonymous"
	}
	if p.IsSuperuser {
		return Allow, "superuser"
	}

	caps := e.Capabilities(ctx, p)
	if caps.Has(ManageSecurity) {
		return Allow, "manage_security"
	}

	required, mapped := RequiredCapability(resource)
	if !mapped {
		return Deny, "unmapped"
	}
	if caps.Has(required) {
		return Allow, required.String()
	}
	if contentCapabilities[required] && caps.Has(ManageContent) {
		return Allow, "manage_content"
	}
	return Deny, "missing " + required.String()
}

// Capabilities returns the union of capabilities from assigned roles and the
// role linked to the principal's team position. Lookup failures contribute
// nothing.
func (e *Evaluator) Capabilities(ctx context.Context, p *Principal) CapabilitySet {
	set := CapabilitySet{}
	if !p.Authenticated() {
		return set
	}

	roles, err := e.store.AssignedRoles(ctx, p.UserID)
	if err != nil {
		e.logger.WarnContext(ctx, "assigned roles lookup failed", slog.Uint64("user_id", uint64(p.UserID)), slog.Any("error", err))
	}
	for i := range roles {
		set.addRole(&roles[i])
	}

	linked, err := e.store.PositionRole(ctx, p.UserID)
	if err != nil {
		e.logger.WarnContext(ctx, "position role lookup failed", slog.Uint64("user_id", uint64(p.UserID)), slog.Any("error", err))
	}
	set.addRole(linked)

	return set
}

// HasCapability reports whether p holds c through either source.
// Superusers hold every capability.
func (e *Evaluator) HasCapability(ctx context.Context, p *Principal, c Capability) bool {
	if !p.Authenticated() {
		return false
	}
	if p.IsSuperuser {
		return true
	}
	return e.Capabilities(ctx, p).Has(c)
}

// webLeadRoleName is the assigned-role name treated like the WEB_LEAD primary role.
const webLeadRoleName = "WEB_LEAD"

// IsWebLead reports whether p carries the WEB_LEAD primary role or an assigned
// role of that name.
func (e *Evaluator) IsWebLead(ctx context.Context, p *Principal) bool {
	if !p.Authenticated() {
		return false
	}
	if p.Role == model.RoleWebLead {
		return true
	}
	roles, err := e.store.AssignedRoles(ctx, p.UserID)
	if err != nil {
		e.logger.WarnContext(ctx, "assigned roles lookup failed", slog.Uint64("user_id", uint64(p.UserID)), slog.Any("error", err))
		return false
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, webLeadRoleName) {
			return true
		}
	}
	return false
}
