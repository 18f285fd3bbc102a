package policy

import "strings"

// RoleAdmin bypasses ownership scoping everywhere.
const RoleAdmin = "ADMIN"

type Input struct {
	Authenticated bool
	Role          string
	Operation     string
	// Owner reports whether the acting principal is the owning party of the
	// target record (the posting client, or the assigned writer). Only
	// consulted for owner_only operations.
	Owner bool
}

type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`
}

const (
	ReasonOK               = "ok"
	ReasonNoCredential     = "no_credential"
	ReasonUnknownOperation = "unknown_operation"
	ReasonRoleNotAllowed   = "role_not_allowed"
	ReasonNotOwner         = "not_owner"
)

func allow() Decision        { return Decision{Allow: true, Reason: ReasonOK} }
func deny(r string) Decision { return Decision{Allow: false, Reason: r} }

// Evaluate applies the rules in priority order: credential presence, the
// operation's role allowlist, then ownership scoping (admins exempt). It
// never mutates anything.
func Evaluate(spec Spec, in Input) Decision {
	if !in.Authenticated {
		return deny(ReasonNoCredential)
	}

	op, ok := spec.Operation(in.Operation)
	if !ok {
		return deny(ReasonUnknownOperation)
	}

	role := strings.ToUpper(strings.TrimSpace(in.Role))
	allowed := false
	for _, candidate := range op.Roles {
		if strings.EqualFold(strings.TrimSpace(candidate), role) {
			allowed = true
			break
		}
	}
	if !allowed {
		return deny(ReasonRoleNotAllowed)
	}

	if op.OwnerOnly && role != RoleAdmin && !in.Owner {
		return deny(ReasonNotOwner)
	}

	return allow()
}
