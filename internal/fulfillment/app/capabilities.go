package app

import "github.com/ovenline/fulfillment/internal/fulfillment/domain"

// CapabilityTable maps a role to the set of operations it may invoke. It is
// built once at startup and read-only thereafter, so it is safe to share
// across concurrent requests. Having a single table replaces the per-route
// role checks the workflow would otherwise accumulate.
type CapabilityTable map[domain.Role]map[domain.Operation]struct{}

// DefaultCapabilities returns the static role→operation grant table:
// managers gate intake, bakers produce, delivery closes out, administrators
// may do everything including the force-set-status override. Customers hold
// no capabilities here.
func DefaultCapabilities() CapabilityTable {
	grant := func(ops ...domain.Operation) map[domain.Operation]struct{} {
		set := make(map[domain.Operation]struct{}, len(ops))
		for _, op := range ops {
			set[op] = struct{}{}
		}
		return set
	}

	adminOps := append(domain.TransitionOperations(), domain.OpForceSetStatus)

	return CapabilityTable{
		domain.RoleManager:       grant(domain.OpApprove, domain.OpCancel),
		domain.RoleBaker:         grant(domain.OpStartBaking, domain.OpCompleteBaking),
		domain.RoleDelivery:      grant(domain.OpStartShipping, domain.OpMarkCannotDeliver, domain.OpMarkDelivered),
		domain.RoleAdministrator: grant(adminOps...),
		domain.RoleCustomer:      grant(),
	}
}

// Allows reports whether role holds the capability for op.
func (t CapabilityTable) Allows(role domain.Role, op domain.Operation) bool {
	ops, ok := t[role]
	if !ok {
		return false
	}
	_, ok = ops[op]
	return ok
}
