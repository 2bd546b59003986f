package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
)

// TestCapabilityGrid pins the complete role×operation grant table.
func TestCapabilityGrid(t *testing.T) {
	caps := DefaultCapabilities()

	granted := map[domain.Role]map[domain.Operation]bool{
		domain.RoleManager: {
			domain.OpApprove: true,
			domain.OpCancel:  true,
		},
		domain.RoleBaker: {
			domain.OpStartBaking:    true,
			domain.OpCompleteBaking: true,
		},
		domain.RoleDelivery: {
			domain.OpStartShipping:     true,
			domain.OpMarkCannotDeliver: true,
			domain.OpMarkDelivered:     true,
		},
		domain.RoleAdministrator: {
			domain.OpApprove:           true,
			domain.OpCancel:            true,
			domain.OpStartBaking:       true,
			domain.OpCompleteBaking:    true,
			domain.OpStartShipping:     true,
			domain.OpMarkCannotDeliver: true,
			domain.OpMarkDelivered:     true,
			domain.OpForceSetStatus:    true,
		},
		domain.RoleCustomer: {},
	}

	allOps := append(domain.TransitionOperations(), domain.OpForceSetStatus)
	roles := []domain.Role{
		domain.RoleManager, domain.RoleBaker, domain.RoleDelivery,
		domain.RoleAdministrator, domain.RoleCustomer,
	}

	for _, role := range roles {
		for _, op := range allOps {
			assert.Equal(t, granted[role][op], caps.Allows(role, op), "role=%s op=%s", role, op)
		}
	}
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	caps := DefaultCapabilities()
	for _, op := range domain.TransitionOperations() {
		assert.False(t, caps.Allows(domain.Role("intern"), op))
	}
}
