package service

import (
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Check selects one capability from a capability set.
type Check func(domain.Capabilities) bool

var (
	CanPurchaseProducts Check = func(c domain.Capabilities) bool { return c.CanPurchaseProducts }
	CanManageProducts   Check = func(c domain.Capabilities) bool { return c.CanManageProducts }
	CanManageOrders     Check = func(c domain.Capabilities) bool { return c.CanManageOrders }
	CanViewAnalytics    Check = func(c domain.Capabilities) bool { return c.CanViewAnalytics }
	IsAdmin             Check = func(c domain.Capabilities) bool { return c.IsAdmin }
)

// Require must pass before any mutating operation runs. Anonymous actors and
// actors that have not finished onboarding hold no capabilities.
func Require(actor domain.Actor, check Check, action string) error {
	if !actor.Onboarded() {
		return fmt.Errorf("%s: onboarding incomplete: %w", action, domain.ErrPermission)
	}
	if !check(actor.Capabilities()) {
		return fmt.Errorf("%s: not allowed for role %s: %w", action, actor.Role, domain.ErrPermission)
	}
	return nil
}

// requireOwnerOr lets the owner through when they also pass ownerCheck, and
// anyone passing staffCheck regardless of ownership.
func requireOwnerOr(actor domain.Actor, ownerID string, ownerCheck, staffCheck Check, action string) error {
	if err := Require(actor, staffCheck, action); err == nil {
		return nil
	}
	if err := Require(actor, ownerCheck, action); err != nil {
		return err
	}
	if actor.ProfileID != ownerID {
		return fmt.Errorf("%s: resource belongs to another profile: %w", action, domain.ErrPermission)
	}
	return nil
}
