package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const minUsernameLength = 3

var defaultRoles = []domain.RoleRecord{
	{Name: "customer", Description: "Buys products"},
	{Name: "seller", Description: "Manages products and orders"},
	{Name: "admin", Description: "Full access"},
}

// OnboardingInput is what a new user provides before they can shop or sell.
type OnboardingInput struct {
	Username  string
	FullName  string
	Role      string
	AvatarURL string
	Website   string
}

// ProfileService resolves authenticated users into actors and manages their
// profiles.
type ProfileService struct {
	stores port.Stores
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewProfileService(stores port.Stores, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{stores: stores, log: log, now: time.Now}
}

// Actor builds the actor for an auth uid. Users without a profile get an
// actor that has not finished onboarding.
func (s *ProfileService) Actor(ctx context.Context, uid string) (domain.Actor, error) {
	actor := domain.Actor{ProfileID: uid}

	profile, err := s.stores.Profiles.FindByID(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return actor, nil
	}
	if err != nil {
		return domain.Actor{}, fmt.Errorf("profile %s: %w", uid, err)
	}

	actor.Username = profile.Username
	if profile.RoleID == nil {
		return actor, nil
	}

	role, err := s.stores.Roles.FindByID(ctx, *profile.RoleID)
	if errors.Is(err, domain.ErrNotFound) {
		return actor, nil
	}
	if err != nil {
		return domain.Actor{}, fmt.Errorf("role %s: %w", *profile.RoleID, err)
	}
	actor.Role = domain.DecodeRole(role)
	return actor, nil
}

func (s *ProfileService) Profile(ctx context.Context, uid string) (domain.Profile, error) {
	p, err := s.stores.Profiles.FindByID(ctx, uid)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", uid, err)
	}
	return p, nil
}

// CompleteOnboarding creates or updates the profile of uid. Only customer
// and seller may be chosen; admins are assigned out of band.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, uid string, in OnboardingInput) (domain.Profile, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < minUsernameLength {
		return domain.Profile{}, fmt.Errorf("username must have at least %d characters: %w", minUsernameLength, domain.ErrValidation)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return domain.Profile{}, fmt.Errorf("full name is required: %w", domain.ErrValidation)
	}
	role := domain.ParseRole(in.Role)
	if role != domain.RoleCustomer && role != domain.RoleSeller {
		return domain.Profile{}, fmt.Errorf("role %q cannot be self-assigned: %w", in.Role, domain.ErrValidation)
	}

	taken, err := s.stores.Profiles.FindWhere(ctx, port.Where{"username": username})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("check username: %w", err)
	}
	if len(taken) > 0 && taken[0].ID != uid {
		return domain.Profile{}, fmt.Errorf("username %q already exists: %w", username, domain.ErrConflict)
	}

	roleID, err := s.roleID(ctx, role.String())
	if err != nil {
		return domain.Profile{}, err
	}

	profile := domain.Profile{
		ID:        uid,
		Username:  username,
		FullName:  strings.TrimSpace(in.FullName),
		AvatarURL: in.AvatarURL,
		Website:   in.Website,
		RoleID:    &roleID,
		UpdatedAt: s.now(),
	}

	_, err = s.stores.Profiles.FindByID(ctx, uid)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		err = s.stores.Profiles.Insert(ctx, profile)
	case err == nil:
		err = s.stores.Profiles.Update(ctx, profile)
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("save profile %s: %w", uid, err)
	}

	s.log.WithFields(logrus.Fields{"profile_id": uid, "role": role}).Info("onboarding completed")
	return profile, nil
}

func (s *ProfileService) Roles(ctx context.Context) ([]domain.RoleRecord, error) {
	roles, err := s.stores.Roles.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// SeedRoles inserts the built-in roles that are missing.
func (s *ProfileService) SeedRoles(ctx context.Context) error {
	for _, r := range defaultRoles {
		existing, err := s.stores.Roles.FindWhere(ctx, port.Where{"name": r.Name})
		if err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if len(existing) > 0 {
			continue
		}
		r.ID = uuid.NewString()
		if err := s.stores.Roles.Insert(ctx, r); err != nil && !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return nil
}

func (s *ProfileService) roleID(ctx context.Context, name string) (string, error) {
	roles, err := s.stores.Roles.FindWhere(ctx, port.Where{"name": name})
	if err != nil {
		return "", fmt.Errorf("find role %s: %w", name, err)
	}
	if len(roles) == 0 {
		return "", fmt.Errorf("role %s: %w", name, domain.ErrNotFound)
	}
	return roles[0].ID, nil
}
