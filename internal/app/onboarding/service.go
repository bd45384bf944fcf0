package onboarding

import (
	"context"
	"fmt"

	"blokus/internal/ports"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	DisplayName string
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	names    *NameGenerator
}

// NewService constructs an onboarding service.
// accounts must be non-nil; names may be nil to use a time-seeded generator.
func NewService(accounts ports.AccountPort, names *NameGenerator) *Service {
	if names == nil {
		names = NewNameGenerator(nil)
	}
	return &Service{accounts: accounts, names: names}
}

// OnboardNewUser gives a newly created account a friendly display name.
// Side effects: updates the account profile.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}
	if userID == "" {
		return Result{}, fmt.Errorf("userID is required")
	}

	name := s.names.Next()
	if err := s.accounts.UpdateProfile(ctx, userID, "", name); err != nil {
		return Result{}, fmt.Errorf("failed to set display name: %w", err)
	}
	return Result{DisplayName: name}, nil
}
