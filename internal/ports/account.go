package ports

import "context"

// AccountPort defines the interface for updating account profiles.
type AccountPort interface {
	// UpdateProfile sets the display name of an account.
	// Returns an error if the profile update fails.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
