// Package auth provides the authenticated session implementations consumed by
// the GraphQL authorization layer. Authentication itself happens outside this
// process boundary; these types only answer read-permission questions for an
// already-authenticated caller.
package auth

import (
	"time"

	"github.com/google/uuid"

	"hookline/internal/db/models"
)

// Unrestricted is a session with full read access, used by internal trusted
// callers such as the local CLI.
type Unrestricted struct{}

// MayRead always permits the read.
func (Unrestricted) MayRead(*models.Descriptor, string, *models.Entity) bool {
	return true
}

// secretColumns are columns hidden from API readers. The users table's secret
// is readable only by that user; the credentials table's secrets are never
// readable, not even by administrators. The key is the table name.
var secretColumns = map[string]map[string]bool{
	models.TableUsers: {
		"otp_secret": true,
	},
	models.TableCredentials: {
		"password":  true,
		"mfa_token": true,
	},
}

// Session is a user-bound authenticated session. Non-administrators may only
// read their own user row, and campaign and alert subscription rows whose
// user_id is theirs or empty. Rows of other campaign-owned tables (visits,
// messages, credentials and the like) are not checked against the owning
// campaign. Secret columns follow secretColumns.
type Session struct {
	// ID identifies this session instance.
	ID uuid.UUID
	// UserID is the authenticated user the session was issued to.
	UserID string
	// Admin grants unrestricted access to campaign-owned rows.
	Admin bool
	// Created is the session creation time.
	Created time.Time
}

// NewSession issues a session bound to the given user.
func NewSession(userID string, admin bool) *Session {
	return &Session{
		ID:      uuid.New(),
		UserID:  userID,
		Admin:   admin,
		Created: time.Now(),
	}
}

// MayRead implements models.ReadAccessSession. With a nil instance it answers
// the class level question used to validate filter and sort references:
// secret columns are denied, everything else is permitted.
func (s *Session) MayRead(model *models.Descriptor, column string, instance *models.Entity) bool {
	if secretColumns[model.Table][column] {
		return s.mayReadSecret(model, instance)
	}
	if instance == nil {
		return true
	}
	return s.mayReadInstance(model, instance)
}

func (s *Session) mayReadSecret(model *models.Descriptor, instance *models.Entity) bool {
	if model.Table != models.TableUsers || instance == nil {
		return false
	}
	// users may read their own secrets
	return instance.ID() == s.UserID
}

func (s *Session) mayReadInstance(model *models.Descriptor, instance *models.Entity) bool {
	if s.Admin {
		return true
	}
	switch model.Table {
	case models.TableUsers:
		return instance.ID() == s.UserID
	case models.TableAlertSubscriptions, models.TableCampaigns:
		if owner, ok := instance.Get("user_id"); ok && owner != nil {
			return owner == s.UserID
		}
	}
	return true
}
