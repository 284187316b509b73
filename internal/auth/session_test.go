package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookline/internal/db/models"
)

func descriptor(t *testing.T, table string) *models.Descriptor {
	t.Helper()
	desc, ok := models.Lookup(table)
	require.True(t, ok)
	return desc
}

func TestUnrestricted(t *testing.T) {
	users := descriptor(t, models.TableUsers)
	assert.True(t, Unrestricted{}.MayRead(users, "otp_secret", nil))
}

func TestSessionSecretColumns(t *testing.T) {
	users := descriptor(t, models.TableUsers)
	credentials := descriptor(t, models.TableCredentials)
	session := NewSession("alice", false)

	// class level checks always deny secrets
	assert.False(t, session.MayRead(users, "otp_secret", nil))
	assert.False(t, session.MayRead(credentials, "password", nil))
	assert.False(t, session.MayRead(credentials, "mfa_token", nil))
	assert.True(t, session.MayRead(credentials, "username", nil))

	// a user reads their own otp secret but nobody else's
	self := models.NewEntity(users, map[string]interface{}{"id": "alice"})
	other := models.NewEntity(users, map[string]interface{}{"id": "bob"})
	assert.True(t, session.MayRead(users, "otp_secret", self))
	assert.False(t, session.MayRead(users, "otp_secret", other))

	// credential secrets stay hidden even with an instance
	row := models.NewEntity(credentials, map[string]interface{}{"id": "c1"})
	assert.False(t, session.MayRead(credentials, "password", row))
}

func TestSessionRowOwnership(t *testing.T) {
	users := descriptor(t, models.TableUsers)
	campaigns := descriptor(t, models.TableCampaigns)
	session := NewSession("alice", false)

	mine := models.NewEntity(campaigns, map[string]interface{}{"id": "1", "user_id": "alice"})
	theirs := models.NewEntity(campaigns, map[string]interface{}{"id": "2", "user_id": "bob"})
	unowned := models.NewEntity(campaigns, map[string]interface{}{"id": "3"})

	assert.True(t, session.MayRead(campaigns, "name", mine))
	assert.False(t, session.MayRead(campaigns, "name", theirs))
	assert.True(t, session.MayRead(campaigns, "name", unowned))

	self := models.NewEntity(users, map[string]interface{}{"id": "alice"})
	other := models.NewEntity(users, map[string]interface{}{"id": "bob"})
	assert.True(t, session.MayRead(users, "email_address", self))
	assert.False(t, session.MayRead(users, "email_address", other))
}

func TestAdminSessionReadsEverythingButSecrets(t *testing.T) {
	users := descriptor(t, models.TableUsers)
	campaigns := descriptor(t, models.TableCampaigns)
	admin := NewSession("root", true)

	theirs := models.NewEntity(campaigns, map[string]interface{}{"id": "2", "user_id": "bob"})
	assert.True(t, admin.MayRead(campaigns, "name", theirs))

	other := models.NewEntity(users, map[string]interface{}{"id": "bob"})
	assert.True(t, admin.MayRead(users, "email_address", other))
	assert.False(t, admin.MayRead(users, "otp_secret", other))
}
