package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryValidates(t *testing.T) {
	require.NoError(t, Tables().Validate())
}

func TestRegistryContents(t *testing.T) {
	registry := Tables()
	assert.Len(t, registry.All(), 13)

	campaign, ok := registry.Get(TableCampaigns)
	require.True(t, ok)
	assert.Equal(t, "Campaign", campaign.TypeName)
	assert.Equal(t, "id", campaign.PK)
	assert.True(t, campaign.HasColumn("name"))
	assert.False(t, campaign.HasColumn("visits"))

	visits, ok := campaign.Relationship("visits")
	require.True(t, ok)
	assert.True(t, visits.Uselist)
	assert.Equal(t, TableVisits, visits.Target)
	assert.Equal(t, "campaign_id", visits.TargetColumn)
	assert.Equal(t, "id", visits.LocalColumn)

	user, ok := campaign.Relationship("user")
	require.True(t, ok)
	assert.False(t, user.Uselist)
	assert.Equal(t, TableUsers, user.Target)
	assert.Equal(t, "id", user.TargetColumn)
	assert.Equal(t, "user_id", user.LocalColumn)
}

func TestValidateRejectsDanglingRelationships(t *testing.T) {
	broken := newRegistry(
		newDescriptor("Thing", "things",
			[]Column{{"id", KindString}},
			[]Relationship{
				hasMany("widgets", "widgets", "thing_id"),
				belongsTo("owner", "users_missing", "id"),
			},
		),
	)
	err := broken.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widgets")
	assert.Contains(t, err.Error(), "users_missing")
}

func TestEntityAccessors(t *testing.T) {
	campaign, _ := Lookup(TableCampaigns)
	entity := NewEntity(campaign, map[string]interface{}{
		"id":   "7",
		"name": "spring",
	})
	assert.Equal(t, "7", entity.ID())

	value, ok := entity.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "spring", value)

	// NULL column values exist but carry nil
	value, ok = entity.Get("description")
	assert.True(t, ok)
	assert.Nil(t, value)

	_, ok = entity.Get("nonexistent")
	assert.False(t, ok)
}
