package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"campaignId", "campaign_id"},
		{"urlRemoteAccess", "url_remote_access"},
		{"firstSeen", "first_seen"},
		{"hasExpired", "has_expired"},
		{"id", "id"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CamelToSnake(tt.in))
		})
	}
}

func TestSnakeToCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"campaign_id", "campaignId"},
		{"url_remote_access", "urlRemoteAccess"},
		{"first_landing_page_id", "firstLandingPageId"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SnakeToCamel(tt.in))
		})
	}
}

func TestSnakeToPascal(t *testing.T) {
	assert.Equal(t, "CampaignType", SnakeToPascal("campaign_type"))
	assert.Equal(t, "Visit", SnakeToPascal("visit"))
}

// Every column of every registered table must round-trip between its
// snake_case storage name and its camelCase field name.
func TestNamingRoundTrip(t *testing.T) {
	for _, desc := range Tables().All() {
		for _, column := range desc.Columns() {
			camel := SnakeToCamel(column)
			assert.Equal(t, column, CamelToSnake(camel), "column %s.%s", desc.Table, column)
			assert.NotContains(t, camel, "_", "field name for %s.%s", desc.Table, column)
		}
		for _, rel := range desc.Relationships() {
			camel := SnakeToCamel(rel.Name)
			assert.Equal(t, rel.Name, CamelToSnake(camel), "relationship %s.%s", desc.Table, rel.Name)
		}
	}
}

// Storage names never carry upper-case letters, so the translation has no
// ambiguous cases in practice.
func TestRegistryNamesAreLowerSnake(t *testing.T) {
	for _, desc := range Tables().All() {
		for _, column := range desc.Columns() {
			assert.Equal(t, strings.ToLower(column), column)
		}
	}
}
