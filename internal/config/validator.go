package config

import (
	"fmt"
	"strings"
)

// Warnings reports settings that are valid but probably unintended
func (c *Config) Warnings() []string {
	var warnings []string

	if c.RebrickableAPIKey == "" {
		warnings = append(warnings, "REBRICKABLE_API_KEY is not set - catalog sync requests will be rejected by the API")
	}
	if c.APIKey == "" {
		warnings = append(warnings, "API_KEY is not set - the HTTP API is unauthenticated")
	}
	if c.StorageBackend == BackendMemory && c.Environment == "prod" {
		warnings = append(warnings, "STORAGE_BACKEND=memory in prod - all data is lost on restart")
	}
	if c.StorageBackend == BackendPostgres && c.DBPassword == "postgres" {
		warnings = append(warnings, "DB_PASSWORD appears to be the default value - please use a secure password")
	}
	if !strings.HasPrefix(c.RebrickableBaseURL, "https://") {
		warnings = append(warnings, fmt.Sprintf("REBRICKABLE_BASE_URL %q does not use https", c.RebrickableBaseURL))
	}
	if c.RebrickableUserToken != "" && !strings.HasPrefix(c.RebrickableUsersURL, "https://") {
		warnings = append(warnings, fmt.Sprintf("REBRICKABLE_USERS_URL %q does not use https - the user token is sent in the path", c.RebrickableUsersURL))
	}

	return warnings
}
