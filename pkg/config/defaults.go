// Package config defines default container names, cache policy, and OAuth
// scopes for the governance register.
package config

import "time"

// Remote container names. These are the logical names resolution searches
// for; renaming them orphans previously created containers.
const (
	SpreadsheetName = "Governance Register"
	RootFolderName  = "Governance Workflow"
)

// Defaults.
const (
	DefaultListenAddr   = ":8080"
	DefaultSummaryModel = "gpt-4"
	DefaultSessionTTL   = 7 * 24 * time.Hour
)

// CacheTTLs carries the per-resource-class TTL policy for resolution caching.
type CacheTTLs struct {
	// Folder covers the root and week folder classes.
	Folder time.Duration
	// Spreadsheet covers the register spreadsheet class.
	Spreadsheet time.Duration
}

// DefaultCacheTTLs returns the default TTL policy. Folders refresh twice as
// often as the spreadsheet.
func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		Folder:      5 * time.Minute,
		Spreadsheet: 10 * time.Minute,
	}
}

// OAuthScopes returns the scopes the register needs: identity plus file-level
// drive and spreadsheet access.
func OAuthScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
		"https://www.googleapis.com/auth/drive.file",
		"https://www.googleapis.com/auth/spreadsheets",
	}
}
