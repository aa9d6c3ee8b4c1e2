package config

import (
	"testing"
	"time"
)

func TestDefaultCacheTTLs(t *testing.T) {
	ttls := DefaultCacheTTLs()

	if ttls.Folder != 5*time.Minute {
		t.Errorf("Expected folder TTL 5m, got %v", ttls.Folder)
	}
	if ttls.Spreadsheet != 10*time.Minute {
		t.Errorf("Expected spreadsheet TTL 10m, got %v", ttls.Spreadsheet)
	}
}

func TestOAuthScopes(t *testing.T) {
	scopes := OAuthScopes()

	if len(scopes) != 4 {
		t.Fatalf("Expected 4 scopes, got %d", len(scopes))
	}
	// drive.file keeps access scoped to app-created resources.
	want := "https://www.googleapis.com/auth/drive.file"
	found := false
	for _, s := range scopes {
		if s == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Missing scope %s", want)
	}
}
