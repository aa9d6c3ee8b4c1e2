package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultCallbackPort is the first port tried for the local callback server.
	DefaultCallbackPort = 17890
	// LoginTimeout is the maximum time to wait for the browser flow.
	LoginTimeout = 5 * time.Minute
)

// Credentials is what the CLI persists after a successful sign-in.
type Credentials struct {
	Token     *oauth2.Token `json:"token"`
	User      UserInfo      `json:"user"`
	CreatedAt int64         `json:"created_at"`
}

// CredentialStore persists CLI credentials under ~/.config/govledger.
type CredentialStore struct {
	configDir string
	creds     *Credentials
	mu        sync.RWMutex
}

// NewCredentialStore opens the store, loading any saved credentials.
func NewCredentialStore() (*CredentialStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "govledger")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	s := &CredentialStore{configDir: configDir}
	_ = s.load()
	return s, nil
}

// Current returns the saved credentials, or nil when signed out.
func (s *CredentialStore) Current() *Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Save persists credentials with owner-only permissions.
func (s *CredentialStore) Save(creds *Credentials) error {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0600)
}

// Clear signs the user out.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()

	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) path() string {
	return filepath.Join(s.configDir, "credentials.json")
}

func (s *CredentialStore) load() error {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	return nil
}

// BrowserLogin runs the authorization-code flow through the user's browser
// with a local callback server, then saves the resulting credentials.
func BrowserLogin(ctx context.Context, clientID, clientSecret string, store *CredentialStore) (*Credentials, error) {
	port, err := findAvailablePort(DefaultCallbackPort)
	if err != nil {
		return nil, fmt.Errorf("failed to find available port: %w", err)
	}

	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", port)
	flow := NewOAuth(clientID, clientSecret, redirectURL)
	state := uuid.NewString()

	type loginResult struct {
		code string
		err  error
	}
	resultCh := make(chan loginResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			resultCh <- loginResult{err: fmt.Errorf("state mismatch")}
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}
		if errParam := q.Get("error"); errParam != "" {
			resultCh <- loginResult{err: fmt.Errorf("authorization denied: %s", errParam)}
			http.Error(w, "authorization denied", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			resultCh <- loginResult{err: fmt.Errorf("missing authorization code")}
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Signed in. You can close this tab.</body></html>"))
		resultCh <- loginResult{code: code}
	})

	server := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: mux}
	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	go func() {
		if serveErr := server.Serve(listener); serveErr != http.ErrServerClosed {
			resultCh <- loginResult{err: fmt.Errorf("callback server error: %w", serveErr)}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := flow.AuthURL(state)
	if err := openBrowser(authURL); err != nil {
		fmt.Printf("Open this URL to sign in:\n%s\n", authURL)
	}

	var code string
	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, result.err
		}
		code = result.code
	case <-time.After(LoginTimeout):
		return nil, fmt.Errorf("authentication timed out after %v", LoginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := flow.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	info, err := flow.FetchUserInfo(ctx, tok)
	if err != nil {
		return nil, err
	}

	creds := &Credentials{
		Token:     tok,
		User:      *info,
		CreatedAt: time.Now().Unix(),
	}
	if store != nil {
		if err := store.Save(creds); err != nil {
			return nil, fmt.Errorf("failed to save credentials: %w", err)
		}
	}
	return creds, nil
}

func findAvailablePort(startPort int) (int, error) {
	for port := startPort; port < startPort+100; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, startPort+100)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
