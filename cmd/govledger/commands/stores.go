package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/quorumworks/govledger/pkg/auth"
	"github.com/quorumworks/govledger/pkg/register"
	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/remote/gdrive"
)

func newLogger() *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cliStores builds the remote stores and tenant for a CLI invocation, from
// either the in-memory mock or the saved Google credentials.
func cliStores(ctx context.Context) (remote.ContainerStore, remote.TabularStore, string, error) {
	if mockMode {
		mock := remote.NewMockStore()
		return mock, mock, "mock-user", nil
	}

	store, err := auth.NewCredentialStore()
	if err != nil {
		return nil, nil, "", err
	}
	creds := store.Current()
	if creds == nil || creds.Token == nil {
		return nil, nil, "", fmt.Errorf("not signed in, run 'govledger login' first")
	}

	flow := auth.NewOAuth(clientID, clientSecret, "")
	ts := flow.TokenSource(ctx, creds.Token)

	containers, err := gdrive.NewDriveStore(ctx, ts)
	if err != nil {
		return nil, nil, "", err
	}
	tabular, err := gdrive.NewSheetsStore(ctx, ts)
	if err != nil {
		return nil, nil, "", err
	}
	return containers, tabular, creds.User.ID, nil
}

// cliRegister assembles a register for a CLI invocation.
func cliRegister(ctx context.Context) (*register.Register, error) {
	containers, tabular, tenant, err := cliStores(ctx)
	if err != nil {
		return nil, err
	}
	return register.New(register.Config{
		Containers: containers,
		Tabular:    tabular,
		Tenant:     tenant,
		Logger:     newLogger(),
	}), nil
}
