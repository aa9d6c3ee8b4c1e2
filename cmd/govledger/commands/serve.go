package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/quorumworks/govledger/internal/httpapi"
	"github.com/quorumworks/govledger/pkg/auth"
	"github.com/quorumworks/govledger/pkg/config"
	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/remote/gdrive"
	"github.com/quorumworks/govledger/pkg/summary"
	"github.com/quorumworks/govledger/pkg/telemetry"
	"github.com/quorumworks/govledger/pkg/version"
)

var (
	serveAddr    string
	baseURL      string
	otlpEndpoint string
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the govledger HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		shutdown, err := telemetry.Init(ctx, "govledger", version.Current, otlpEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()

		oauthFlow := auth.NewOAuth(clientID, clientSecret, baseURL+"/auth/callback")
		sessions := auth.NewSessions(sessionSecret, logger)
		summarizer := summary.NewClient(openaiKey, openaiBaseURL, summaryModel)

		var stores httpapi.StoresFactory
		if mockMode {
			fmt.Println("Running in MOCK MODE. Using an in-memory store.")
			mock := remote.NewMockStore()
			stores = func(ctx context.Context, claims *auth.Claims) (remote.ContainerStore, remote.TabularStore, error) {
				return mock, mock, nil
			}
		} else {
			stores = func(ctx context.Context, claims *auth.Claims) (remote.ContainerStore, remote.TabularStore, error) {
				ts := oauthFlow.TokenSource(ctx, &oauth2.Token{
					AccessToken:  claims.AccessToken,
					RefreshToken: claims.RefreshToken,
				})
				containers, err := gdrive.NewDriveStore(ctx, ts)
				if err != nil {
					return nil, nil, err
				}
				tabular, err := gdrive.NewSheetsStore(ctx, ts)
				if err != nil {
					return nil, nil, err
				}
				return containers, tabular, nil
			}
		}

		srv := httpapi.NewServer(httpapi.Config{
			Addr:       serveAddr,
			Sessions:   sessions,
			OAuth:      oauthFlow,
			Stores:     stores,
			Summarizer: summarizer,
			Logger:     logger,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("Shutting down", "signal", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", config.DefaultListenAddr, "Listen address")
	ServeCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Public base URL for OAuth redirects")
	ServeCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP trace endpoint")
}
