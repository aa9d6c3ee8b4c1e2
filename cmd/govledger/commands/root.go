package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quorumworks/govledger/pkg/version"
)

// Flags shared by every subcommand.
var (
	cfgFile       string
	clientID      string
	clientSecret  string
	sessionSecret string
	openaiKey     string
	openaiBaseURL string
	summaryModel  string
	mockMode      bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "govledger",
	Short: "Governance register on Google Workspace",
	Long: `GovLedger - Weekly Governance Register

Decisions. Risks. Datasets. Financials.`,
	Version: version.Current,
	Run:     nil,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.govledger.yaml)")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", "", "Google OAuth client ID")
	rootCmd.PersistentFlags().StringVar(&clientSecret, "client-secret", "", "Google OAuth client secret")
	rootCmd.PersistentFlags().StringVar(&sessionSecret, "session-secret", "", "Session signing secret")
	rootCmd.PersistentFlags().StringVar(&openaiKey, "openai-key", "", "API key for weekly summaries")
	rootCmd.PersistentFlags().StringVar(&openaiBaseURL, "openai-base-url", "", "OpenAI-compatible endpoint override")
	rootCmd.PersistentFlags().StringVar(&summaryModel, "summary-model", "", "Model used for weekly summaries")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Hidden flags
	rootCmd.PersistentFlags().BoolVar(&mockMode, "mock", false, "Run against an in-memory store")
	_ = rootCmd.PersistentFlags().MarkHidden("mock")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(ServeCmd)
	rootCmd.AddCommand(EntryCmd)
	rootCmd.AddCommand(ExportCmd)
	rootCmd.AddCommand(LoginCmd)
	rootCmd.AddCommand(LogoutCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".govledger.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("GOVLEDGER")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	// Flags override config file values; unset flags fall back to config.
	if clientID == "" {
		clientID = viper.GetString("client_id")
	}
	if clientSecret == "" {
		clientSecret = viper.GetString("client_secret")
	}
	if sessionSecret == "" {
		sessionSecret = viper.GetString("session_secret")
	}
	if openaiKey == "" {
		openaiKey = viper.GetString("openai_key")
	}
	if openaiBaseURL == "" {
		openaiBaseURL = viper.GetString("openai_base_url")
	}
	if summaryModel == "" {
		summaryModel = viper.GetString("summary_model")
	}
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AAFF")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("GOVLEDGER %s", version.Current)))
	fmt.Println("Weekly governance register on Google Workspace.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  govledger login                                # Sign in with Google")
	fmt.Println("  govledger entry add --type decision ...        # Record a decision")
	fmt.Println("  govledger entry list --type risk               # List risk entries")
	fmt.Println("  govledger serve --addr :8080                   # Run the HTTP API")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-18s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
