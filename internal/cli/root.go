// Package cli implements the zoppel command line client.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pendergraft/zoppel/pkg/client"
)

var (
	cfgFile    string
	server     string
	apiKey     string
	caller     string
	jsonOutput bool
)

// Execute runs the CLI
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "zoppel",
		Short:         "Zoppel token and artifact CLI",
		Long:          `Zoppel is a CLI for the Zoppel token, the artifact collection and the chain explorer of a zoppel-server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: zoppel.toml)")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "server URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&caller, "caller", "", "caller address for servers without authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON")

	rootCmd.AddCommand(createAuthCmd())
	rootCmd.AddCommand(createConfigCmd())
	rootCmd.AddCommand(createTokenCmd())
	rootCmd.AddCommand(createArtifactCmd())
	rootCmd.AddCommand(createChainCmd())
	rootCmd.AddCommand(createAccountCmd())

	return rootCmd
}

// getServer returns the server URL from flag, env, config file, or default
func getServer() string {
	if server != "" {
		return server
	}
	if env := os.Getenv("ZOPPEL_SERVER"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil && config.Server != "" {
		return config.Server
	}
	return "http://localhost:8080"
}

// getAPIKey returns the API key from flag, env, or credentials file
func getAPIKey() string {
	if apiKey != "" {
		return apiKey
	}
	if env := os.Getenv("ZOPPEL_API_KEY"); env != "" {
		return env
	}
	return getCredential(getServer())
}

// getCaller returns the caller address from flag, env, or config file
func getCaller() string {
	if caller != "" {
		return caller
	}
	if env := os.Getenv("ZOPPEL_CALLER"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil {
		return config.Caller
	}
	return ""
}

func newClient() *client.Client {
	var opts []client.Option
	if c := getCaller(); c != "" {
		opts = append(opts, client.WithCaller(c))
	}
	return client.New(getServer(), getAPIKey(), opts...)
}
