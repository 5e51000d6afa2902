package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anstrom/portprobe/internal/auth"
)

var (
	apiKeyName   string
	apiKeyOutput string
)

// apiKeysCmd represents the apikeys command group
var apiKeysCmd = &cobra.Command{
	Use:     "apikeys",
	Aliases: []string{"apikey", "keys"},
	Short:   "Generate API keys for the API server",
	Long: `Generate API keys for clients of the portprobe API server.

Keys are printed once. Only their bcrypt hash belongs in the server
configuration under api.auth.key_hashes.

Examples:
  # Generate a key for a dashboard
  portprobe apikeys generate --name "Dashboard"

  # Hash an existing key
  portprobe apikeys hash pp_abc123...`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var apiKeysGenerateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"create", "new"},
	Short:   "Generate a new API key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateOutput(apiKeyOutput); err != nil {
			return err
		}
		key, err := auth.GenerateAPIKey(apiKeyName)
		if err != nil {
			return err
		}
		if apiKeyOutput == outputJSON {
			return writeJSON(cmd.OutOrStdout(), key)
		}
		printGeneratedKey(cmd.OutOrStdout(), key)
		return nil
	},
}

var apiKeysHashCmd = &cobra.Command{
	Use:   "hash <api-key>",
	Short: "Print the bcrypt hash of an existing API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.TrimSpace(args[0])
		if !auth.IsValidAPIKeyFormat(key) {
			return fmt.Errorf("invalid API key format: expected %s_ followed by %d characters",
				auth.APIKeyPrefix, auth.APIKeyLength)
		}
		hash, err := auth.HashAPIKey(key)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func printGeneratedKey(w io.Writer, key *auth.GeneratedAPIKey) {
	fmt.Fprintln(w, "API key generated. Store it now, it will not be shown again.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Name:    %s\n", key.Name)
	fmt.Fprintf(w, "Prefix:  %s\n", key.KeyPrefix)
	fmt.Fprintf(w, "Key:     %s\n", key.Key)
	fmt.Fprintf(w, "Hash:    %s\n", key.Hash)
	fmt.Fprintf(w, "Created: %s\n", key.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add the hash to the server configuration:")
	fmt.Fprintln(w, "  api:")
	fmt.Fprintln(w, "    auth:")
	fmt.Fprintln(w, "      enabled: true")
	fmt.Fprintln(w, "      key_hashes:")
	fmt.Fprintf(w, "        - %q\n", key.Hash)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Clients send the key in the X-API-Key header.")
}

func init() {
	rootCmd.AddCommand(apiKeysCmd)
	apiKeysCmd.AddCommand(apiKeysGenerateCmd)
	apiKeysCmd.AddCommand(apiKeysHashCmd)

	apiKeysGenerateCmd.Flags().StringVarP(&apiKeyName, "name", "n", "", "Name for the API key (required)")
	apiKeysGenerateCmd.Flags().StringVarP(&apiKeyOutput, "output", "o", outputTable, "Output format (table, json)")
	_ = apiKeysGenerateCmd.MarkFlagRequired("name")
}
