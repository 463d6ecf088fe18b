package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/dexmigrate/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the source filter, counting mode and id resolver.

Settings are stored in ~/.dexmigrate/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. Run "dexmigrate settings keys" for the list of keys.

Examples:
  dexmigrate settings set migrate.counting all
  dexmigrate settings set resolver.kind remote
  dexmigrate settings set migrate.source_ids 2499283573021220255,4505830566611664829`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Set the bearer token for the remote resolver",
	Long:  `Prompts for the remote resolver token without echoing it. An empty token clears it.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsToken,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Migrate]")
	cmd.Printf("  Sources: %s MangaDex source ids\n", humanize.Comma(int64(len(settings.SourceIDs))))
	cmd.Printf("  Counting: %s\n", settings.Counting.Description())
	outDir := settings.OutputDir
	if outDir == "" {
		outDir = "(next to the input)"
	}
	cmd.Printf("  Output: %s\n", outDir)
	cmd.Println()

	r := settings.Resolver
	cmd.Println("[Resolver]")
	cmd.Printf("  Backend: %s\n", r.Kind.Description())
	switch r.Kind {
	case domain.ResolverSQLite:
		cmd.Printf("  Database: %s\n", valueOrUnset(r.SQLitePath))
	case domain.ResolverTable:
		cmd.Printf("  Tables: %s\n", valueOrUnset(r.TableDir))
	case domain.ResolverRemote:
		cmd.Printf("  URL: %s\n", valueOrUnset(r.RemoteURL))
		cmd.Printf("  Batch: %d ids, %s apart\n", r.BatchSize, r.BatchDelay)
		if r.Token != "" {
			cmd.Printf("  Token: %s\n", maskToken(r.Token))
		} else {
			cmd.Println("  Token: (not set)")
		}
	}
	status := "configured"
	if !r.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], ".token") {
		value = maskToken(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsToken(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter token: ")
	token := readPassword(cmd.InOrStdin())
	cmd.Println()

	if err := settingsService.Set("resolver.token", token); err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}

	if token == "" {
		cmd.Println("Token cleared.")
	} else {
		cmd.Printf("Token set: %s\n", maskToken(token))
	}
	return nil
}

// Helper functions.

// readPassword reads a line from in, without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
