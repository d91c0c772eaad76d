// Package cli wires the data layer into the ember command. Each screen
// of the app has a subcommand analog: checkin, events, reflect,
// insights, plus watch for the realtime feed.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/auth"
	"github.com/emberapp/ember-go/internal/config"
	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/models"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Format string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ember CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ember",
		Short: "Ember journaling client",
		Long:  "Command-line client for the Ember journaling backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAccountCommand(opts))
	cmd.AddCommand(NewCheckinCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewReflectCommand(opts))
	cmd.AddCommand(NewInsightsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// requireSession runs the bootstrap and returns the bound handle plus
// the caller's profile row. Not-configured is a hard error here: a human
// at a terminal wants to be told, not silently no-opped.
func requireSession(ctx context.Context) (*db.Client, *models.User, error) {
	res, err := auth.InitializeUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	if res.Status == auth.StatusNotConfigured {
		return nil, nil, fmt.Errorf("not configured: set %s and %s (or %s)",
			config.EnvBackendURL, config.EnvAnonKey, config.EnvConfigFile)
	}
	return db.Handle(), res.User, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseWhen accepts RFC3339 or a local "2006-01-02 15:04" timestamp.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC3339 or 2006-01-02[ 15:04])", s)
}
