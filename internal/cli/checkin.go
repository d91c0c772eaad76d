package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/store"
)

// NewCheckinCommand creates the checkin command group (the Check-In
// screen).
func NewCheckinCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record and list mood check-ins",
	}

	var (
		mood     string
		energy   int
		emotions string
		at       string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a check-in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, user, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}

			payload := store.NewCheckIn{
				UserID: user.ID,
				Mood:   mood,
				Energy: energy,
			}
			if emotions != "" {
				payload.Emotions = strings.Split(emotions, ",")
			}
			if at != "" {
				when, err := parseWhen(at)
				if err != nil {
					return err
				}
				payload.Timestamp = &when
			}

			ci, err := store.NewCheckIns(client).Create(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(ci)
			}
			fmt.Printf("checked in: %s (energy %d) %s\n", ci.Mood, ci.Energy, ci.ID)
			return nil
		},
	}
	add.Flags().StringVar(&mood, "mood", "", "mood label")
	add.Flags().IntVar(&energy, "energy", 5, "energy level 1-10")
	add.Flags().StringVar(&emotions, "emotions", "", "comma-separated emotion tags")
	add.Flags().StringVar(&at, "at", "", "when the check-in happened (default now)")
	_ = add.MarkFlagRequired("mood")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List check-ins, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			items, err := store.NewCheckIns(client).List(cmd.Context(), store.ListOptions{Limit: limit})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(items)
			}
			for _, ci := range items {
				tags := ""
				if len(ci.Emotions) > 0 {
					tags = " [" + strings.Join(ci.Emotions, ", ") + "]"
				}
				fmt.Printf("%s  %-12s energy %2d%s  %s\n",
					ci.Timestamp.Local().Format("2006-01-02 15:04"), ci.Mood, ci.Energy, tags, ci.ID)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "max rows to return")

	cmd.AddCommand(add)
	cmd.AddCommand(list)
	return cmd
}
