package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/models"
	"github.com/emberapp/ember-go/internal/store"
)

// NewEventsCommand creates the events command group (the Events screen).
func NewEventsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage events",
	}

	var (
		typ        string
		importance string
		at         string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, user, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}

			imp := models.Importance(importance)
			if !imp.Valid() {
				return fmt.Errorf("invalid importance %q (low|medium|high)", importance)
			}

			payload := store.NewEvent{
				UserID:     user.ID,
				Type:       typ,
				Importance: imp,
			}
			if at != "" {
				when, err := parseWhen(at)
				if err != nil {
					return err
				}
				payload.Time = &when
			}

			ev, err := store.NewEvents(client).Create(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(ev)
			}
			fmt.Printf("event created: %s %s\n", ev.Type, ev.ID)
			return nil
		},
	}
	add.Flags().StringVar(&typ, "type", "", "event label")
	add.Flags().StringVar(&importance, "importance", string(models.ImportanceMedium), "low|medium|high")
	add.Flags().StringVar(&at, "at", "", "event time (omit for an untimed event)")
	_ = add.MarkFlagRequired("type")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			items, err := store.NewEvents(client).List(cmd.Context(), store.ListOptions{Limit: limit})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(items)
			}
			for _, ev := range items {
				when := "untimed"
				if ev.Time != nil {
					when = ev.Time.Local().Format("2006-01-02 15:04")
				}
				fmt.Printf("%-16s  %-8s %-20s %s\n", when, ev.Importance, ev.Type, ev.ID)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "max rows to return")

	var (
		setType       string
		setImportance string
		setAt         string
	)
	set := &cobra.Command{
		Use:   "set <id>",
		Short: "Update fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}

			var patch store.EventPatch
			if cmd.Flags().Changed("type") {
				patch.Type = &setType
			}
			if cmd.Flags().Changed("importance") {
				imp := models.Importance(setImportance)
				if !imp.Valid() {
					return fmt.Errorf("invalid importance %q (low|medium|high)", setImportance)
				}
				patch.Importance = &imp
			}
			if cmd.Flags().Changed("at") {
				when, err := parseWhen(setAt)
				if err != nil {
					return err
				}
				patch.Time = &when
			}

			ev, err := store.NewEvents(client).Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(ev)
			}
			fmt.Printf("event updated: %s\n", ev.ID)
			return nil
		},
	}
	set.Flags().StringVar(&setType, "type", "", "new event label")
	set.Flags().StringVar(&setImportance, "importance", "", "new importance")
	set.Flags().StringVar(&setAt, "at", "", "new event time")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.NewEvents(client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}

	cmd.AddCommand(add)
	cmd.AddCommand(list)
	cmd.AddCommand(set)
	cmd.AddCommand(rm)
	return cmd
}
