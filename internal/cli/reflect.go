package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/store"
)

// NewReflectCommand creates the reflect command group.
func NewReflectCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Write and list reflections",
	}

	add := &cobra.Command{
		Use:   "add <text>...",
		Short: "Write a reflection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, user, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			r, err := store.NewReflections(client).Create(cmd.Context(), store.NewReflection{
				UserID:  user.ID,
				Content: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(r)
			}
			fmt.Printf("reflection saved: %s\n", r.ID)
			return nil
		},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List reflections, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			items, err := store.NewReflections(client).List(cmd.Context(), store.ListOptions{Limit: limit})
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(items)
			}
			for _, r := range items {
				fmt.Printf("%s  %s\n    %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.ID, r.Content)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "max rows to return")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a reflection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.NewReflections(client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}

	cmd.AddCommand(add)
	cmd.AddCommand(list)
	cmd.AddCommand(rm)
	return cmd
}
