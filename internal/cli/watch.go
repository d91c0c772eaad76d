package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/realtime"
)

var watchableTables = map[string]bool{
	"events":      true,
	"check_ins":   true,
	"reflections": true,
}

// NewWatchCommand creates the watch command: print the realtime change
// feed for one table until interrupted.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <table>",
		Short: "Stream changes for one table (events|check_ins|reflections)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			if !watchableTables[table] {
				return fmt.Errorf("unknown table %q", table)
			}

			client, user, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}

			sub, err := realtime.Subscribe(client, table, user.ID, func(c realtime.Change) {
				if opts.Format == "json" {
					_ = printJSON(c)
					return
				}
				fmt.Printf("%s %s %s\n", c.Op, c.Table, string(c.Row))
			})
			if err != nil {
				return err
			}
			defer sub.Close()

			fmt.Printf("watching %s (ctrl-c to stop)\n", table)
			<-cmd.Context().Done()
			return nil
		},
	}
}
