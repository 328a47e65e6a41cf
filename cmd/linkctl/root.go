package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortlinks/internal/link"
)

// opener returns the link service and a func releasing it. With
// migrateOnly set it only brings the schema up to date.
type opener func(ctx context.Context, migrateOnly bool) (link.Service, func() error, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "linkctl",
		Short: "Manage short links",
		Long: `linkctl edits the link store directly. It reads the same environment
as the server (DATABASE_URL and friends), for example:

linkctl create https://example.com --name docs
linkctl update 3 --enabled=false`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(open),
		newListCmd(open),
		newCreateCmd(open),
		newUpdateCmd(open),
		newDeleteCmd(open),
	)
	return root
}

// withService opens the store for the duration of fn.
func withService(cmd *cobra.Command, open opener, fn func(svc link.Service) error) (err error) {
	svc, closeFn, err := open(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeFn, err := open(cmd.Context(), true)
			if err != nil {
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}

func newListCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all short links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(svc link.Service) error {
				links, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(links) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No links found.")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tENABLED\tUSED\tLINK")
				for _, l := range links {
					fmt.Fprintf(tw, "%d\t%s\t%t\t%d\t%s\n", l.ID, l.Name, l.Enabled, l.TimesUsed, l.Link)
				}
				return tw.Flush()
			})
		},
	}
}

func newCreateCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [link]",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			return withService(cmd, open, func(svc link.Service) error {
				created, err := svc.Create(cmd.Context(), link.NewLink{Name: name, Link: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created link %d: /%s -> %s\n", created.ID, created.Name, created.Link)
				return nil
			})
		},
	}
	cmd.Flags().StringP("name", "n", "", "Short name (generated when empty)")
	return cmd
}

func newUpdateCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change the name, link or enabled state of a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var changes link.UpdatableLink
			flags := cmd.Flags()
			if flags.Changed("name") {
				name, _ := flags.GetString("name")
				changes.Name = &name
			}
			if flags.Changed("link") {
				dest, _ := flags.GetString("link")
				changes.Link = &dest
			}
			if flags.Changed("enabled") {
				enabled, _ := flags.GetBool("enabled")
				changes.Enabled = &enabled
			}

			return withService(cmd, open, func(svc link.Service) error {
				if err := svc.Update(cmd.Context(), id, changes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated link %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "New short name")
	cmd.Flags().String("link", "", "New destination URL")
	cmd.Flags().Bool("enabled", true, "Whether the link resolves")
	return cmd
}

func newDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, open, func(svc link.Service) error {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted link %d\n", id)
				return nil
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
