package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WesleyKlop/journali-api/internal/client"
	"github.com/WesleyKlop/journali-api/internal/services"
)

func checkKind(kind string) error {
	kinds := services.DefaultRegistry().Names()
	for _, k := range kinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q (want one of %v)", kind, kinds)
}

func parseFields(raw string) (client.Fields, error) {
	var f client.Fields
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("--data must be a JSON object: %w", err)
	}
	return f, nil
}

func newItemsCmd(g *globals) *cobra.Command {
	items := &cobra.Command{Use: "items", Short: "Item operations"}

	var parent string
	list := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally the children of --parent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var parentID *string
			if cmd.Flags().Changed("parent") {
				parentID = &parent
			}
			out, err := g.client().ListItems(cmd.Context(), parentID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().StringVar(&parent, "parent", "", "Parent item ID")
	items.AddCommand(list)

	items.AddCommand(&cobra.Command{
		Use:   "get KIND ID",
		Short: "Get one item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKind(args[0]); err != nil {
				return err
			}
			out, err := g.client().GetItem(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})

	var createData string
	create := &cobra.Command{
		Use:   "create KIND",
		Short: "Create an item from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKind(args[0]); err != nil {
				return err
			}
			fields, err := parseFields(createData)
			if err != nil {
				return err
			}
			out, err := g.client().CreateItem(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	create.Flags().StringVarP(&createData, "data", "d", "", `Item fields, e.g. '{"title":"Monday"}' (required)`)
	_ = create.MarkFlagRequired("data")
	items.AddCommand(create)

	var updateData string
	update := &cobra.Command{
		Use:   "update KIND ID",
		Short: "Patch an item from a JSON object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKind(args[0]); err != nil {
				return err
			}
			fields, err := parseFields(updateData)
			if err != nil {
				return err
			}
			out, err := g.client().UpdateItem(cmd.Context(), args[0], args[1], fields)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	update.Flags().StringVarP(&updateData, "data", "d", "", "Fields to change (required)")
	_ = update.MarkFlagRequired("data")
	items.AddCommand(update)

	items.AddCommand(&cobra.Command{
		Use:   "delete KIND ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKind(args[0]); err != nil {
				return err
			}
			if err := g.client().DeleteItem(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], args[1])
			return err
		},
	})

	return items
}

func newServerCmd(g *globals) *cobra.Command {
	server := &cobra.Command{Use: "server", Short: "Server information"}
	server.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Show server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := g.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})
	server.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := g.client().Version(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	})
	return server
}
