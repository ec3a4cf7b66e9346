package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCmds(g *globals) []*cobra.Command {
	var username, password string

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := g.client().Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := g.client().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return err
		},
	}

	for _, c := range []*cobra.Command{register, login} {
		c.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
		c.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
		_ = c.MarkFlagRequired("username")
		_ = c.MarkFlagRequired("password")
	}

	me := &cobra.Command{Use: "me", Short: "Show or update the logged-in user"}
	me.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := g.client().Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	})

	var newName, newPassword string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change username and/or password",
		RunE: func(cmd *cobra.Command, args []string) error {
			var name, pw *string
			if cmd.Flags().Changed("username") {
				name = &newName
			}
			if cmd.Flags().Changed("password") {
				pw = &newPassword
			}
			if name == nil && pw == nil {
				return fmt.Errorf("--username or --password required")
			}
			u, err := g.client().UpdateMe(cmd.Context(), name, pw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	update.Flags().StringVarP(&newName, "username", "u", "", "New username")
	update.Flags().StringVarP(&newPassword, "password", "p", "", "New password")
	me.AddCommand(update)

	return []*cobra.Command{register, login, me}
}
