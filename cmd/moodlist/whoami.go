package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in Spotify user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(conf)
			if err != nil {
				return err
			}
			defer svc.Close()

			user, err := svc.catalog.CurrentUser(cmd.Context())
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			name := user.DisplayName
			if name == "" {
				name = user.ID
			}
			fmt.Fprintf(out, "👤 %s (%s)\n", name, user.ID)
			if user.Country != "" {
				fmt.Fprintf(out, "Country: %s\n", user.Country)
			}
			if user.Product != "" {
				fmt.Fprintf(out, "Plan: %s\n", user.Product)
			}
			return nil
		},
	}
}
