package cmd

import (
	"fmt"

	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/spf13/cobra"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <user-id>",
		Short: "Fetch a user record from one of its providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.bootstrap(cmd); err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			user, err := a.client.Service.GetUser(cmd.Context(), domain.UserID(args[0]))
			if err != nil {
				return err
			}

			return a.write(cmd, user, func() (string, error) {
				return feedrender.RenderUser(user)
			})
		},
	})

	return cmd
}
