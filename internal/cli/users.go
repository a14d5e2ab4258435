package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-careteam-sync/domain"
)

func (a *App) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List chat users, named first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.container.Users().Merged(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				a.printer.Info("No users")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				name := u.UserName
				if name == "" {
					name = a.printer.Dim("(unnamed)")
				}
				rows = append(rows, []string{u.UserID, name})
			}
			return a.printer.Table([]string{"User ID", "Name"}, rows)
		},
	}
}

func (a *App) assignNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign-name <userId> <name>",
		Short: "Give a user a display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.container.Users().AssignName(cmd.Context(), domain.User{UserID: args[0], UserName: args[1]})
			if err != nil {
				return err
			}
			a.printer.Success("%s is now %s", resp.User.UserID, a.printer.Bold(resp.User.UserName))
			return nil
		},
	}
}

func (a *App) deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <userId>",
		Short: "Delete a user and their conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.container.Users().DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("Deleted %s", args[0])
			return nil
		},
	}
}
