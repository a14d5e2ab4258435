package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
	"github.com/goliatone/go-careteam-sync/endpoints"
)

func (a *App) surveysCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "surveys",
		Short: "List survey responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sub, err := a.container.Surveys().GetAllSurveys(ctx, cache.QueryOptions{})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			entries, err := cache.WaitAs[[]domain.SurveyEntry](ctx, sub)
			if err != nil {
				return err
			}
			if userID != "" {
				entries = endpoints.SurveysByUser(entries)[userID]
			}
			if len(entries) == 0 {
				a.printer.Info("No survey responses")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				created := ""
				if !e.CreatedAt.IsZero() {
					created = e.CreatedAt.Local().Format(timeLayout)
				}
				rows = append(rows, []string{e.ID, e.UserID, created, formatAnswers(e.Answers)})
			}
			return a.printer.Table([]string{"ID", "User", "Submitted", "Answers"}, rows)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only show responses from this user")
	return cmd
}

func formatAnswers(answers map[string]any) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, answers[k]))
	}
	return strings.Join(parts, "; ")
}

func (a *App) membersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List care team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireIdentity(cmd, args); err != nil {
				return err
			}
			ctx := cmd.Context()
			sub, err := a.container.CareTeam().GetCareTeamMembers(ctx, cache.QueryOptions{})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			members, err := cache.WaitAs[[]domain.CareTeamMember](ctx, sub)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(members))
			for _, m := range members {
				rows = append(rows, []string{m.Name(), m.Speciality, m.Email, m.Phone})
			}
			return a.printer.Table([]string{"Name", "Speciality", "Email", "Phone"}, rows)
		},
	}
}
