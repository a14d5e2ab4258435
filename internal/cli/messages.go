package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
	"github.com/goliatone/go-careteam-sync/endpoints"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) messagesCmd() *cobra.Command {
	var (
		watch    bool
		markRead bool
	)
	cmd := &cobra.Command{
		Use:   "messages <userId>",
		Short: "Show a conversation",
		Long: `Show the conversation with a user.

With --watch the conversation stays open: it is polled at
messages.polling_interval and new messages are printed as they arrive
until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireIdentity(cmd, args); err != nil {
				return err
			}
			userID := args[0]
			opts := endpoints.ConversationOptions(userID, watch)
			if opts.Skip {
				a.printer.Info("%s has no conversation", userID)
				return nil
			}
			if watch {
				opts.PollingInterval = a.container.Config().Messages.PollingInterval
			}

			ctx := cmd.Context()
			sub, err := a.container.Messages().GetUserMessages(ctx, userID, opts)
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			msgs, err := cache.WaitAs[[]domain.ChatMessage](ctx, sub)
			if err != nil {
				return err
			}
			a.printer.Header("Conversation with " + userID)
			if len(msgs) == 0 {
				a.printer.Info("No messages yet")
			}
			printed := a.printMessages(msgs, 0)

			if markRead {
				if err := a.container.Messages().MarkMessagesAsRead(ctx, userID); err != nil {
					a.printer.Warning("could not mark messages as read: %s", describe(err))
				}
			}
			if !watch {
				return nil
			}

			a.printer.Print("%s", a.printer.Dim("watching for new messages, press Ctrl+C to stop"))
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-sub.Changes():
					if !ok {
						return nil
					}
				}
				snap := sub.Snapshot()
				if snap.IsError() {
					a.printer.Warning("refresh failed: %s", describe(snap.Err))
					continue
				}
				msgs, err := cache.Data[[]domain.ChatMessage](snap)
				if err != nil {
					return err
				}
				printed = a.printMessages(msgs, printed)
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the conversation open and print new messages")
	cmd.Flags().BoolVar(&markRead, "mark-read", true, "mark the conversation as read after loading it")
	return cmd
}

// printMessages prints msgs[from:] and returns how many messages have been
// printed. A shorter list than before means the conversation was replaced.
func (a *App) printMessages(msgs []domain.ChatMessage, from int) int {
	if from > len(msgs) {
		from = 0
	}
	for _, m := range msgs[from:] {
		author := "user"
		if m.Role == domain.RoleAssistant {
			author = "care team"
			if m.Agent != "" {
				author = m.Agent
			}
		}
		a.printer.Print("%s %s %s", a.printer.Dim(m.Timestamp.Local().Format(timeLayout)), a.printer.Bold(author+":"), m.Content)
	}
	return len(msgs)
}

func (a *App) sendCmd() *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "send <userId> <message...>",
		Short: "Reply to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := a.requireIdentity(cmd, args)
			if err != nil {
				return err
			}
			if agent == "" {
				agent = member.Name()
			}
			req := domain.SendMessageRequest{
				To:      args[0],
				Message: strings.Join(args[1:], " "),
				Agent:   agent,
			}
			if err := a.container.Messages().SendMessage(cmd.Context(), req); err != nil {
				return err
			}
			a.printer.Success("Sent to %s", req.To)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent name shown with the reply (default is your display name)")
	return cmd
}

func (a *App) markReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <userId>",
		Short: "Mark a conversation as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireIdentity(cmd, args); err != nil {
				return err
			}
			if err := a.container.Messages().MarkMessagesAsRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("Marked %s as read", args[0])
			return nil
		},
	}
}

func (a *App) inboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Show the latest message of every conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireIdentity(cmd, args); err != nil {
				return err
			}
			ctx := cmd.Context()
			sub, err := a.container.Messages().GetLastMessages(ctx, cache.QueryOptions{})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			last, err := cache.WaitAs[[]domain.LastMessage](ctx, sub)
			if err != nil {
				return err
			}
			if len(last) == 0 {
				a.printer.Info("Inbox is empty")
				return nil
			}
			sort.SliceStable(last, func(i, j int) bool {
				return last[i].Timestamp.After(last[j].Timestamp)
			})

			rows := make([][]string, 0, len(last))
			for _, m := range last {
				who := m.UserID
				if m.UserName != "" {
					who = m.UserName + " (" + m.UserID + ")"
				}
				unread := ""
				if m.Unread > 0 {
					unread = fmt.Sprint(m.Unread)
				}
				rows = append(rows, []string{who, truncate(m.Content, 48), unread, ago(m.Timestamp)})
			}
			return a.printer.Table([]string{"User", "Last message", "Unread", "When"}, rows)
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Local().Format(timeLayout)
}
