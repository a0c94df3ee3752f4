package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/dogmatiq/linger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultWatchInterval = 5 * time.Second

func newMessageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Send and read direct messages",
	}

	cmd.AddCommand(
		newMessageSendCmd(a),
		newMessageListCmd(a),
		newMessageWatchCmd(a),
	)

	return cmd
}

func newMessageSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipient-id> <text>...",
		Short: "Write a message into both conversation logs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.bootstrap(cmd); err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			recipient := domain.UserID(args[0])
			sent, err := a.client.Messenger.SendMessage(cmd.Context(), recipient, domain.Message{
				Content: strings.Join(args[1:], " "),
			})
			if errors.Is(err, domain.ErrRecipientUnreachable) || errors.Is(err, domain.ErrDeliveryFailed) {
				if writeErr := a.write(cmd, sent, func() (string, error) {
					return fmt.Sprintf("message %s saved to your log", sent.ID), nil
				}); writeErr != nil {
					return errors.Join(err, writeErr)
				}
				return fmt.Errorf("sent but not delivered: %w", err)
			}
			if err != nil {
				return err
			}

			return a.write(cmd, sent, func() (string, error) {
				return fmt.Sprintf("sent %s to %s", sent.ID, recipient), nil
			})
		},
	}
}

func newMessageListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <peer-id>",
		Short: "Print the conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.bootstrap(cmd)
			if err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			peer := domain.UserID(args[0])
			messages, err := a.client.Messenger.FetchMessages(cmd.Context(), peer)
			if err != nil {
				return err
			}

			return a.write(cmd, messages, func() (string, error) {
				return feedrender.RenderConversation(session.User.ID, peer, messages, a.renderOptions())
			})
		},
	}
}

func newMessageWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	var polls int

	cmd := &cobra.Command{
		Use:   "watch <peer-id>",
		Short: "Poll the conversation with a peer and print new messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("interval must be positive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			session, err := a.bootstrap(cmd)
			if err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			err = a.watchConversation(ctx, cmd, session.User.ID, domain.UserID(args[0]), interval, polls)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Mean delay between polls")
	cmd.Flags().IntVar(&polls, "polls", 0, "Stop after this many polls (0 watches until interrupted)")

	return cmd
}

func (a *app) watchConversation(ctx context.Context, cmd *cobra.Command, self, peer domain.UserID, interval time.Duration, polls int) error {
	seen := map[string]bool{}
	enc := json.NewEncoder(cmd.OutOrStdout())

	for poll := 0; polls <= 0 || poll < polls; poll++ {
		if poll > 0 {
			if err := linger.SleepX(ctx, linger.FullJitter, interval); err != nil {
				return err
			}
		}

		messages, err := a.client.Messenger.FetchMessages(ctx, peer)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warn("poll failed", zap.String("peer", string(peer)), zap.Error(err))
			continue
		}

		for _, msg := range messages {
			if seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true

			if a.opts.asJSON {
				if err := enc.Encode(msg); err != nil {
					return err
				}
				continue
			}

			line, err := feedrender.RenderMessage(self, msg, a.renderOptions())
			if err != nil {
				return fmt.Errorf("render output: %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				return err
			}
		}
	}

	return nil
}
