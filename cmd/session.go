package cmd

import (
	"fmt"
	"strings"

	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/spf13/cobra"
)

type persistedSession struct {
	UserID     domain.UserID `json:"user_id,omitempty"`
	Candidates []string      `json:"candidates"`
}

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Resolve and inspect the backend session",
	}

	cmd.AddCommand(
		newSessionResolveCmd(a),
		newSessionShowCmd(a),
		newSessionCatalogCmd(a),
	)

	return cmd
}

func newSessionResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Walk the endpoint catalog and print the resolved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.bootstrap(cmd)
			if err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}

			return a.write(cmd, session, func() (string, error) {
				return feedrender.RenderSession(session)
			})
		},
	}
}

func newSessionShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted user and endpoint catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			persisted, err := loadPersistedSession(cmd, a)
			if err != nil {
				return err
			}

			return a.write(cmd, persisted, func() (string, error) {
				return formatPersistedSession(persisted), nil
			})
		},
	}
}

func newSessionCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog <address>...",
		Short: "Replace the endpoint catalog, in priority order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.SetCandidateAddresses(cmd.Context(), args); err != nil {
				return fmt.Errorf("save endpoint catalog: %w", err)
			}

			persisted, err := loadPersistedSession(cmd, a)
			if err != nil {
				return err
			}

			return a.write(cmd, persisted, func() (string, error) {
				return formatPersistedSession(persisted), nil
			})
		},
	}
}

func loadPersistedSession(cmd *cobra.Command, a *app) (persistedSession, error) {
	userID, err := a.settings.PersistedUserID(cmd.Context())
	if err != nil {
		return persistedSession{}, fmt.Errorf("load persisted user: %w", err)
	}

	candidates, err := a.settings.CandidateAddresses(cmd.Context())
	if err != nil {
		return persistedSession{}, fmt.Errorf("load endpoint catalog: %w", err)
	}

	return persistedSession{UserID: userID, Candidates: candidates}, nil
}

func formatPersistedSession(p persistedSession) string {
	user := string(p.UserID)
	if user == "" {
		user = "guest"
	}

	lines := []string{"user: " + user}
	if len(p.Candidates) == 0 {
		lines = append(lines, "catalog: empty")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "catalog:")
	for i, candidate := range p.Candidates {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, candidate))
	}

	return strings.Join(lines, "\n")
}
