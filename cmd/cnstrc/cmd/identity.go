package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// identityInfo is the identity command output.
type identityInfo struct {
	ClientID  string `json:"client_id"`
	SessionID int    `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Backend   string `json:"backend"`
	BaseURL   string `json:"base_url"`
}

func identityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Show the stored client id and current session",
		Long: "Loads the identity from the configured backend, creating a client id\n" +
			"on first use, and touches the session so an idle one is rolled over.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, a *app) error {
				info := identityInfo{
					ClientID:  a.client.ClientID(),
					SessionID: a.client.SessionID(ctx),
					UserID:    a.client.UserID(),
					Backend:   a.backend,
					BaseURL:   a.client.Config().BaseURL(),
				}
				if jsonOutput() {
					return outputJSON(cmd.OutOrStdout(), info)
				}
				return printIdentity(cmd.OutOrStdout(), info)
			})
		},
	}
}
