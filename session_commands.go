package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eventlens-client/internal/session"
)

func newSessionCommands(ctx *commandContext) []*cobra.Command {
	var token string

	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a token issued by the EventLens web app",
		Long:  "Sign in with a token issued by the EventLens web app. The token is read from --token, EVENTLENS_TOKEN, or standard input.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}

			if token == "" {
				token = os.Getenv("EVENTLENS_TOKEN")
			}
			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			s, err := svc.sessions.Login(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", displayName(s.Profile.Name, s.Profile.Email, s.Profile.UserID))
			return nil
		},
	}
	login.Flags().StringVar(&token, "token", "", "Bearer token")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			if err := svc.sessions.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}

			s, err := svc.sessions.Current()
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			rows := [][]string{
				{"User", s.Profile.UserID},
				{"Name", s.Profile.Name},
				{"Email", s.Profile.Email},
				{"Role", s.Profile.Role},
				{"Tenant", s.Profile.TenantID},
				{"Signed in", s.CreatedAt.Local().Format("2006-01-02 15:04")},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(textColumns("Field", "Value"), rows))
			return nil
		},
	}

	return []*cobra.Command{login, logout, whoami}
}

func displayName(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return "unknown user"
}
