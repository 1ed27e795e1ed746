package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/library/internal/client"
)

// terminalPassword reads a password without echo. Piped input is read as a plain line.
func (a *app) terminalPassword(prompt string) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.errOut, prompt)
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}
	return a.readLine(prompt)
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	if a.lines == nil {
		a.lines = bufio.NewReader(a.in)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) loginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				var err error
				if email, err = a.readLine("Email: "); err != nil {
					return err
				}
			}
			password, err := a.terminalPassword("Password: ")
			if err != nil {
				return err
			}

			login, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				if client.StatusCode(err) == http.StatusTooManyRequests {
					return fmt.Errorf("too many failed attempts, retry in %ss", retryAfter(err))
				}
				return err
			}
			return a.done(login.User, "Logged in as %s <%s>, session valid until %s",
				login.User.Name, login.User.Email, login.ExpiresAt.Local().Format(time.DateTime))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when omitted)")
	return cmd
}

func retryAfter(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter != "" {
		return apiErr.RetryAfter
	}
	return "?"
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			return a.done(map[string]string{"message": "logged out"}, "Logged out.")
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.done(user, "%s <%s> (%s)", user.Name, user.Email, user.ID)
		},
	}
}

func (a *app) registerCommand() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.terminalPassword("Password: ")
			if err != nil {
				return err
			}
			user, err := a.client.Register(cmd.Context(), client.RegisterInput{Name: name, Email: email, Password: password})
			if err != nil {
				return err
			}
			return a.done(user, "Registered %s <%s> with id %s", user.Name, user.Email, user.ID)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := [][]string{{"server", health.Status}}
			for _, name := range names {
				rows = append(rows, []string{name, health.Checks[name]})
			}
			return a.table(health, []string{"CHECK", "STATUS"}, rows)
		},
	}
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.table(stats, []string{"METRIC", "VALUE"}, [][]string{
				{"books", fmt.Sprint(stats.TotalBooks)},
				{"authors", fmt.Sprint(stats.TotalAuthors)},
				{"users", fmt.Sprint(stats.TotalUsers)},
				{"active loans", fmt.Sprint(stats.ActiveBorrows)},
			})
		},
	}
}
