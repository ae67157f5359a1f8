package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/spf13/cobra"
)

// HintLogin is shown after an error that ended the stored session.
const HintLogin = "Run `fundme login` to start a new session."

// UserError carries the message shown for a failed command. The wrapped
// error is kept for logging.
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

func userError(err error) error {
	if err == nil {
		return nil
	}
	ue := &UserError{Message: authsdk.UserMessage(err), Err: err}
	if authsdk.SessionEnded(err) {
		ue.Hint = HintLogin
	}
	return ue
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *App {
	return cmd.Context().Value(appKey{}).(*App)
}

// NewRootCommand builds the fundme command tree. The session is opened before
// each command and closed after it, whether or not the command failed.
func NewRootCommand(cfg Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "fundme",
		Short: "Sign in to the FundMe banking API and call it with the stored session",
		Long: `fundme keeps a session for the FundMe banking API.

Log in once and later commands send the stored credential, refreshing it
when the API rejects it. The session lives in the store selected by
FUNDME_STORE (sqlite, redis or memory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		loginCmd(cfg),
		logoutCmd(),
		statusCmd(),
		profileCmd(),
		adminCmd(),
		versionCmd(),
	)
	withSession(root, cfg)
	return root
}

// withSession wraps every runnable command under cmd so that it runs with an
// open App. Commands annotated session=none are left alone.
func withSession(cmd *cobra.Command, cfg Config) {
	for _, sub := range cmd.Commands() {
		withSession(sub, cfg)
	}
	if cmd.RunE == nil || cmd.Annotations["session"] == "none" {
		return
	}

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		app, err := Open(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))

		defer func() {
			if werr := app.WriteMetrics(cmd.ErrOrStderr()); werr != nil {
				app.logger.Warn("failed to write metrics", "error", werr)
			}
			if cerr := app.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
}

func loginCmd(cfg Config) *cobra.Command {
	var (
		username string
		password string
		remember bool
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in with a username and password and store the returned credentials.

The password is taken from --password, then FUNDME_PASSWORD, then the first
line of standard input. Without --username the remembered username is used.
With --admin the login is undone unless the account has an admin role.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app := appFrom(cmd)

			if username == "" {
				username, _ = app.Guard.RememberedIdentifier(ctx)
			}
			if password == "" {
				password = cfg.Password
			}
			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			var (
				role credential.Role
				err  error
			)
			if admin {
				role, err = app.Guard.LoginRequiring(ctx, username, password, remember, credential.RoleAdmin)
			} else {
				role, err = app.Guard.Login(ctx, username, password, remember)
			}
			if err != nil {
				app.logger.Debug("login failed", "error", err)
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", username, role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember the username for the next login")
	cmd.Flags().BoolVar(&admin, "admin", false, "require an admin role")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := appFrom(cmd).Guard.Logout(cmd.Context()); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app := appFrom(cmd)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			role, ok := app.Guard.Role(ctx)
			if ok {
				fmt.Fprintln(w, "Authenticated:\tyes")
				fmt.Fprintf(w, "Role:\t%s\n", role)
			} else {
				fmt.Fprintln(w, "Authenticated:\tno")
			}
			if name, ok := app.Guard.RememberedIdentifier(ctx); ok {
				fmt.Fprintf(w, "Remembered:\t%s\n", name)
			}
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := appFrom(cmd).Accounts.Profile(cmd.Context())
			if err != nil {
				return userError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID:\t%s\n", p.ID)
			fmt.Fprintf(w, "Username:\t%s\n", p.Username)
			fmt.Fprintf(w, "Role:\t%s\n", p.Role)
			if !p.CreatedAt.IsZero() {
				fmt.Fprintf(w, "Created:\t%s\n", p.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "List accounts (admin role required)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			users, err := app.Accounts.ListUsers(cmd.Context())
			if err != nil {
				return userError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, u.Role)
			}
			return w.Flush()
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"session": "none"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BuildVersion)
		},
	}
}

func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if sc.Scan() {
		return strings.TrimRight(sc.Text(), "\r"), nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return "", nil
}

// ErrorHint returns the follow-up advice for an error returned by a command,
// or "" when there is none.
func ErrorHint(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Hint
	}
	return ""
}

// ErrorMessage returns what to print for an error returned by a command.
func ErrorMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}
