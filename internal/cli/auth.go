package cli

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/domain"
)

var (
	errNotSignedIn    = errors.New("not signed in", errors.CategoryAuth).WithTextCode("NOT_SIGNED_IN")
	errBadCredentials = errors.New("incorrect email or password", errors.CategoryAuth).WithTextCode("INVALID_CREDENTIALS")
)

// requireIdentity returns the signed-in member or errNotSignedIn. The
// command line, arguments included, is remembered as the post-login
// destination.
func (a *App) requireIdentity(cmd *cobra.Command, args []string) (domain.CareTeamMember, error) {
	member, ok := a.container.Auth().Identity()
	if ok {
		return member, nil
	}
	if err := a.container.Auth().SetReturnTo(cmd.Context(), commandLine(cmd, args)); err != nil {
		a.printer.Warning("could not remember this command: %s", describe(err))
	}
	return domain.CareTeamMember{}, errNotSignedIn
}

// commandLine renders cmd with its positional args and the command's own
// flags that were set, so it can be pasted back into a shell.
func commandLine(cmd *cobra.Command, args []string) string {
	parts := []string{cmd.CommandPath()}
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if f.Value.Type() == "bool" && f.Value.String() == "true" {
			parts = append(parts, "--"+f.Name)
			return
		}
		parts = append(parts, "--"+f.Name+"="+shellQuote(f.Value.String()))
	})
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"'") {
		return strconv.Quote(s)
	}
	return s
}

func (a *App) loginCmd() *cobra.Command {
	var req domain.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a care team member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			member, returnTo, err := a.container.SignIn(cmd.Context(), req)
			if api.IsUnauthorized(err) {
				return errBadCredentials
			}
			if err != nil {
				return err
			}
			a.printer.Success("Signed in as %s", a.printer.Bold(member.Name()))
			if returnTo != "" {
				a.printer.Info("Continue with: %s", returnTo)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.container.Auth().IsAuthenticated() {
				a.printer.Info("Not signed in")
				return nil
			}
			if err := a.container.SignOut(cmd.Context()); err != nil {
				return err
			}
			a.printer.Success("Signed out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			member, ok := a.container.Auth().Identity()
			if !ok {
				a.printer.Warning("Not signed in")
				return nil
			}
			a.printer.Header(member.Name())
			rows := [][]string{
				{"ID", member.ID},
				{"Full name", member.FullName},
				{"Email", member.Email},
				{"Speciality", member.Speciality},
				{"Phone", member.Phone},
			}
			return a.printer.Table([]string{"Field", "Value"}, rows)
		},
	}
}

func (a *App) signupCmd() *cobra.Command {
	var req domain.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new care team member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			member, err := a.container.CareTeam().Signup(cmd.Context(), req)
			if api.IsConflict(err) {
				return errors.New("a care team member with email "+req.Email+" already exists", errors.CategoryConflict).
					WithTextCode("ALREADY_EXISTS")
			}
			if err != nil {
				return err
			}
			a.printer.Success("Registered %s, sign in with careteam login --email %s", member.Name(), member.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "name shown to colleagues")
	cmd.Flags().StringVar(&req.Speciality, "speciality", "", "clinical speciality")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	return cmd
}
