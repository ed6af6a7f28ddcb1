// Package main is the entrypoint for the certvault CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MacJediWizard/certvault/internal/client"
	"github.com/MacJediWizard/certvault/internal/config"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const requestTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "certvault",
		Short: "Issue and verify course completion certificates",
		Long: `certvault talks to a certvault server to issue, list, revoke and
verify certificates.

Run 'certvault login --server URL --email EMAIL' to start a session.
Verification does not require a session.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newVerifyCmd(),
		newIssueCmd(),
		newCertificatesCmd(),
		newRevokeCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("certvault %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Built:      %s\n", BuildDate)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)

			cfg, err := config.LoadDefault()
			if err != nil || cfg.Validate() != nil {
				return
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if info, err := client.New(cfg.ServerURL, "").Version(ctx); err == nil {
				fmt.Printf("  Server:     %s (%s)\n", info["version"], cfg.ServerURL)
			}
		},
	}
}

func validateServerURL(serverURL string) error {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https scheme")
	}
	return nil
}

func newLoginCmd() *cobra.Command {
	var serverURL, email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a certvault server",
		Long: `Log in to a certvault server.

You will be prompted for your password. The resulting tokens are stored
in the CLI profile, which is readable only by you.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), serverURL, email)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "certvault server URL (defaults to the saved profile)")
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(ctx context.Context, serverURL, email string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if serverURL != "" {
		if err := validateServerURL(serverURL); err != nil {
			return err
		}
		cfg.ServerURL = strings.TrimSuffix(serverURL, "/")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w (pass --server)", err)
	}

	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := client.New(cfg.ServerURL, "").Login(ctx, email, password)
	if err != nil {
		return err
	}

	cfg.Email = resp.Email
	cfg.AccessToken = resp.AccessToken
	cfg.RefreshToken = resp.RefreshToken
	if err := cfg.SaveDefault(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Logged in as %s (%s) on %s\n", resp.FullName, resp.Role, cfg.ServerURL)
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDefault()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.ClearSession()
			if err := cfg.SaveDefault(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "verify <code>",
		Short: "Verify a certificate by its verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDefault()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if serverURL != "" {
				cfg.ServerURL = strings.TrimSuffix(serverURL, "/")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			cert, err := client.New(cfg.ServerURL, "").Verify(ctx, args[0])
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
				fmt.Println("NOT FOUND: no certificate matches this code")
				return errors.New("verification failed")
			}
			if err != nil {
				return err
			}

			verdict := "VALID"
			if !cert.Valid {
				verdict = "NOT VALID"
			}
			fmt.Printf("%s: certificate %s is %s\n", verdict, cert.CertificateNumber, cert.Status)
			fmt.Printf("  Recipient: %s\n", cert.RecipientName)
			fmt.Printf("  Course:    %s\n", cert.CourseName)
			fmt.Printf("  Issued:    %s\n", cert.IssueDate.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "certvault server URL (defaults to the saved profile)")

	return cmd
}

func newIssueCmd() *cobra.Command {
	var (
		courseID       int64
		recipientID    int64
		recipientEmail string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a certificate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if recipientID == 0 && recipientEmail == "" {
				return errors.New("one of --recipient-id or --recipient-email is required")
			}
			req := client.IssueRequest{CourseID: courseID, RecipientEmail: recipientEmail}
			if recipientID != 0 {
				req.RecipientID = &recipientID
			}

			var cert *models.Certificate
			err := withSession(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				var err error
				cert, err = c.Issue(ctx, req)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Printf("Issued %s\n", cert.CertificateNumber)
			fmt.Printf("  Verification code: %s\n", cert.VerificationCode)
			fmt.Printf("  Recipient:         %s <%s>\n", cert.RecipientName, cert.RecipientEmail)
			fmt.Printf("  Course:            %s\n", cert.CourseName)
			return nil
		},
	}

	cmd.Flags().Int64Var(&courseID, "course", 0, "course ID (required)")
	cmd.Flags().Int64Var(&recipientID, "recipient-id", 0, "recipient user ID")
	cmd.Flags().StringVar(&recipientEmail, "recipient-email", "", "recipient email")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}

func newCertificatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificates",
		Short: "Work with certificates",
	}

	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List certificates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var certs []*models.Certificate
			err := withSession(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				var err error
				if mine {
					certs, err = c.ListMyCertificates(ctx)
				} else {
					certs, err = c.ListCertificates(ctx)
				}
				return err
			})
			if err != nil {
				return err
			}

			if len(certs) == 0 {
				fmt.Println("No certificates found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tCODE\tSTATUS\tCOURSE\tRECIPIENT\tISSUED")
			for _, c := range certs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					c.ID, c.CertificateNumber, c.VerificationCode, c.Status,
					c.CourseName, c.RecipientName, c.IssueDate.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&mine, "mine", false, "only certificates awarded to you")

	cmd.AddCommand(list)
	return cmd
}

func newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <certificate-id>",
		Short: "Revoke a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid certificate ID %q", args[0])
			}

			var cert *models.Certificate
			err = withSession(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				var err error
				cert, err = c.UpdateStatus(ctx, id, models.CertificateStatusRevoked)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Printf("Certificate %s is now %s\n", cert.CertificateNumber, cert.Status)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDefault()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			configPath, _ := config.DefaultConfigPath()
			fmt.Printf("Config file: %s\n", configPath)
			fmt.Println()

			if cfg.ServerURL == "" {
				fmt.Println("Not configured. Run 'certvault login --server URL --email EMAIL' to set up.")
				return nil
			}

			fmt.Printf("Server URL: %s\n", cfg.ServerURL)
			if cfg.Email != "" {
				fmt.Printf("Email:      %s\n", cfg.Email)
			}
			fmt.Printf("Logged in:  %v\n", cfg.IsLoggedIn())
			return nil
		},
	})

	return cmd
}

// withSession runs fn with an authenticated client. If the access token has
// expired and a refresh token is stored, the session is refreshed once and fn
// is retried.
func withSession(ctx context.Context, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.IsLoggedIn() {
		return errors.New("not logged in: run 'certvault login' first")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	c := client.New(cfg.ServerURL, cfg.AccessToken)
	err = fn(ctx, c)
	if !errors.Is(err, client.ErrUnauthorized) || cfg.RefreshToken == "" {
		return err
	}

	resp, refreshErr := c.Refresh(ctx, cfg.RefreshToken)
	if refreshErr != nil {
		cfg.ClearSession()
		_ = cfg.SaveDefault()
		return errors.New("session expired: run 'certvault login' again")
	}

	cfg.AccessToken = resp.AccessToken
	cfg.RefreshToken = resp.RefreshToken
	if err := cfg.SaveDefault(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	return fn(ctx, c)
}
