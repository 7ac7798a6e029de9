package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/luxequeer/deployer/internal/content"
	"github.com/luxequeer/deployer/internal/frontend"
	"github.com/luxequeer/deployer/internal/services"
	appErr "github.com/luxequeer/deployer/pkg/errors"
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Create js/main.js, pages/ and index.html under WEBSITE_DIR",
	Long: `Lay out a site tree the deployer can run against. Files that already
exist are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := frontend.Scaffold(osfs.New(cfg.WebsiteDir), content.Default())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(created) == 0 {
			fmt.Fprintln(out, dimStyle.Render("site tree already present in "+cfg.WebsiteDir))
			return nil
		}
		for _, p := range created {
			fmt.Fprintln(out, okStyle.Render("created "+p))
		}
		return nil
	},
}

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator API token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, fallback, err := cfg.SigningSecret()
		if err != nil {
			return err
		}
		if fallback {
			fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("JWT_SECRET not set, signing with the development key"))
		}
		auth := services.NewAuthService(cfg.OperatorPasswordHash, secret)
		tok, err := auth.Issue(tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("expires "+tok.ExpiresAt.Format(time.RFC3339)))
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash for OPERATOR_PASSWORD_HASH",
	Long: `Hash an operator password. With no argument the password is read from
the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return appErr.Wrap(err, appErr.CodeInvalid, "read password")
			}
			password = strings.TrimRight(line, "\r\n")
		}
		hash, err := services.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", services.OperatorSubject, "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", services.TokenTTL, "token lifetime")
}
