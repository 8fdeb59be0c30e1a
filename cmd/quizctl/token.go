package main

import (
	"fmt"

	"github.com/spf13/cobra"

	auth "github.com/mind-engage/quizgrade/internal/auth/middleware"
	"github.com/mind-engage/quizgrade/internal/config"
	"github.com/mind-engage/quizgrade/internal/rbac"
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a bearer token signed with the configured secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		if !rbac.KnownRole(role) {
			return fmt.Errorf("unknown role %q", role)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a, err := auth.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.TokenTTL, cfg.Auth.AdminUser, cfg.Auth.AdminPassHash)
		if err != nil {
			return err
		}
		tok, err := a.IssueJWT(args[0], role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("role", rbac.RoleLearner, "Role claim: learner, teacher or admin")
}
