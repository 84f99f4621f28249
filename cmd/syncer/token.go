package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"skill-radar/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

var (
	tokenTTL  time.Duration
	tokenName string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator token for the admin API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if strings.TrimSpace(e.cfg.JWT.Secret) == "" {
			return errors.New("jwt.secret is not configured")
		}

		svc := jwt.NewHMACService(e.cfg.JWT.Secret, e.cfg.JWT.Issuer, e.cfg.JWT.TokenTTL)
		token, err := svc.GenerateOperatorToken(tokenName, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "cli", "operator name stored in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}
