package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pomelo/internal/pkg/id"
	"pomelo/internal/pkg/jwt"
)

var (
	tokenUserID string
	tokenName   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token",
	Long:  `Issue a signed JWT access token using the configured auth.jwt_secret.`,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.StringVarP(&tokenUserID, "user", "u", "", "user id claim (default: generated)")
	flags.StringVarP(&tokenName, "name", "n", "", "display name claim")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	userID := tokenUserID
	if userID == "" {
		userID = id.New()
	}

	token, err := jwt.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry).GenerateToken(userID, tokenName)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Printf("user_id: %s\ntoken: %s\n", userID, token)
	return nil
}
