package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/bootstrap"
)

var (
	tokenUserID   int64
	tokenUsername string
	tokenRole     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed access token for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.RoleType(strings.ToUpper(tokenRole))
		if role != models.RoleStudent && role != models.RoleAdmin {
			return fmt.Errorf("role must be %s or %s", models.RoleStudent, models.RoleAdmin)
		}
		if tokenUserID <= 0 {
			return fmt.Errorf("--user-id must be positive")
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		token, err := bootstrap.NewJWTService(cfg).GenerateAccessToken(tokenUserID, tokenUsername, string(role))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "student or admin ID carried in the token")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "username carried in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleStudent), "STUDENT or ADMIN")
	rootCmd.AddCommand(tokenCmd)
}
