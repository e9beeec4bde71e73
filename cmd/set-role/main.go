package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minewatch/minewatch-api/internal/config"
	"github.com/minewatch/minewatch-api/internal/domain/auth"
	"github.com/minewatch/minewatch-api/internal/domain/user"
	"github.com/minewatch/minewatch-api/internal/pkg/database"
)

var roleName string

var rootCmd = &cobra.Command{
	Use:   "set-role <email or phone>",
	Short: "Grant a role to an existing account",
	Long: `Grants a role to an account that has signed in at least once,
e.g. to let an official change report status:

  set-role --role authority officer@epa.gov.gh`,
	Args:    cobra.ExactArgs(1),
	PreRunE: checkRole,
	RunE:    runSetRole,
}

func init() {
	rootCmd.Flags().StringVar(&roleName, "role", string(user.RoleAuthority), "citizen, authority or admin")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func checkRole(cmd *cobra.Command, args []string) error {
	if !user.Role(roleName).IsValid() {
		return fmt.Errorf("unknown role %q", roleName)
	}
	return nil
}

func runSetRole(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	id, err := auth.ParseIdentifier(args[0], cfg.DefaultPhoneRegion)
	if err != nil {
		return fmt.Errorf("invalid identifier %q: %w", args[0], err)
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.ClosePostgres(db)

	repo := user.NewRepository(db)
	var u *user.User
	if id.Kind == auth.KindEmail {
		u, err = repo.GetByEmail(ctx, id.Value)
	} else {
		u, err = repo.GetByPhone(ctx, id.Value)
	}
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("no account for %s; the person must sign in once first", id.Value)
	}

	updated, err := user.UpdateRole(ctx, db, u.ID, user.Role(roleName))
	if err != nil {
		return err
	}

	cmd.Printf("User %s (%s) is now %s\n", updated.ID, id.Value, updated.Role)
	return nil
}
