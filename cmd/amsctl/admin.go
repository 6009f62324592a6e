package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adwelink/ams-api/internal/core/auth"
)

func bootstrapAdminCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create a super admin account",
		Long: `Create a platform super admin. The password is read from --password
or, when omitted, from the AMS_ADMIN_PASSWORD environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("AMS_ADMIN_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and a password are required")
			}

			cfg, db := connect()
			defer db.Close()

			svc := auth.NewService(db.GORM, auth.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL), nil)
			user, err := svc.CreateSuperAdmin(email, name, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "super admin %s created (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Login email")
	cmd.Flags().StringVarP(&name, "name", "n", "Adwelink Admin", "Display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (min 8 chars)")

	return cmd
}
