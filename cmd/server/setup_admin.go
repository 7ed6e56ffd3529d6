package main

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager-api/internal/services"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var setupAdminCmd = &cobra.Command{
	Use:   "setup-admin",
	Short: "Create the administrator account, or promote an existing user",
	Long: `Creates an active admin user with the given email and password.
If a user with that email already exists it is promoted to admin and
reactivated; its password is left unchanged.

Flags fall back to ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		seed := services.AdminSeed{
			Name:     cfg.AdminName,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}
		if cmd.Flags().Changed("email") {
			seed.Email = adminEmail
		}
		if cmd.Flags().Changed("password") {
			seed.Password = adminPassword
		}
		if cmd.Flags().Changed("name") {
			seed.Name = adminName
		}
		if seed.Email == "" {
			return errors.New("admin email is required (--email or ADMIN_EMAIL)")
		}

		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.close()

		user, created, err := services.NewAuthService(st.users).EnsureAdmin(cmd.Context(), seed)
		if err != nil {
			return err
		}
		if created {
			log.Printf("Created admin %s (%s)", user.Email, user.ID)
		} else {
			log.Printf("Promoted %s (%s) to admin", user.Email, user.ID)
		}
		return nil
	},
}

func init() {
	setupAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	setupAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (required when creating)")
	setupAdminCmd.Flags().StringVar(&adminName, "name", "", "Display name")
}
