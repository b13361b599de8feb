package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
)

const passwordEnv = "CLINIC_BOOKING_PASSWORD"

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and a password (--password or " + passwordEnv + ") are required")
			}

			auth := identity.NewAuthenticator(a.client(), a.store, a.resolver, a.logger)
			who, err := auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.printf("Logged in as %s (%s)\n", displayName(who), who.Role)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prefer "+passwordEnv+")")
	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			email, _ := flags.GetString("email")
			password, _ := flags.GetString("password")
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			role, _ := flags.GetString("role")
			role = strings.ToLower(strings.TrimSpace(role))

			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--name, --email and a password (--password or " + passwordEnv + ") are required")
			}
			switch identity.Role(role) {
			case identity.RolePatient, identity.RoleStaff, identity.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			auth := identity.NewAuthenticator(a.client(), a.store, a.resolver, a.logger)
			who, err := auth.Register(cmd.Context(), schedulerapi.RegisterRequest{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
				Role:     role,
			})
			if err != nil {
				if detail := schedulerapi.DetailOf(err); detail != "" {
					a.printf("Registration failed: %s\n", detail)
				}
				return err
			}
			a.printf("Registered and logged in as %s (%s)\n", displayName(who), who.Role)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prefer "+passwordEnv+")")
	cmd.Flags().String("role", string(identity.RolePatient), "patient, staff or admin")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			auth := identity.NewAuthenticator(a.client(), a.store, a.resolver, a.logger)
			if err := auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			who := a.identity(cmd.Context())
			if !who.Authenticated() {
				a.printf("Not logged in\n")
				return nil
			}
			a.printf("%s\t%s\t%s\t%s\n", who.ID, displayName(who), who.Email, who.Role)
			return nil
		},
	}
}

func displayName(who *identity.Identity) string {
	if who == nil {
		return ""
	}
	if who.Name != "" {
		return who.Name
	}
	if who.Email != "" {
		return who.Email
	}
	return who.ID
}
