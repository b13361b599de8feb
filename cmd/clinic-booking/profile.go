package main

import (
	"errors"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the logged-in user's profile",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the profile stored by the scheduling API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if !a.identity(cmd.Context()).Authenticated() {
				return identity.ErrNotLoggedIn
			}
			p, err := a.client().GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(a, p)
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the flags given are sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			update := schedulerapi.ProfileUpdate{
				Name:             changedFlag(cmd, "name"),
				Phone:            changedFlag(cmd, "phone"),
				DateOfBirth:      changedFlag(cmd, "date-of-birth"),
				Address:          changedFlag(cmd, "address"),
				EmergencyContact: changedFlag(cmd, "emergency-contact"),
			}
			if update == (schedulerapi.ProfileUpdate{}) {
				return errors.New("nothing to update: pass at least one of --name, --phone, --date-of-birth, --address, --emergency-contact")
			}

			auth := identity.NewAuthenticator(a.client(), a.store, a.resolver, a.logger)
			who, err := auth.UpdateProfile(cmd.Context(), update)
			if err != nil {
				if detail := schedulerapi.DetailOf(err); detail != "" {
					a.printf("Profile update failed: %s\n", detail)
				}
				return err
			}
			a.printf("Profile updated for %s\n", displayName(who))
			return nil
		},
	}
	flags := updateCmd.Flags()
	flags.String("name", "", "Full name")
	flags.String("phone", "", "Phone number")
	flags.String("date-of-birth", "", "Date of birth (YYYY-MM-DD)")
	flags.String("address", "", "Postal address")
	flags.String("emergency-contact", "", "Emergency contact")

	cmd.AddCommand(showCmd)
	cmd.AddCommand(updateCmd)
	return cmd
}

// changedFlag returns the flag's value only when the user set it, so unset
// fields are left alone on the server.
func changedFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func printProfile(a *app, p *schedulerapi.Profile) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	rows := [][2]string{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Email", p.Email},
		{"Role", p.Role},
		{"Phone", p.Phone},
		{"Date of birth", p.DateOfBirth},
		{"Address", p.Address},
		{"Emergency contact", p.EmergencyContact},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		_, _ = tw.Write([]byte(row[0] + ":\t" + row[1] + "\n"))
	}
}
