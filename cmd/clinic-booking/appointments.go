package main

import (
	"errors"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
)

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List and manage appointments",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments (your own unless filters are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			who := a.identity(cmd.Context())
			if !who.Authenticated() {
				return errors.New("not logged in")
			}
			providerID, _ := cmd.Flags().GetString("provider")
			patientID, _ := cmd.Flags().GetString("patient")
			date, _ := cmd.Flags().GetString("date")

			client := a.client()
			var appts []schedulerapi.Appointment
			switch {
			case providerID != "" && patientID == "" && date == "":
				appts, err = client.ListProviderAppointments(cmd.Context(), providerID)
			default:
				if providerID == "" && patientID == "" && who.Role == identity.RolePatient {
					patientID = who.ID
				}
				appts, err = client.ListAppointments(cmd.Context(), schedulerapi.AppointmentFilter{
					ProviderID: providerID,
					PatientID:  patientID,
					Date:       date,
				})
			}
			if err != nil {
				return err
			}

			if len(appts) == 0 {
				a.printf("No appointments\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			_, _ = tw.Write([]byte("ID\tCLINIC\tSTART\tEND\tSTATUS\n"))
			for _, appt := range appts {
				line := appt.ID + "\t" + appt.ClinicID + "\t" + appt.StartTime + "\t" + appt.EndTime + "\t" + appt.Status + "\n"
				_, _ = tw.Write([]byte(line))
			}
			return nil
		},
	}
	listCmd.Flags().String("provider", "", "Provider id")
	listCmd.Flags().String("patient", "", "Patient id")
	listCmd.Flags().String("date", "", "Date (YYYY-MM-DD)")

	statusCmd := &cobra.Command{
		Use:   "status <appointment-id> <booked|confirmed|cancelled|completed|no_show>",
		Short: "Change an appointment's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			status, err := schedulerapi.ParseAppointmentStatus(args[1])
			if err != nil {
				return err
			}
			appt, err := a.client().UpdateAppointmentStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			current := appt.Status
			if current == "" {
				current = string(status)
			}
			a.printf("Appointment %s is now %s\n", args[0], current)
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(statusCmd)
	return cmd
}
