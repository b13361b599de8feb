package main

import (
	"errors"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	"github.com/wolfman30/clinic-scheduler/internal/clinics"
	"github.com/wolfman30/clinic-scheduler/internal/geo"
	"github.com/wolfman30/clinic-scheduler/internal/slots"
)

func clinicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinics",
		Short: "List clinics, optionally by province, marking the nearest",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			province, _ := cmd.Flags().GetString("province")
			near, _ := cmd.Flags().GetBool("near")

			selector := clinics.NewSelector(clinics.NewAPIDirectory(a.client()), nil, a.logger)
			all, source := selector.Load(cmd.Context())

			nearest := ""
			if near {
				pos, err := geo.BestEffort(cmd.Context(), bootstrap.BuildLocator(a.cfg, a.logger), a.cfg.GeolocationTimeout)
				if err != nil {
					a.logger.Warn("position unavailable", "error", err)
				} else {
					nearest, _ = clinics.LocateNearest(all, pos)
				}
			}

			if source == clinics.SourceSeed {
				a.printf("Scheduling API unavailable; showing the built-in clinic list.\n")
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			_, _ = tw.Write([]byte("ID\tNAME\tLOCATION\tPROVINCE\t\n"))
			for _, c := range clinics.FilterByProvince(all, province) {
				mark := ""
				if c.ID == nearest {
					mark = "nearest"
				}
				_, _ = tw.Write([]byte(strings.Join([]string{c.ID, c.Name, c.Location, c.Province, mark}, "\t") + "\n"))
			}
			return nil
		},
	}
	cmd.Flags().String("province", "", "Only clinics in this province")
	cmd.Flags().Bool("near", false, "Mark the clinic nearest to this device")
	return cmd
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show bookable slots for a clinic on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			clinicID, _ := cmd.Flags().GetString("clinic")
			date, _ := cmd.Flags().GetString("date")
			if clinicID == "" || date == "" {
				return errors.New("--clinic and --date are required")
			}

			res := slots.NewResolver(a.client(), a.cfg.FallbackSlots, nil, a.logger).Fetch(cmd.Context(), clinicID, date)
			printSlots(a, res)
			return nil
		},
	}
	cmd.Flags().String("clinic", "", "Clinic id")
	cmd.Flags().String("date", "", "Date (YYYY-MM-DD)")
	return cmd
}

func printSlots(a *app, res slots.Result) {
	switch res.Status {
	case slots.StatusUnavailable:
		a.printf("The clinic reported no availability for this date.\n")
	case slots.StatusUnreachable:
		a.printf("Could not reach the scheduling API.\n")
	}
	if res.Fallback {
		a.printf("Showing standard clinic hours; the clinic confirms the time.\n")
	}
	for _, s := range res.Slots {
		a.printf("  %s\n", s)
	}
}

func providersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers that can be requested when booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			clinicID, _ := cmd.Flags().GetString("clinic")
			providers, err := a.client().ListProviders(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			_, _ = tw.Write([]byte("ID\tNAME\tSPECIALTY\tCLINIC\n"))
			for _, p := range providers {
				if clinicID != "" && p.ClinicID != clinicID {
					continue
				}
				_, _ = tw.Write([]byte(strings.Join([]string{p.ID, p.Name, p.Specialty, p.ClinicID}, "\t") + "\n"))
			}
			return nil
		},
	}
	cmd.Flags().String("clinic", "", "Only providers at this clinic")
	return cmd
}

func roomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List consultation rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			clinicID, _ := cmd.Flags().GetString("clinic")
			rooms, err := a.client().ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			_, _ = tw.Write([]byte("ID\tNAME\tTYPE\tCLINIC\n"))
			for _, r := range rooms {
				if clinicID != "" && r.ClinicID != clinicID {
					continue
				}
				_, _ = tw.Write([]byte(strings.Join([]string{r.ID, r.Name, r.RoomType, r.ClinicID}, "\t") + "\n"))
			}
			return nil
		},
	}
	cmd.Flags().String("clinic", "", "Only rooms at this clinic")
	return cmd
}
