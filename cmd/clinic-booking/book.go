package main

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	"github.com/wolfman30/clinic-scheduler/internal/booking"
	"github.com/wolfman30/clinic-scheduler/internal/geo"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
)

func bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		Long: "Book an appointment. Without --clinic the clinic nearest to this device is used. " +
			"Without --slot the available slots are listed and nothing is booked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			flags := cmd.Flags()
			get := func(name string) string {
				v, _ := flags.GetString(name)
				return v
			}

			var locator geo.Locator
			if noGeo, _ := flags.GetBool("no-geo"); !noGeo {
				locator = bootstrap.BuildLocator(a.cfg, a.logger)
			}
			build := bootstrap.NewWorkflowBuilder(a.cfg, nil, locator, nil, a.logger)
			w := build(identity.TokenSource(a.store), a.identity(ctx))

			w.LoadClinics(ctx)
			if get("clinic") == "" {
				if id, ok := w.Geolocate(ctx); ok {
					a.printf("Using nearest clinic %s\n", id)
				}
			}
			if p := get("province"); p != "" {
				if err := w.SelectProvince(ctx, p); err != nil {
					return err
				}
			}
			if c := get("clinic"); c != "" {
				if err := w.SelectClinic(ctx, c); err != nil {
					return err
				}
			}
			if err := w.SelectDate(ctx, get("date")); err != nil {
				return err
			}

			slot := get("slot")
			if slot == "" {
				snap := w.Snapshot()
				if snap.Draft.ClinicID == "" || snap.Draft.Date == "" {
					return errors.New("choose a clinic (--clinic or --province with geolocation) and a --date")
				}
				a.printf("Available slots for %s on %s:\n", snap.Draft.ClinicID, snap.Draft.Date)
				printSlots(a, snap.Slots)
				return nil
			}
			if err := w.SelectSlot(slot); err != nil {
				return err
			}

			if err := w.Edit(booking.DetailsPatch{
				ProviderID:    optionalFlag(cmd, "provider"),
				RoomID:        optionalFlag(cmd, "room"),
				FullName:      optionalFlag(cmd, "name"),
				IDType:        optionalFlag(cmd, "id-type"),
				IDNumber:      optionalFlag(cmd, "id-number"),
				Email:         optionalFlag(cmd, "email"),
				Phone:         optionalFlag(cmd, "phone"),
				ServiceReason: optionalFlag(cmd, "reason"),
				Notes:         optionalFlag(cmd, "notes"),
			}); err != nil {
				return err
			}

			conf, err := w.Submit(ctx)
			var subErr *booking.SubmitError
			if errors.As(err, &subErr) {
				a.printf("%s\n", subErr.Message)
				printFieldErrors(a, subErr.Fields)
				return err
			}
			if err != nil {
				return err
			}
			a.printf("%s\n", booking.MsgSuccess)
			if conf != nil && conf.ID != "" {
				a.printf("Reference: %s\n", conf.ID)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("province", "", "Province")
	flags.String("clinic", "", "Clinic id")
	flags.String("provider", "", "Provider id")
	flags.String("room", "", "Room id")
	flags.String("date", "", "Date (YYYY-MM-DD)")
	flags.String("slot", "", `Slot, e.g. "09:00 - 09:30"`)
	flags.String("name", "", "Full name")
	flags.String("id-type", "sa_id", "Identity document type")
	flags.String("id-number", "", "Identity document number")
	flags.String("email", "", "Email")
	flags.String("phone", "", "Phone (10 digits)")
	flags.String("reason", "", "Reason for the visit")
	flags.String("notes", "", "Notes for the clinic")
	flags.Bool("no-geo", false, "Do not use this device's position")
	return cmd
}

func optionalFlag(cmd *cobra.Command, name string) *string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

func printFieldErrors(a *app, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("  %s: %s\n", k, fields[k])
	}
}
