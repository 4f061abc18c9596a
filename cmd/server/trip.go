package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trypzy/backend/internal/storage"
)

// newTripCmd manages trip rosters. The roster itself is owned by the wider
// application; these commands seed and adjust it for operators and tests.
func newTripCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Manage trip rosters",
	}

	withTrips := func(fn func(cmd *cobra.Command, trips *storage.TripRepository, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(cmd, storage.NewTripRepository(db), args)
		}
	}

	var name string
	create := &cobra.Command{
		Use:   "create <trip-id> <leader-user-id>",
		Short: "Create a trip led by a user",
		Args:  cobra.ExactArgs(2),
		RunE: withTrips(func(cmd *cobra.Command, trips *storage.TripRepository, args []string) error {
			if err := trips.Create(cmd.Context(), args[0], name, args[1]); err != nil {
				return fmt.Errorf("failed to create trip: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created trip %s led by %s\n", args[0], args[1])
			return nil
		}),
	}
	create.Flags().StringVar(&name, "name", "", "Trip display name")

	addMember := &cobra.Command{
		Use:   "add-member <trip-id> <user-id>",
		Short: "Add an active traveler to a trip",
		Args:  cobra.ExactArgs(2),
		RunE: withTrips(func(cmd *cobra.Command, trips *storage.TripRepository, args []string) error {
			if err := trips.AddMember(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[1], args[0])
			return nil
		}),
	}

	removeMember := &cobra.Command{
		Use:   "remove-member <trip-id> <user-id>",
		Short: "Mark a traveler as left",
		Args:  cobra.ExactArgs(2),
		RunE: withTrips(func(cmd *cobra.Command, trips *storage.TripRepository, args []string) error {
			if err := trips.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove member: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], args[0])
			return nil
		}),
	}

	members := &cobra.Command{
		Use:   "members <trip-id>",
		Short: "List a trip's members",
		Args:  cobra.ExactArgs(1),
		RunE: withTrips(func(cmd *cobra.Command, trips *storage.TripRepository, args []string) error {
			list, err := trips.Members(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.UserID, m.Role, m.Status)
			}
			return nil
		}),
	}

	cmd.AddCommand(create, addMember, removeMember, members)
	return cmd
}
