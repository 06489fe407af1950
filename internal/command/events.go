package command

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/stolasapp/gather/internal/devseed"
)

func eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Event commands",
	}
	cmd.AddCommand(
		eventsSeedCommand(),
	)
	return cmd
}

func eventsSeedCommand() *cobra.Command {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "seed ORGANIZER",
		Short: "Create fake events",
		Long: "Creates randomly generated events organized by an existing user. The same\n" +
			"seed always generates the same events; a random seed is used if unset.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			organizer, err := store.GetUserByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = devseed.Seed()
			}
			events, err := devseed.Populate(cmd.Context(), store, devseed.New(seed, time.Now()), organizer.ID, count)
			logger.InfoContext(cmd.Context(), "seeded events",
				slog.String("organizer", organizer.LoginName),
				slog.Int("count", len(events)),
				slog.Uint64("seed", seed),
			)
			return err
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", devseed.DefaultCount, "number of events to create")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed (defaults to $"+devseed.SeedEnv+" or random)")
	return cmd
}
