package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simmons/punch/tracker"
)

type setupFlags struct {
	project  string
	overhead time.Duration
	timezone string
}

func (f *setupFlags) register(cmd *cobra.Command, app *App) {
	cmd.Flags().StringVar(&f.project, "project", tracker.DefaultProjectName, "Project name")
	cmd.Flags().DurationVar(&f.overhead, "overhead", app.Config.Overhead, "Overhead deducted from each session")
	cmd.Flags().StringVar(&f.timezone, "timezone", app.Config.TimeZone, "Reporting time zone (IANA name or Local)")
}

func (f *setupFlags) params(app *App, username string) tracker.SetupParams {
	return tracker.SetupParams{
		Username:    username,
		ProjectName: f.project,
		Overhead:    f.overhead,
		TimeZone:    f.timezone,
		Now:         app.now(),
	}
}

func newInitCmd(app *App) *cobra.Command {
	var flags setupFlags

	cmd := &cobra.Command{
		Use:   "init <username>",
		Short: "Initialize a new punch database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, err := app.open()
			if err != nil {
				return err
			}
			defer store.Close()

			user, project, err := svc.Setup(cmd.Context(), flags.params(app, args[0]))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s for %s (project %q, overhead %s, zone %s)\n",
				app.Config.DatabaseURL, user.Name, project.Name, project.Overhead, project.TimeZone)
			return nil
		},
	}
	flags.register(cmd, app)

	return cmd
}

func newTestDBCmd(app *App) *cobra.Command {
	var (
		flags setupFlags
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "testdb <username>",
		Short: "Create a new punch database populated with test data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, err := app.open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			_, project, err := svc.Setup(ctx, flags.params(app, args[0]))
			if err != nil {
				return err
			}
			evs, err := svc.SeedTestData(ctx, project.ID, app.now(), seed)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s with %d test events\n", app.Config.DatabaseURL, len(evs))
			return nil
		},
	}
	flags.register(cmd, app)
	cmd.Flags().Uint64Var(&seed, "seed", tracker.DefaultSeed, "Random seed")

	return cmd
}
