package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/tracker"
)

func newReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the day and week report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, err := app.open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			project, err := svc.DefaultProject(ctx)
			if err != nil {
				return notInitialized(err)
			}
			summary, err := svc.Summary(ctx, project.ID, app.now())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), app.formatter().Report(summary))
			return nil
		},
	}
}

func newPunchCmd(app *App, direction string) *cobra.Command {
	dir := engine.Direction(direction)

	return &cobra.Command{
		Use:   direction,
		Short: "Punch " + direction + " now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, err := app.open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			project, err := svc.DefaultProject(ctx)
			if err != nil {
				return notInitialized(err)
			}

			ev, err := svc.Punch(ctx, project.ID, dir, app.now())
			var unexpected *tracker.UnexpectedPunchError
			if errors.As(err, &unexpected) {
				return fmt.Errorf("already punched %s; run \"punch %s\" first", dir, unexpected.Expected)
			}
			if err != nil {
				return err
			}

			loc, err := svc.Location(project)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Punched %s at %s\n", dir, ev.At.In(loc).Format("15:04"))
			return nil
		},
	}
}

func newNoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "note <text>",
		Short: "Record a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, svc, err := app.open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			project, err := svc.DefaultProject(ctx)
			if err != nil {
				return notInitialized(err)
			}

			if _, err := svc.Note(ctx, project.ID, strings.Join(args, " "), app.now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Noted.")
			return nil
		},
	}
}

func notInitialized(err error) error {
	if tracker.IsNotFound(err) {
		return fmt.Errorf("database not initialized; run \"punch init <username>\": %w", err)
	}
	return err
}
