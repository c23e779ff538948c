/*
Package cli implements the punch command line.

COMMANDS:
  punch init <username>     Create the database, user and project
  punch testdb <username>   Same, plus ~5 weeks of random history
  punch report              Day and week report
  punch in | out            Punch in or out now
  punch note <text>         Record a note
  punch server              Serve the JSON API

GLOBAL FLAGS:
  -d, --database-url   SQLite database (PUNCH_DATABASE_URL)

SEE ALSO:
  - config/config.go: environment defaults
  - tracker/service.go: what each command calls
*/
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simmons/punch/cli/formatter"
	"github.com/simmons/punch/config"
	"github.com/simmons/punch/store/sqlite"
	"github.com/simmons/punch/tracker"
)

// App holds what every command needs.
type App struct {
	Config config.Config
	Now    func() time.Time

	// Styled enables colors and borders in terminal output.
	Styled bool
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) formatter() formatter.Formatter {
	return formatter.Formatter{Styled: a.Styled}
}

// open opens the database and returns a service on it. The caller closes
// the store.
func (a *App) open() (*sqlite.Store, *tracker.Service, error) {
	store, err := sqlite.New(a.Config.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", a.Config.DatabaseURL, err)
	}
	return store, tracker.NewService(store, a.Config.TrackerOptions()), nil
}

// NewRootCmd creates the top-level "punch" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "punch",
		Short:         "Punch in, punch out, see your day and week",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&app.Config.DatabaseURL, "database-url", "d",
		app.Config.DatabaseURL, "SQLite database path")

	root.AddCommand(
		newInitCmd(app),
		newTestDBCmd(app),
		newReportCmd(app),
		newPunchCmd(app, "in"),
		newPunchCmd(app, "out"),
		newNoteCmd(app),
		newServerCmd(app),
	)

	return root
}
