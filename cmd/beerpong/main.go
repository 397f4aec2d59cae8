// Command beerpong manages tournaments from the terminal.
//
//	beerpong import layout.yaml
//	beerpong show "Summer Cup"
//	beerpong score "Summer Cup" <bracket-id> 10 7
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/config"
	"github.com/AdamBeresnev/beerpong/internal/db"
	"github.com/AdamBeresnev/beerpong/internal/layout"
	"github.com/AdamBeresnev/beerpong/internal/service"
	"github.com/AdamBeresnev/beerpong/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

const usage = `usage: beerpong [-db path] [-migrations dir] <command> [args]

commands:
  import <layout.yaml>                      create a tournament from a layout file
  show <tournament>                         print brackets and their state
  score <tournament> <bracket> <left> <right>  record a score as the organizer
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "beerpong:", err)
		os.Exit(1)
	}
}

type cli struct {
	tournaments *service.TournamentService
	scores      *service.ScoreService
	out         io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("beerpong", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	dbPath := flags.String("db", cfg.DatabasePath, "sqlite database file")
	migrations := flags.String("migrations", cfg.MigrationsDir, "migrations directory")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	if flags.NArg() == 0 {
		return errors.New(usage)
	}

	database, err := db.InitDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, "file://"+*migrations); err != nil {
		return err
	}

	c := newCLI(database, out)
	command, rest := flags.Arg(0), flags.Args()[1:]
	switch command {
	case "import":
		return c.importLayout(ctx, rest)
	case "show":
		return c.show(ctx, rest)
	case "score":
		return c.score(ctx, rest)
	}
	return fmt.Errorf("unknown command %q\n%s", command, usage)
}

func newCLI(database *sqlx.DB, out io.Writer) *cli {
	tournamentStore := store.NewTournamentStore(database)
	clock := clockwork.NewRealClock()
	return &cli{
		tournaments: service.NewTournamentService(database, tournamentStore, clock),
		scores:      service.NewScoreService(database, tournamentStore, clock, nil),
		out:         out,
	}
}

func (c *cli) importLayout(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("import takes one layout file")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	l, err := layout.Parse(f)
	if err != nil {
		return err
	}

	result, err := layout.Apply(ctx, c.tournaments, l)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Created %q (%s)\n\n", l.Name, result.TournamentID)
	fmt.Fprintln(c.out, "Team credentials, shown only once:")
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, team := range result.Teams {
		fmt.Fprintf(w, "  %s\t%s\n", team.Name, team.Credential)
	}
	return w.Flush()
}

func (c *cli) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("show takes a tournament name")
	}

	tournament, err := c.tournaments.GetTournamentByName(ctx, args[0])
	if err != nil {
		return err
	}
	return printSnapshot(c.out, service.NewSnapshot(tournament))
}

func (c *cli) score(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errors.New("score takes a tournament, a bracket and two tallies")
	}

	tournament, err := c.tournaments.GetTournamentByName(ctx, args[0])
	if err != nil {
		return err
	}
	bracketID, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid bracket id %q", bracket.ErrValidation, args[1])
	}
	score, err := bracket.ParseScore(args[2], args[3])
	if err != nil {
		return err
	}

	snapshot, err := c.scores.SetScore(ctx, service.ScoreInput{
		TournamentID: tournament.ID,
		BracketID:    bracketID,
		Score:        score,
	})
	if err != nil {
		return err
	}
	return printSnapshot(c.out, *snapshot)
}

func printSnapshot(out io.Writer, s service.TournamentSnapshot) error {
	fmt.Fprintf(out, "%s (%s)\n", s.Name, s.Status)
	if s.Champion != nil {
		fmt.Fprintf(out, "Champion: %s\n", s.Champion.Name)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tBRACKET\tLEFT\tRIGHT\tSCORE\tSTATE")
	for _, b := range s.Brackets {
		score := "-"
		if b.Score != nil {
			score = fmt.Sprintf("%d:%d", b.Score.Left, b.Score.Right)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", b.Round, b.ID, sideName(b.Left, b.LeftSource), sideName(b.Right, b.RightSource), score, b.State)
	}
	return w.Flush()
}

func sideName(team *service.TeamView, source *uuid.UUID) string {
	switch {
	case team != nil:
		return team.Name
	case source != nil:
		return "winner of " + source.String()[:8]
	}
	return "-"
}
