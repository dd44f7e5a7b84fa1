// Command rescue-selfplay lets the engine play itself and keeps score.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/abrenneke/rescue-chess/internal/cli"
	"github.com/abrenneke/rescue-chess/internal/game"
	"github.com/abrenneke/rescue-chess/internal/selfplay"
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	fen := flag.String("fen", "", "starting position (default: standard layout)")
	games := flag.Int("games", 1, "number of games to play")
	maxPlies := flag.Int("max-plies", selfplay.DefaultMaxPlies, "adjudicate a draw after this many plies")
	flag.Parse()

	env, err := opts.Setup("selfplay")
	if err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := game.New(env.Engine)
	g.Log = env.Log
	cfg := selfplay.Config{
		StartFEN: *fen,
		MaxPlies: *maxPlies,
		Limits:   env.Limits,
		Out:      os.Stdout,
		Log:      env.Log,
	}

	for i := 1; i <= *games; i++ {
		fmt.Printf("Game %d (%s)\n", i, env.Engine.Rules)
		res, err := selfplay.Play(ctx, g, cfg)
		if err != nil {
			log.Fatal(err)
		}
		if env.Store == nil {
			continue
		}
		stats, err := env.Store.RecordMatch(res.MatchResult(env.Engine.Rules))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Totals: %d games, white %d, black %d, draws %d, average %.1f plies\n\n",
			stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws, stats.AverageLength())
	}
}
