// Command rescue-bestmove searches one position and prints the best move.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/abrenneke/rescue-chess/internal/board"
	"github.com/abrenneke/rescue-chess/internal/cli"
	"github.com/abrenneke/rescue-chess/internal/engine"
	"github.com/abrenneke/rescue-chess/internal/game"
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	side := flag.String("side", "", "search for white or black instead of the side to move")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <fen>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	fen := strings.Join(flag.Args(), " ")
	if fen == "" {
		fen = board.StartFEN
	}

	env, err := opts.Setup("bestmove")
	if err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	g := game.New(env.Engine)
	g.Log = env.Log
	g.SetLimits(env.Limits)
	if err := g.LoadFEN(fen); err != nil {
		log.Fatal(err)
	}

	var res engine.SearchResult
	switch *side {
	case "":
		res, err = g.BestMove(context.Background())
	case "white":
		res, err = g.SearchFor(context.Background(), board.White)
	case "black":
		res, err = g.SearchFor(context.Background(), board.Black)
	default:
		log.Fatalf("unknown side %q", *side)
	}
	if err != nil {
		log.Fatal(err)
	}
	if res.Move == board.NoMove {
		fmt.Printf("bestmove 0000 (%s)\n", res.Status)
		return
	}

	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = m.String()
	}
	fmt.Printf("bestmove %s\n", res.Move)
	fmt.Printf("score %s depth %d nodes %d time %v (%s)\n", engine.ScoreToString(res.Score), res.Depth,
		res.Nodes, res.Elapsed.Round(1e6), res.Status)
	fmt.Printf("pv %s\n", strings.Join(pv, " "))
}
