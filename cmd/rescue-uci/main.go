package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/abrenneke/rescue-chess/internal/cli"
	"github.com/abrenneke/rescue-chess/internal/uci"
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	flag.Parse()

	env, err := opts.Setup("uci")
	if err != nil {
		log.Fatal(err)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	protocol := uci.New(env.Engine, os.Stdin, os.Stdout)
	protocol.Store = env.Store
	protocol.Prefs = env.Prefs
	protocol.Log = env.Log
	if err := protocol.Run(ctx); err != nil {
		env.Log.Error(err, "reading commands")
	}
}
