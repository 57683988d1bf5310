package main

import (
	"fmt"
	"os"

	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	logger.Configure(os.Getenv("LOG_LEVEL"), false)

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "melodygen"
	app.Version = version
	app.Usage = "generate seeded melodies and export them as MIDI"
	app.Commands = []cli.Command{
		generateCommand(),
		fragmentsCommand(),
		harmonyCommand(),
		tokenCommand(),
	}
	return app
}
