package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command. Flags override the config file
// and the environment.
type Globals struct {
	Config   string `short:"c" default:"rpsvision.hcl" help:"Path to HCL configuration file"`
	EnvFile  string `default:".env" help:"Path to a .env file with RPS_* overrides"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path for the interactive game (overrides config)"`
	Camera   string `help:"Camera driver: webcam or synthetic (overrides config)"`
	Model    string `help:"Model base URL (overrides config)"`
	Demo     bool   `help:"Use the synthetic camera and scripted classifier"`
	NoColor  bool   `help:"Disable colored output"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play in the terminal"`
	Rounds   RoundsCmd        `cmd:"" help:"Play rounds headlessly and log the outcomes"`
	Classify ClassifyCmd      `cmd:"" help:"Classify the current camera frame"`
	Info     VersionCmd       `cmd:"" name:"version" help:"Print version information"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rpsvision"),
		kong.Description("Rock, paper, scissors against the computer, played with hand gestures"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
