package main

import (
	"github.com/alecthomas/kong"

	"github.com/pythonot/nbrun/cmd/nbrun/commands"
	"github.com/pythonot/nbrun/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("nbrun"),
		kong.Description("Incremental re-execution of Jupyter notebook galleries"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
