package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the searchctl command tree.
type CLI struct {
	Globals

	Compile CompileCmd `cmd:"" help:"Print the engine parameters a search compiles to."`
	Search  SearchCmd  `cmd:"" help:"Run a search in-process and print the JSON response."`
	Suggest SuggestCmd `cmd:"" help:"Run autocomplete for a prefix."`
	Index   IndexCmd   `cmd:"" help:"Load a YAML or JSON product catalog into the engine."`
	Prices  PricesCmd  `cmd:"" help:"Manage live pricing records."`
	Health  HealthCmd  `cmd:"" help:"Check engine connectivity."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("searchctl"),
		kong.Description("Storefront search tooling: compile, run and index against Solr or a fixture catalog."),
		kong.UsageOnError(),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	// Dispatch to the selected subcommand
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
