// Command ringconv converts tree-ring measurement files between the Tucson
// and CATRAS formats and keeps a catalog of decoded series.
package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/ringconv/internal/config"
	"github.com/FocuswithJustin/ringconv/internal/logging"

	// Codecs register themselves with the format registry.
	_ "github.com/FocuswithJustin/ringconv/internal/formats/catras"
	_ "github.com/FocuswithJustin/ringconv/internal/formats/tucson"
)

const version = "0.4.0"

// cli defines the command-line interface.
type cli struct {
	Config    string `name:"config" short:"c" help:"Configuration file (default ./ringconv.toml)" type:"path"`
	LogLevel  string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Override the configured log format (text, json)"`
	NoColor   bool   `name:"no-color" help:"Disable colored output"`

	Detect  DetectCmd    `cmd:"" help:"Detect the format of a file"`
	Convert ConvertCmd   `cmd:"" help:"Convert a file to another format"`
	Info    InfoCmd      `cmd:"" help:"Summarize the series in a file"`
	Verify  VerifyCmd    `cmd:"" help:"Check that series survive an encode and decode"`
	Index   IndexCmd     `cmd:"" help:"Record series in the catalog"`
	Catalog CatalogGroup `cmd:"" help:"Query the series catalog"`
	Store   StoreGroup   `cmd:"" help:"Content-addressed output store"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// CatalogGroup contains catalog queries.
type CatalogGroup struct {
	List   CatalogListCmd   `cmd:"" help:"List catalogued series"`
	Remove CatalogRemoveCmd `cmd:"" help:"Forget an indexed file"`
	Show   CatalogShowCmd   `cmd:"" help:"Print a catalogued series in a chosen format"`
}

// StoreGroup contains store operations.
type StoreGroup struct {
	Get StoreGetCmd `cmd:"" help:"Write a stored output to a file"`
}

// App is the state shared by every command.
type App struct {
	Config config.Config
	Out    io.Writer
	Err    io.Writer
	Ctx    context.Context
}

func newApp(c *cli, out, errOut io.Writer) (*App, error) {
	cfg, err := config.LoadOptional(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
	logging.SetOutput(errOut)
	logging.InitLogger(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))

	if c.NoColor {
		color.NoColor = true
	}

	return &App{
		Config: cfg,
		Out:    out,
		Err:    errOut,
		Ctx:    logging.WithOperationID(context.Background(), uuid.NewString()),
	}, nil
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("ringconv"),
		kong.Description("Tree-ring measurement format converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	app, err := newApp(&c, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}
