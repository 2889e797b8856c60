package main

import (
	"os"

	"github.com/urfave/cli/v2"

	pojotools "github.com/illuscio-dev/pojotools-go"
	"github.com/illuscio-dev/pojotools-go/encoding"
	"github.com/illuscio-dev/pojotools-go/mediatype"
)

// pojoconvert reads content of one media type on stdin and writes it back
// out as another, running it through the full classify / swap / walk
// pipeline.
func main() {
	app := &cli.App{
		Name:  "pojoconvert",
		Usage: "convert content between supported media types",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "media type of the input (sniffed when omitted)",
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "media type to write to stdout",
				Required: true,
			},
		},
		Action: runConvert,
	}

	if err := app.Run(os.Args); err != nil {
		pojotools.Logger.Error().Err(err).Msg("conversion failed")
		os.Exit(1)
	}
}

func runConvert(ctx *cli.Context) error {
	engine, err := encoding.NewContentEngine(true)
	if err != nil {
		return err
	}
	engine.Freeze()

	fromType := mediatype.FromString(ctx.String("from"))
	toType := mediatype.FromString(ctx.String("to"))

	var content interface{}
	if err = engine.Parse(fromType, &content, os.Stdin); err != nil {
		return err
	}

	return engine.Serialize(toType, content, os.Stdout)
}
