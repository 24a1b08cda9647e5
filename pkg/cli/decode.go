package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/infra/parquet"
	"github.com/urfave/cli/v3"
)

// cmdDecodeTable is the worker side of the decode boundary: it decodes one
// parquet file and prints every row as a single JSON line on stdout. Errors
// also cross as JSON so the parent never has to parse free-form output.
func cmdDecodeTable() *cli.Command {
	var input string

	return &cli.Command{
		Name:   parquet.DecodeCommand,
		Usage:  "Decode a parquet file and print its rows as one JSON line",
		Hidden: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Usage:       "Path to the parquet file",
				Required:    true,
				Destination: &input,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			out, err := parquet.ReadFile(ctx, input)
			if err != nil {
				out = &model.DecodeOutput{Error: err.Error()}
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}
}
