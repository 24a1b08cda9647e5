package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/cli/config"
	"github.com/m-mizutani/harvest/pkg/domain/types"
	"github.com/m-mizutani/harvest/pkg/infra/hub"
	"github.com/m-mizutani/harvest/pkg/infra/parquet"
	"github.com/m-mizutani/harvest/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var (
		datasetCfg config.Dataset
		hubCfg     config.Hub
	)

	flags := append(datasetCfg.Flags(), hubCfg.Flags()...)

	return &cli.Command{
		Name:      "import",
		Aliases:   []string{"i"},
		Usage:     "Import image/caption pairs from a remote parquet archive",
		ArgsUsage: "REFERENCE",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if c.Args().Len() != 1 {
				return goerr.New("exactly one reference argument is required",
					goerr.T(types.TagInvalidReference), goerr.V("args", c.Args().Slice()))
			}
			reference := c.Args().First()

			logger.Info("Starting dataset import",
				slog.String("reference", reference),
				slog.String("dataset_dir", datasetCfg.Dir),
				slog.Bool("token_set", hubCfg.Token != ""),
			)

			hubClient := hub.New(
				hub.WithBaseURL(hubCfg.URL),
				hub.WithToken(hubCfg.Token),
			)
			uc := usecase.NewImporter(hubClient, parquet.NewDecoder())

			result, err := uc.Import(ctx, datasetCfg.Dir, reference)
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}
}
