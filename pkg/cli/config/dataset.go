package config

import "github.com/urfave/cli/v3"

// Dataset holds the local dataset directory configuration
type Dataset struct {
	Dir string
}

// Flags returns CLI flags for dataset configuration
func (c *Dataset) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dataset-dir",
			Aliases:     []string{"d"},
			Usage:       "Directory to write images and caption sidecars into",
			Required:    true,
			Destination: &c.Dir,
			Sources:     cli.EnvVars("HARVEST_DATASET_DIR"),
		},
	}
}
