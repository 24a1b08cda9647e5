package config

import "github.com/urfave/cli/v3"

// Hub holds remote hub configuration. Token is read fresh from the flag or
// environment on every invocation and never cached anywhere else; a stale
// cached token fails authorization silently.
type Hub struct {
	URL   string
	Token string
}

// Flags returns CLI flags for hub configuration
func (c *Hub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "hub-url",
			Usage:       "Base URL of the hub",
			Value:       "https://huggingface.co",
			Destination: &c.URL,
			Sources:     cli.EnvVars("HARVEST_HUB_URL"),
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Hub access token for private or gated repositories",
			Destination: &c.Token,
			Sources:     cli.EnvVars("HARVEST_HUB_TOKEN", "HF_TOKEN"),
		},
	}
}
