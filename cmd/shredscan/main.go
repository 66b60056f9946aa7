// Command shredscan runs the shred-stream ingester: UDP datagrams in,
// detected on-chain events out to the configured reporters.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/solwatch/shredscan"
	"github.com/solwatch/shredscan/config"
	"github.com/solwatch/shredscan/log"
)

func main() {
	cliApp := &cli.App{
		Name:  "shredscan",
		Usage: "ingest a fragmented shred stream and detect program events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "UDP listen address, overrides the config file",
				EnvVars: []string{config.EnvListenAddr},
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.SetTransportAddr("udp_transport", addr)
	}

	app, err := shredscan.NewApp(cfg)
	if err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("signal received")

	app.Stop()
	return nil
}
