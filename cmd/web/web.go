package web

import (
	"log/slog"

	"github.com/edgarcoime/cthulhu-cli/internal/config"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu"
	"github.com/edgarcoime/cthulhu-cli/internal/store"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/edgarcoime/cthulhu-cli/internal/web"
	"github.com/spf13/cobra"
)

var (
	addr         string
	supportHttps bool
)

var Cmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the upload and session pages",
	Long:  "Serve a drop zone page that uploads to the gateway and a page listing each session's files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := cthulhu.Setup(cmd)
		if err != nil {
			return err
		}
		apply(cmd, cfg)

		c, err := cthulhu.NewClient(cfg, logger)
		if err != nil {
			return err
		}

		h, err := store.OpenHistory(cfg.HistoryFile, cfg.HistoryLimit)
		if err != nil {
			slog.Warn("Fail to open history, keeping it in memory", "error", err)
			h, _ = store.OpenHistory("", cfg.HistoryLimit)
		}

		server := web.NewServer(c, cfg, h, logger)
		if err := server.Init(); err != nil {
			return err
		}

		errc := make(chan error, 1)
		go func() {
			errc <- server.Start()
		}()

		select {
		case err := <-errc:
			return err
		case <-utils.WaitForSignal():
		}

		return server.Stop()
	},
}

func apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Web.Addr = addr
	}
	if cmd.Flags().Changed("https") {
		cfg.Web.HTTPS = supportHttps
	}
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", ":3000", "Listen address")
	Cmd.Flags().BoolVar(&supportHttps, "https", false, "Serve https with a self-signed certificate")
}
