package cmd

import (
	"log/slog"
	"os"

	"github.com/edgarcoime/cthulhu-cli/cmd/fingerprint"
	"github.com/edgarcoime/cthulhu-cli/cmd/get"
	"github.com/edgarcoime/cthulhu-cli/cmd/history"
	"github.com/edgarcoime/cthulhu-cli/cmd/ls"
	"github.com/edgarcoime/cthulhu-cli/cmd/upload"
	"github.com/edgarcoime/cthulhu-cli/cmd/web"
	"github.com/edgarcoime/cthulhu-cli/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "cthulhu",
	Short:         "Cthulhu anonymous file sharing",
	Long:          "Upload files to a Cthulhu gateway and share the session link",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("Fail to execute", "error", err)
		os.Exit(1)
	}
}

func init() {
	config.BindFlags(rootCmd)

	rootCmd.AddCommand(upload.Cmd)
	rootCmd.AddCommand(ls.Cmd)
	rootCmd.AddCommand(get.Cmd)
	rootCmd.AddCommand(history.Cmd)
	rootCmd.AddCommand(web.Cmd)
	rootCmd.AddCommand(fingerprint.Cmd)
}
