package fingerprint

import (
	"fmt"
	"os"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu"
	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the gateway certificate fingerprint",
	Long:  "Print the SHA-256 fingerprint of an https gateway's certificate, for use with --fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := cthulhu.Setup(cmd)
		if err != nil {
			return err
		}

		fp, err := cthulhu.GatewayFingerprint(cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, fp)
		return nil
	},
}
