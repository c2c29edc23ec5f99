package history

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/viewer"
	"github.com/edgarcoime/cthulhu-cli/internal/store"
	"github.com/spf13/cobra"
)

var clearAll bool

var Cmd = &cobra.Command{
	Use:   "history",
	Short: "List recently uploaded sessions",
	Long:  "List recently uploaded sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := cthulhu.Setup(cmd)
		if err != nil {
			return err
		}

		h, err := store.OpenHistory(cfg.HistoryFile, cfg.HistoryLimit)
		if err != nil {
			return err
		}

		if clearAll {
			return h.Clear()
		}

		entries := h.All()
		if len(entries) == 0 {
			fmt.Fprintln(os.Stdout, "No uploads yet")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tSIZE\tFILES\tLINK")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				e.CreatedAt.Local().Format(time.DateTime),
				viewer.FormatSize(e.TotalSize),
				strings.Join(e.Files, ", "),
				e.Link)
		}
		return tw.Flush()
	},
}

func init() {
	Cmd.Flags().BoolVar(&clearAll, "clear", false, "Forget every recorded upload")
}
