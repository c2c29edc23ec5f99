package ls

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/viewer"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/spf13/cobra"
)

var showURL bool

var Cmd = &cobra.Command{
	Use:   "ls <session-id>...",
	Short: "List the files of a session",
	Long:  "List the files of one or more sessions with their sizes and download links",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := cthulhu.Setup(cmd)
		if err != nil {
			return err
		}

		c, err := cthulhu.NewClient(cfg, logger)
		if err != nil {
			return err
		}

		ctx, cancel := utils.SignalContext(cmd.Context())
		defer cancel()

		v := viewer.New(c)
		failed := 0
		for _, id := range args {
			st := v.Navigate(ctx, id)
			if !show(v, st) {
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be listed", failed, len(args))
		}
		return nil
	},
}

func show(v *viewer.Viewer, st viewer.ViewState) bool {
	switch st := st.(type) {
	case viewer.Failed:
		fmt.Fprintf(os.Stderr, "%s: %s\n", st.SessionID, st.Message)
		return false

	case viewer.Loaded:
		fmt.Fprintf(os.Stdout, "Session %s: %s\n", st.SessionID, st.Summary())
		if st.Empty() {
			return true
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, f := range st.Files {
			if showURL {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, viewer.FormatSize(f.Size), v.DownloadURL(f))
			} else {
				fmt.Fprintf(tw, "  %s\t%s\n", f.Name, viewer.FormatSize(f.Size))
			}
		}
		tw.Flush()
		return true

	default:
		fmt.Fprintf(os.Stderr, "%s: listing still loading\n", st.Session())
		return false
	}
}

func init() {
	Cmd.Flags().BoolVarP(&showURL, "url", "u", false, "Show download links")
}
