package upload

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/viewer"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
	"github.com/edgarcoime/cthulhu-cli/internal/store"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	files     []string
	noHistory bool
)

var Cmd = &cobra.Command{
	Use:   "upload [files]...",
	Short: "Upload files and print the session link",
	Long:  "Upload files and directories to the gateway in one request and print the share link",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := cthulhu.Setup(cmd)
		if err != nil {
			return err
		}

		files = append(files, args...)
		if len(files) == 0 {
			return errors.New("File is required")
		}

		selection, err := models.GenTransferFiles(files)
		if err != nil {
			return err
		}

		c, err := cthulhu.NewClient(cfg, logger)
		if err != nil {
			return err
		}

		widget := cthulhu.NewWidget(c, cfg, logger)
		defer widget.Close()

		widget.Subscribe(func(st upload.State) {
			if up, ok := st.(upload.Uploading); ok {
				slog.Info("Start uploading", "files", up.Files, "size", viewer.FormatSize(up.TotalSize))
			}
		})

		ctx, cancel := utils.SignalContext(cmd.Context())
		defer cancel()

		st := widget.Select(ctx, selection)

		switch st := st.(type) {
		case upload.Succeeded:
			fmt.Fprintln(os.Stdout, st.SessionURL)
			slog.Info("Done", "session", st.Result.URL, "summary", upload.Summary(st.Result),
				"size", viewer.FormatSize(st.Result.TotalSize))

			if !noHistory {
				record(cfg.HistoryFile, cfg.HistoryLimit, store.NewEntry(st.SessionURL, st.Result))
			}
			return nil

		case upload.Failed:
			return errors.New(st.Message)

		default:
			return fmt.Errorf("unexpected state %s", st)
		}
	},
}

func record(path string, limit int, e store.Entry) {
	h, err := store.OpenHistory(path, limit)
	if err != nil {
		slog.Warn("Fail to open history", "error", err)
		return
	}
	if err := h.Put(e); err != nil {
		slog.Warn("Fail to record upload", "error", err)
	}
}

func init() {
	Cmd.Flags().StringSliceVarP(&files, "file", "f", []string{}, "File/Directory to be uploaded")
	Cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this upload in history")
}
