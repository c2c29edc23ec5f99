package get

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/client"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/viewer"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	saveToDir string
	parallel  int
)

var Cmd = &cobra.Command{
	Use:   "get <session-id> [name]...",
	Short: "Download the files of a session",
	Long:  "Download every file of a session, or only the named ones, into a directory",
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

		st := viewer.New(c).Load(ctx, args[0])
		var listing viewer.Loaded
		switch st := st.(type) {
		case viewer.Failed:
			return errors.New(st.Message)
		case viewer.Loaded:
			listing = st
		}

		files := pick(listing.Files, args[1:])
		if len(files) == 0 {
			slog.Info(listing.Summary(), "session", listing.SessionID)
			return nil
		}

		if err := os.MkdirAll(saveToDir, 0o755); err != nil {
			return err
		}

		names := destNames(files)
		jobs := make([]int, len(files))
		for i := range jobs {
			jobs[i] = i
		}

		errs := utils.ForEachAsync(jobs, parallel, func(i int) error {
			return fetch(ctx, c, files[i], filepath.Join(saveToDir, names[i]))
		})

		failed := 0
		for i, err := range errs {
			if err != nil {
				failed++
				slog.Error("Fail to download", "file", files[i].Name, "error", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d downloads failed", failed, len(files))
		}

		slog.Info("Done", "session", listing.SessionID, "files", len(files), "dir", saveToDir)
		return nil
	},
}

// pick keeps the files whose display or stored name is listed; no names
// keeps everything.
func pick(files []models.SessionFile, names []string) []models.SessionFile {
	if len(names) == 0 {
		return files
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	picked := make([]models.SessionFile, 0, len(names))
	for _, f := range files {
		if want[f.Name] || want[f.Filename] {
			picked = append(picked, f)
		}
	}
	return picked
}

// destNames picks one local file name per entry. Entries sharing a display
// name fall back to their stored name; anything still taken gets a numeric
// suffix.
func destNames(files []models.SessionFile) []string {
	count := make(map[string]int, len(files))
	for _, f := range files {
		count[baseName(f.Name)]++
	}

	taken := make(map[string]bool, len(files))
	names := make([]string, len(files))
	for i, f := range files {
		name := baseName(f.Name)
		if name == "" || count[name] > 1 {
			if stored := baseName(f.Filename); stored != "" {
				name = stored
			}
		}
		if name == "" {
			name = "file"
		}

		unique := name
		ext := filepath.Ext(name)
		for n := 1; taken[unique]; n++ {
			unique = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
		}
		taken[unique] = true
		names[i] = unique
	}
	return names
}

func baseName(name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

func fetch(ctx context.Context, c *client.Client, f models.SessionFile, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := c.Download(ctx, f.URL, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return err
	}

	sum, err := utils.SHA256ofFile(dst)
	if err != nil {
		return err
	}
	slog.Info("File saved", "file", dst, "size", viewer.FormatSize(n), "sha256", sum)

	return nil
}

func init() {
	Cmd.Flags().StringVarP(&saveToDir, "dir", "d", ".", "Directory for downloaded files")
	Cmd.Flags().IntVarP(&parallel, "parallel", "j", 4, "Concurrent downloads")
}
