package cthulhu

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/config"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/client"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/spf13/cobra"
)

// Setup loads the configuration for cmd and installs its logger as default.
func Setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func NewClient(cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
	}
	if cfg.ShareBase != "" {
		opts = append(opts, client.WithShareBase(cfg.ShareBase))
	}
	if cfg.Fingerprint != "" {
		opts = append(opts, client.WithFingerprint(cfg.Fingerprint))
	}

	return client.New(cfg.BaseURL, opts...)
}

func NewWidget(uploader upload.Uploader, cfg *config.Config, logger *slog.Logger) *upload.Widget {
	return upload.NewWidget(uploader,
		upload.WithResetDelays(cfg.SuccessResetDelay, cfg.ErrorResetDelay),
		upload.WithLogger(logger),
	)
}

// GatewayFingerprint dials an https gateway and returns the SHA-256 of its
// leaf certificate, ready for --fingerprint.
func GatewayFingerprint(baseURL string, timeout time.Duration) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("%q is not an https url", baseURL)
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "443")
	}

	certs, err := utils.FetchX509Cert(addr, timeout)
	if err != nil {
		return "", err
	}

	return utils.SHA256ofCert(certs[0]), nil
}
