package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/google/uuid"
)

const maxEnvelopeSize = 4 << 20

// Client talks to the gateway. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	base        string
	shareBase   string
	httpClient  *http.Client
	timeout     time.Duration
	userAgent   string
	fingerprint string
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithFingerprint pins the gateway TLS leaf certificate (SHA-256, hex).
// Ignored when combined with WithHTTPClient.
func WithFingerprint(fp string) Option {
	return func(c *Client) { c.fingerprint = fp }
}

// WithShareBase sets the prefix share links are built from. Defaults to the
// gateway session endpoint, base + "/files/s/".
func WithShareBase(base string) Option {
	return func(c *Client) { c.shareBase = base }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: must be absolute http(s)", baseURL)
	}

	c := &Client{
		base:      strings.TrimRight(baseURL, "/"),
		timeout:   30 * time.Second,
		userAgent: constants.UserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.shareBase == "" {
		c.shareBase = c.base + constants.SessionPrefix
	}

	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.fingerprint != "" {
			transport.TLSClientConfig = utils.PinnedTLSConfig(c.fingerprint, constants.ErrFingerprint)
		}
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		}
	}

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.base
}

// SessionURL is the share link of a session: the share base concatenated
// with the session identifier returned by an upload.
func (c *Client) SessionURL(sessionID string) string {
	return c.shareBase + sessionID
}

// ResolveURL concatenates the gateway base with a relative path or url field.
func (c *Client) ResolveURL(rel string) string {
	return constants.JoinURL(c.base, rel)
}

// Upload sends every file in one multipart request under the "file" field.
// No request is issued for an empty selection.
func (c *Client) Upload(ctx context.Context, files []models.TransferFile) (*models.UploadResult, error) {
	if len(files) == 0 {
		return nil, constants.ErrNoFiles
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	// writeErr is filled before the pipe closes, so a failed round trip
	// caused by the body already finds it.
	writeErr := make(chan error, 1)
	go func() {
		err := writeParts(mw, files)
		writeErr <- err
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, constants.UploadPath, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, body, err := c.roundTrip(req)
	if err != nil {
		select {
		case werr := <-writeErr:
			if errors.Is(werr, constants.ErrLocalFile) {
				return nil, werr
			}
		default:
		}
		return nil, err
	}

	res, err := interpret[models.UploadResult]("Upload", status, body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Upload finished", "session", res.URL, "files", res.FileCount, "total_size", res.TotalSize)
	return res, nil
}

// ListSession fetches the files stored under a session.
func (c *Client) ListSession(ctx context.Context, sessionID string) (*models.SessionListing, error) {
	req, err := c.newRequest(ctx, http.MethodGet, constants.ListPath(sessionID), nil)
	if err != nil {
		return nil, err
	}

	status, body, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}

	return interpret[models.SessionListing]("Listing", status, body)
}

// Download streams the raw bytes at rel (a listing url field or a
// constants.DownloadPath) into w.
func (c *Client) Download(ctx context.Context, rel string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !constants.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
		_, err := interpret[struct{}]("Download", resp.StatusCode, body)
		if err == nil {
			err = constants.ParseError("Download", resp.StatusCode)
		}
		return 0, err
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, c.transportErr(ctx, err)
	}
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, method, rel string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.ResolveURL(rel), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", "request_id", req.Header.Get("X-Request-ID"),
			"method", req.Method, "path", req.URL.Path, "error", err)
		return nil, c.transportErr(req.Context(), err)
	}

	c.logger.Debug("Request done", "request_id", req.Header.Get("X-Request-ID"),
		"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode,
		"elapsed", time.Since(start))
	return resp, nil
}

func (c *Client) roundTrip(req *http.Request) (int, []byte, error) {
	resp, err := c.send(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
	if err != nil {
		return 0, nil, c.transportErr(req.Context(), err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) transportErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, constants.ErrFingerprint) {
		return constants.ErrFingerprint
	}
	return fmt.Errorf("%w: %v", constants.ErrTransport, err)
}

// interpret decodes an envelope regardless of the HTTP status. status:false
// wins over a 2xx status; a body that is not an envelope is an unexpected
// response on 2xx and a generic status error otherwise.
func interpret[T any](op string, status int, body []byte) (*T, error) {
	var env models.Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		if constants.IsSuccess(status) {
			return nil, fmt.Errorf("%w: %v", constants.ErrUnexpectedResponse, err)
		}
		return nil, constants.ParseError(op, status)
	}

	data, err := env.Result()
	var apiErr *constants.APIError
	if errors.As(err, &apiErr) {
		apiErr.StatusCode = status
		if apiErr.Message == "" {
			apiErr.Message = constants.StatusMessage(op, status)
		}
		return nil, apiErr
	}
	if err != nil {
		return nil, err
	}

	if err := constants.ParseError(op, status); err != nil {
		return nil, err
	}
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeParts(mw *multipart.Writer, files []models.TransferFile) error {
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			constants.FileField, quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", f.MIME)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: %v", constants.ErrLocalFile, err)
		}
		_, err = io.Copy(part, localReader{rc})
		rc.Close()
		if err != nil {
			return err
		}
	}

	return mw.Close()
}

// localReader tags read failures of a local file so they are not mistaken
// for a network error once they surface from the request body.
type localReader struct {
	r io.Reader
}

func (l localReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %v", constants.ErrLocalFile, err)
	}
	return n, err
}
