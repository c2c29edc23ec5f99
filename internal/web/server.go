package web

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/config"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/viewer"
	"github.com/edgarcoime/cthulhu-cli/internal/metrics"
	"github.com/edgarcoime/cthulhu-cli/internal/store"
	"github.com/edgarcoime/cthulhu-cli/internal/utils"
	"github.com/edgarcoime/cthulhu-cli/templates"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
)

const (
	visitorCookie = "cthulhu_visitor"
	sessionPrefix = "/s/"
	gcInterval    = time.Minute
)

// Gateway is what the pages need from the gateway client.
type Gateway interface {
	upload.Uploader
	viewer.Lister
}

// Server is the browser front end: a drop zone page that forwards uploads to
// the gateway and a session page that lists a session's files.
type Server struct {
	gateway  Gateway
	cfg      *config.Config
	history  *store.History
	logger   *slog.Logger
	metrics  *metrics.Metrics
	app      *fiber.App
	visitors *sync.Map
	cert     tls.Certificate
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer wires the routes. history may be nil.
func NewServer(gateway Gateway, cfg *config.Config, history *store.History, logger *slog.Logger) *Server {
	engine := html.NewFileSystem(http.FS(templates.FS), ".html")
	engine.AddFunc("size", viewer.FormatSize)

	s := &Server{
		gateway:  gateway,
		cfg:      cfg,
		history:  history,
		logger:   logger,
		metrics:  metrics.New(),
		visitors: &sync.Map{},
		done:     make(chan struct{}),
	}

	s.app = fiber.New(fiber.Config{
		Views:                 engine,
		BodyLimit:             cfg.Web.BodyLimit,
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	if cfg.Web.AccessLog {
		s.app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "${time} - ${ip} - ${status} ${method} ${path} ${latency}\n",
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   "UTC",
			Output:     os.Stderr,
		}))
	}
	if cfg.Web.AllowOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.Web.AllowOrigins,
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept",
		}))
	}
	if cfg.Web.Metrics {
		s.app.Use(s.metrics.Middleware())
		s.app.Get("/metrics", s.metrics.Handler())
	}

	s.app.Get("/", s.indexHandler)
	s.app.Get("/state", s.stateHandler)
	s.app.Post("/upload", s.uploadHandler)
	s.app.Get(sessionPrefix+":id", s.sessionHandler)

	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Init() error {
	if !s.cfg.Web.HTTPS {
		return nil
	}

	slog.Info("Generating https certificate")

	var err error
	s.cert, err = utils.GenTLScert("Cthulhu")
	if err != nil {
		return err
	}
	slog.Info("Serving with self-signed certificate", "fingerprint", utils.SHA256ofCert(s.cert.Leaf))

	return nil
}

// Start blocks serving until Stop is called.
func (s *Server) Start() error {
	go s.gc()

	if err := s.printAddrs(); err != nil {
		slog.Warn("Fail to list local addresses", "error", err)
	}
	slog.Info("Serving upload page (Ctrl-C to terminate)", "addr", s.cfg.Web.Addr, "gateway", s.cfg.BaseURL)

	if s.cfg.Web.HTTPS {
		return s.app.ListenTLSWithCertificate(s.cfg.Web.Addr, s.cert)
	}
	return s.app.Listen(s.cfg.Web.Addr)
}

func (s *Server) Stop() error {
	slog.Info("Stop serving")

	s.stopOnce.Do(func() { close(s.done) })
	s.visitors.Range(func(key, value any) bool {
		value.(*visitor).widget.Close()
		s.visitors.Delete(key)
		s.metrics.VisitorRemoved()
		return true
	})

	return s.app.Shutdown()
}

func (s *Server) printAddrs() error {
	_, port, err := net.SplitHostPort(s.cfg.Web.Addr)
	if err != nil {
		return err
	}

	scheme := "http"
	if s.cfg.Web.HTTPS {
		scheme = "https"
	}

	ips, err := utils.GetMyIPv4Addr()
	if err != nil {
		return err
	}
	for _, ip := range ips {
		fmt.Fprintf(os.Stdout, "Visit %s://%s to share files\n", scheme, net.JoinHostPort(ip.String(), port))
	}

	return nil
}

func (s *Server) gc() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep drops visitors idle longer than the configured timeout.
func (s *Server) sweep(now time.Time) int {
	removed := 0
	s.visitors.Range(func(key, value any) bool {
		v := value.(*visitor)
		if v.idle(now) > s.cfg.Web.IdleTimeout && v.widget.CanSubmit() {
			v.widget.Close()
			s.visitors.Delete(key)
			s.metrics.VisitorRemoved()
			removed++

			slog.Debug("Remove idle visitor", "visitor", key)
		}
		return true
	})
	return removed
}
