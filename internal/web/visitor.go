package web

import (
	"sync/atomic"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/edgarcoime/cthulhu-cli/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

type visitor struct {
	widget   *upload.Widget
	lastSeen atomic.Int64
}

func (v *visitor) touch() {
	v.lastSeen.Store(time.Now().UnixNano())
}

func (v *visitor) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, v.lastSeen.Load()))
}

// pageLinks points share links at this server's session page instead of the
// gateway.
type pageLinks struct {
	upload.Uploader
}

func (pageLinks) SessionURL(sessionID string) string {
	return sessionPrefix + sessionID
}

// visitorOf returns the widget bound to the visitor cookie, creating both on
// first contact.
func (s *Server) visitorOf(c *fiber.Ctx) *visitor {
	// strings in fiber are unsafe due to zero allocation
	id := fiberutils.CopyString(c.Cookies(visitorCookie))
	if id != "" {
		if v, ok := s.visitors.Load(id); ok {
			v := v.(*visitor)
			v.touch()
			return v
		}
	}

	id = uuid.NewString()
	v := &visitor{
		widget: upload.NewWidget(pageLinks{s.gateway},
			upload.WithResetDelays(s.cfg.SuccessResetDelay, s.cfg.ErrorResetDelay),
			upload.WithLogger(s.logger.With("visitor", id)),
		),
	}
	v.touch()
	v.widget.Subscribe(func(st upload.State) {
		s.metrics.ObserveUpload(st)
		s.record(st)
	})
	s.visitors.Store(id, v)
	s.metrics.VisitorAdded()

	c.Cookie(&fiber.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return v
}

func (s *Server) record(st upload.State) {
	done, ok := st.(upload.Succeeded)
	if !ok || s.history == nil {
		return
	}

	link := s.gateway.SessionURL(done.Result.URL)
	if err := s.history.Put(store.NewEntry(link, done.Result)); err != nil {
		s.logger.Warn("Fail to record upload", "session", done.Result.URL, "error", err)
	}
}
