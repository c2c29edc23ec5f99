package web

import (
	"errors"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/viewer"
	"github.com/edgarcoime/cthulhu-cli/internal/models"
	"github.com/edgarcoime/cthulhu-cli/templates"
	"github.com/gofiber/fiber/v2"
)

// stateView is the JSON shape of a widget state.
type stateView struct {
	State      string              `json:"state"`
	Message    string              `json:"message,omitempty"`
	SessionURL string              `json:"session_url,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	Files      int                 `json:"files,omitempty"`
	TotalSize  int64               `json:"total_size,omitempty"`
	CanSubmit  bool                `json:"can_submit"`
	Active     bool                `json:"active"`
	Selection  []string            `json:"selection,omitempty"`
	Recent     []upload.RecentFile `json:"recent,omitempty"`
}

func viewOf(w *upload.Widget, st upload.State) stateView {
	view := stateView{
		State:     st.Kind().String(),
		CanSubmit: w.CanSubmit(),
		Active:    w.Active(),
		Selection: w.Selection(),
		Recent:    w.Recent(),
	}

	switch st := st.(type) {
	case upload.Uploading:
		view.Files = st.Files
		view.TotalSize = st.TotalSize
	case upload.Succeeded:
		view.SessionURL = st.SessionURL
		view.Summary = upload.Summary(st.Result)
		view.Files = st.Result.FileCount
		view.TotalSize = st.Result.TotalSize
	case upload.Failed:
		view.Message = st.Message
	}

	return view
}

func (s *Server) indexHandler(c *fiber.Ctx) error {
	v := s.visitorOf(c)

	return c.Render(templates.UploadPage, fiber.Map{
		"State": viewOf(v.widget, v.widget.State()),
	})
}

func (s *Server) stateHandler(c *fiber.Ctx) error {
	v := s.visitorOf(c)

	return c.JSON(viewOf(v.widget, v.widget.State()))
}

func (s *Server) uploadHandler(c *fiber.Ctx) error {
	v := s.visitorOf(c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(stateView{
			State:     upload.KindFailed.String(),
			Message:   "Invalid upload form",
			CanSubmit: v.widget.CanSubmit(),
		})
	}

	headers := form.File[constants.FileField]
	if len(headers) == 0 {
		view := viewOf(v.widget, v.widget.State())
		view.Message = constants.ErrNoFiles.Error()
		return c.Status(fiber.StatusBadRequest).JSON(view)
	}

	files := make([]models.TransferFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, models.TransferFileFromHeader(fh))
	}

	var st upload.State
	if c.FormValue("source") == "drop" {
		st = v.widget.Drop(c.UserContext(), files)
	} else {
		st = v.widget.Select(c.UserContext(), files)
	}

	status := fiber.StatusOK
	if failed, ok := st.(upload.Failed); ok {
		status = constants.Status(failed.Err)
		if errors.Is(failed.Err, upload.ErrSuperseded) {
			status = fiber.StatusConflict
		}
	}

	return c.Status(status).JSON(viewOf(v.widget, st))
}

type fileView struct {
	Name string
	Size int64
	URL  string
}

func (s *Server) sessionHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	vw := viewer.New(s.gateway)
	st := vw.Load(c.UserContext(), id)

	data := fiber.Map{
		"SessionID": st.Session(),
		"RetryURL":  c.OriginalURL(),
	}

	status := fiber.StatusOK
	switch st := st.(type) {
	case viewer.Failed:
		data["State"] = "failed"
		data["Message"] = st.Message
		status = constants.Status(st.Err)
	case viewer.Loaded:
		files := make([]fileView, 0, len(st.Files))
		for _, f := range st.Files {
			files = append(files, fileView{Name: f.Name, Size: f.Size, URL: vw.DownloadURL(f)})
		}
		data["State"] = "loaded"
		data["Files"] = files
		data["Summary"] = st.Summary()
	default:
		data["State"] = "loading"
	}

	return c.Status(status).Render(templates.SessionPage, data)
}
