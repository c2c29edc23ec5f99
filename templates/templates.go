package templates

import "embed"

const (
	UploadPage  = "upload"
	SessionPage = "session"
)

//go:embed *.html
var FS embed.FS
