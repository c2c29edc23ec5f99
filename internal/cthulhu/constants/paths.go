package constants

import (
	"net/url"
	"strings"
)

const (
	UploadPath     = "/files/upload"
	ListPathPrefix = "/files/"
	SessionPrefix  = "/files/s/"
	DownloadInfix  = "/d/"

	// FileField is the multipart field every uploaded file travels under.
	FileField = "file"

	DefaultBaseURL = "http://localhost:4000"
	UserAgent      = "cthulhu-cli"
)

// ListPath is the file listing endpoint of a session.
func ListPath(sessionID string) string {
	return ListPathPrefix + url.PathEscape(sessionID)
}

// SessionPath is the share path handed out for a session.
func SessionPath(sessionID string) string {
	return SessionPrefix + url.PathEscape(sessionID)
}

// DownloadPath is the raw download endpoint of one stored file.
func DownloadPath(sessionID, filename string) string {
	return SessionPath(sessionID) + DownloadInfix + url.PathEscape(filename)
}

// JoinURL concatenates base and a gateway relative path without doubling
// or dropping the separating slash.
func JoinURL(base, rel string) string {
	base = strings.TrimRight(base, "/")
	if rel == "" {
		return base
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return base + rel
}
