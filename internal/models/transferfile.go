package models

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
)

// TransferFile is one blob of a transfer request. It only references the
// content; Open is called once while the multipart body is being written.
type TransferFile struct {
	Name     string
	Size     int64
	MIME     string
	FullPath string // empty for blobs not backed by a local file

	open func() (io.ReadCloser, error)
}

func (f TransferFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("transfer file has no content")
	}
	return f.open()
}

func mimeOf(name string) string {
	fileType := mime.TypeByExtension(filepath.Ext(name))
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	return fileType
}

func NewTransferFile(fpath string) (TransferFile, error) {
	fd, err := os.Stat(fpath)
	if err != nil {
		return TransferFile{}, err
	}
	if fd.IsDir() {
		return TransferFile{}, &fs.PathError{Op: "open", Path: fpath, Err: errors.New("is a directory")}
	}

	return TransferFile{
		Name:     fd.Name(),
		Size:     fd.Size(),
		MIME:     mimeOf(fpath),
		FullPath: fpath,
		open: func() (io.ReadCloser, error) {
			return os.Open(fpath)
		},
	}, nil
}

// GenTransferFiles builds transfer files from paths, walking directories.
func GenTransferFiles(paths []string) ([]TransferFile, error) {
	files := make([]TransferFile, 0, len(paths))

	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			f, err := NewTransferFile(path)
			if err != nil {
				return err
			}
			files = append(files, f)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// TransferFileFromHeader wraps a file received in a multipart form.
func TransferFileFromHeader(fh *multipart.FileHeader) TransferFile {
	fileType := fh.Header.Get("Content-Type")
	if fileType == "" {
		fileType = mimeOf(fh.Filename)
	}

	return TransferFile{
		Name: filepath.Base(fh.Filename),
		Size: fh.Size,
		MIME: fileType,
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func TransferFileFromBytes(name string, content []byte) TransferFile {
	return TransferFile{
		Name: name,
		Size: int64(len(content)),
		MIME: mimeOf(name),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func TotalSize(files []TransferFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
