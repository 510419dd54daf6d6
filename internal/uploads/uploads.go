package uploads

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/params"
)

const (
	KindNewsletters = "newsletters"
	KindPosts       = "posts"
	KindEvents      = "events"
)

var (
	ErrNotPDF       = apperr.Validation("Only PDF files are allowed")
	ErrNotImage     = apperr.Validation("Only image files are allowed")
	ErrFileTooLarge = apperr.Validation("File exceeds the maximum allowed size")
	ErrEmptyFile    = apperr.Validation("File is empty")
)

// FileStore persists uploaded files and hands back the path they are served from.
type FileStore interface {
	Save(ctx context.Context, kind string, file File) (string, error)
	// Remove deletes a stored file. A file that is already gone is not an error.
	Remove(ctx context.Context, path string) error
}

// File is an upload that passed validation.
type File struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Ext         string
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniff reads the first 512 bytes of r and returns them together with a
// reader that replays them.
func sniff(r io.Reader) ([]byte, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, err
	}
	head = head[:n]
	return head, io.MultiReader(bytes.NewReader(head), r), nil
}

// CheckPDF accepts r only when it starts with the PDF signature and is
// within the newsletter size limit.
func CheckPDF(r io.Reader, size int64) (File, error) {
	if size <= 0 {
		return File{}, ErrEmptyFile
	}
	if size > params.NewsletterMaxSize {
		return File{}, ErrFileTooLarge
	}
	head, reader, err := sniff(r)
	if err != nil {
		return File{}, err
	}
	if !bytes.HasPrefix(head, []byte("%PDF-")) {
		return File{}, ErrNotPDF
	}
	return File{Reader: reader, Size: size, ContentType: "application/pdf", Ext: ".pdf"}, nil
}

// CheckImage accepts common web image formats, detected from content.
func CheckImage(r io.Reader, size int64) (File, error) {
	if size <= 0 {
		return File{}, ErrEmptyFile
	}
	if size > params.ImageMaxSize {
		return File{}, ErrFileTooLarge
	}
	head, reader, err := sniff(r)
	if err != nil {
		return File{}, err
	}
	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return File{}, ErrNotImage
	}
	return File{Reader: reader, Size: size, ContentType: contentType, Ext: ext}, nil
}

func newFileName(ext string) string {
	return uuid.NewString() + ext
}
