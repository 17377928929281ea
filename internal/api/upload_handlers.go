// internal/api/upload_handlers.go
package api

import (
	stderrors "errors"
	"net/http"
	"os"

	"bizpilot/internal/common/errors"
	"bizpilot/internal/upload"
)

// multipartOverhead leaves room for the form boundaries around the file.
const multipartOverhead = 64 << 10

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes()+multipartOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.fail(w, r, rejected("File too large. Maximum size is 5MB."))
			return
		}
		s.fail(w, r, rejected("No image file provided"))
		return
	}
	defer file.Close()

	info, err := s.uploads.Save(file, header.Filename, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		switch {
		case stderrors.Is(err, upload.ErrTooLarge):
			s.fail(w, r, rejected("File too large. Maximum size is 5MB."))
		case stderrors.Is(err, upload.ErrNotAnImage):
			s.fail(w, r, rejected("Only image files are allowed"))
		case stderrors.Is(err, upload.ErrUndecodable):
			s.fail(w, r, rejected("Image could not be processed"))
		default:
			s.fail(w, r, errors.NewInternalError(err))
		}
		return
	}
	s.ok(w, http.StatusOK, "Image uploaded successfully", map[string]interface{}{"image": info})
}

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	path, ok := s.uploads.Path(name)
	if ok {
		if fi, err := os.Stat(path); err != nil || fi.IsDir() {
			ok = false
		}
	}
	if !ok {
		s.fail(w, r, errors.NewNotFoundError("File", name))
		return
	}
	http.ServeFile(w, r, path)
}
