package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sakif/reactgram/internal/apperror"
	"github.com/sakif/reactgram/internal/service"
)

// multipartMemory is how much of a form is held in memory before the rest
// spills to temporary files.
const multipartMemory = 8 << 20

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart reads a multipart body no larger than limit bytes.
// Call r.MultipartForm.RemoveAll when done.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.BadRequest("upload too large")
		}
		return apperror.BadRequest("invalid multipart form")
	}
	return nil
}

// formFile returns the uploaded file under field, or nil when the form has
// none. The caller closes the returned file.
func formFile(r *http.Request, field string) (multipart.File, *service.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperror.BadRequest("invalid " + field + " upload")
	}
	return file, &service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, nil
}

// formValue returns the value of field and whether the form carried it at
// all, so an explicitly empty field can be told apart from a missing one.
func formValue(r *http.Request, field string) (*string, bool) {
	v, ok := formRawValue(r, field)
	if !ok {
		return nil, false
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed, true
}

// formRawValue is formValue without trimming, for passwords.
func formRawValue(r *http.Request, field string) (*string, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	vals, ok := r.MultipartForm.Value[field]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	v := vals[0]
	return &v, true
}
