package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const (
	formFieldFiles     = "files"
	formFieldDocTypeID = "doc_type_id"

	defaultMultipartMemory = 32 << 20
)

func (rt *Router) validateSubmission(w http.ResponseWriter, r *http.Request) {
	if rt.validator == nil {
		rt.writeValidationError(w, r, "", domain.WrapError(domain.ErrMisconfigured, "validate submission", errors.New("validator is not configured")))
		return
	}

	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	memory := rt.cfg.MultipartMemoryBytes
	if memory <= 0 {
		memory = defaultMultipartMemory
	}
	if err := r.ParseMultipartForm(memory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rt.recordError(http.StatusRequestEntityTooLarge)
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("Request body exceeds the limit of %d bytes", tooLarge.Limit),
			})
			return
		}
		rt.recordError(http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request must be multipart/form-data"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	docTypeID := strings.TrimSpace(firstValue(r.MultipartForm, formFieldDocTypeID))
	if docTypeID == "" {
		rt.recordError(http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'doc_type_id' is required"})
		return
	}
	headers := r.MultipartForm.File[formFieldFiles]
	if len(headers) == 0 {
		rt.recordError(http.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		file, err := readPart(fh)
		if err != nil {
			rt.recordError(http.StatusBadRequest)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("could not read uploaded file %s", fh.Filename)})
			return
		}
		files = append(files, file)
	}

	start := time.Now()
	verdict, err := rt.validator.Validate(r.Context(), docTypeID, files)
	if err != nil {
		rt.writeValidationError(w, r, docTypeID, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordValidation(serviceName, string(verdict.Outcome()), len(files), time.Since(start))
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (rt *Router) writeValidationError(w http.ResponseWriter, r *http.Request, docTypeID string, err error) {
	status := mapErrorToHTTPStatus(err)
	rt.recordError(status)

	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"doc_type_id", docTypeID,
		"status", status,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		slog.Error("submission_validation_error", attrs...)
	} else {
		slog.Warn("submission_validation_error", attrs...)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, map[string]string{"error": publicErrorMessage(err, docTypeID)})
}

func (rt *Router) recordError(status int) {
	if rt.metrics != nil {
		rt.metrics.RecordValidationError(serviceName, status)
	}
}

func readPart(fh *multipart.FileHeader) (domain.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.UploadedFile{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadedFile{}, err
	}
	return domain.NewUploadedFile(fh.Filename, content), nil
}

func firstValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
