package handlers

import (
	"errors"
	"fmt"
	"net/http"

	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	mediasvc "github.com/ViceKink/vice-kink-backend/internal/services/media"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/dto"
	httperrors "github.com/ViceKink/vice-kink-backend/internal/transport/http/errors"
)

const maxUploadFormSize = 6 << 20 // body cap, slightly above the attachment limit

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadFormSize)
	if err := r.ParseMultipartForm(maxUploadFormSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.service.UploadAttachment(r.Context(), identity.UserID, header.Filename, contentType, file, header.Size)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AttachmentResponse{
		ObjectKey: attachment.ObjectKey,
		URL:       attachment.URL,
		Size:      attachment.Size,
		CreatedAt: attachment.CreatedAt,
	})
}

func handleMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid media request")
	case errors.Is(err, mediasvc.ErrNotAnImage):
		writeBadRequest(w, "NOT_AN_IMAGE", "attachment must be a jpeg, png, webp or gif image")
	case errors.Is(err, mediasvc.ErrFileTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("attachment exceeds %d bytes", mediasvc.MaxAttachmentSize()),
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "media operation failed")
	}
}
