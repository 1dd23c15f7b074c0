package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/receipto/receipto/internal/api/response"
	"github.com/receipto/receipto/internal/storage"
)

// maxUploadSize caps receipt uploads at 10 MiB.
const maxUploadSize = 10 << 20

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// Scheduler dispatches background processing for an uploaded receipt.
type Scheduler interface {
	Schedule(receiptID uuid.UUID, imagePath string)
}

// UploadStore is the store surface the upload handler needs.
type UploadStore interface {
	CreateReceipt(ctx context.Context, id uuid.UUID, imageURL string) error
}

// NewUploadHandler returns an http.HandlerFunc for POST /receipts/upload.
// The file is validated, persisted, recorded as pending, and queued for
// processing; the response returns before the pipeline runs.
func NewUploadHandler(st UploadStore, files *storage.FileStore, scheduler Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"A file upload named 'file' is required", nil)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !allowedContentTypes[contentType] {
			response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
				"File type "+contentType+" not supported. Please upload JPG, PNG or PDF.", nil)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred while processing the upload.", nil)
			return
		}
		if len(content) > maxUploadSize {
			response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				"File size exceeds the 10MB limit.", nil)
			return
		}

		receiptID := uuid.New()

		filePath, err := files.Save(receiptID, content, contentType)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred while processing the upload.", nil)
			return
		}

		if err := st.CreateReceipt(r.Context(), receiptID, files.RelativeURL(filePath)); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred while processing the upload.", nil)
			return
		}

		scheduler.Schedule(receiptID, filePath)

		response.Accepted(w, uploadResponse{
			ReceiptID: receiptID.String(),
			Status:    "pending",
			Message:   "Receipt uploaded successfully and is now being processed.",
		})
	}
}

type uploadResponse struct {
	ReceiptID string `json:"receipt_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}
