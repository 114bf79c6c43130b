package handlers

import (
	"net/http"

	"github.com/AnshRaj112/ridit-backend/internal/services"
)

// imageUploader is set at startup; nil when Cloudinary is not configured.
var imageUploader services.ImageUploader

// SetImageUploader installs the uploader used by UploadImage.
func SetImageUploader(u services.ImageUploader) {
	imageUploader = u
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadImage handles POST /upload (multipart field "file").
func UploadImage(w http.ResponseWriter, r *http.Request) {
	if imageUploader == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to parse form")
		return
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file provided")
		return
	}
	file.Close()

	url, err := imageUploader.UploadItemImage(r.Context(), fileHeader)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}
