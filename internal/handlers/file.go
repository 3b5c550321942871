package handlers

import (
	"errors"
	"log"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/services"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload stores the "file" part of a multipart form against "taskId".
func (h *FileHandler) Upload(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadSize+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(c, services.ErrFileTooLarge)
			return
		}
		apierrors.BadRequest(c, "Expected a multipart form")
		return
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			log.Printf("[UPLOAD] could not remove temporary files: %v", err)
		}
	}()

	var taskID string
	if values := form.Value["taskId"]; len(values) > 0 {
		taskID = values[0]
	}
	parts := form.File["file"]
	if len(parts) == 0 {
		if taskID == "" {
			apierrors.BadRequest(c, "taskId is required")
			return
		}
		apierrors.BadRequest(c, "No file was sent")
		return
	}
	header := parts[0]

	content, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Could not read the uploaded file")
		return
	}
	defer content.Close()

	file, err := h.fileService.Upload(c.Request.Context(), p, services.UploadInput{
		TaskID:   taskID,
		Filename: header.Filename,
		Size:     header.Size,
		Content:  content,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAttachmentDTO(*file))
}

// Download streams a stored file and counts the download.
func (h *FileHandler) Download(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	file, f, info, err := h.fileService.Download(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", file.MimeType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalName}))
	http.ServeContent(c.Writer, c.Request, file.OriginalName, info.ModTime(), f)
}

// ListByTask returns the attachments of a task.
func (h *FileHandler) ListByTask(c *gin.Context) {
	files, err := h.fileService.ListByTask(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAttachmentDTOs(files))
}

// Delete removes an attachment. Only its uploader or an administrator may.
func (h *FileHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.fileService.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
