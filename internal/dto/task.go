package dto

import (
	"time"

	"github.com/yukikurage/tax-task-tracker/internal/models"
)

// AttachmentDTO represents a stored file in API responses
type AttachmentDTO struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	Type          string    `json:"type"`
	UploadDate    time.Time `json:"uploadDate"`
	UploadedBy    string    `json:"uploadedBy"`
	DownloadCount int64     `json:"downloadCount"`
}

// TaskDTO represents a task in API responses. Attachments are always
// serialised, as an empty list when there are none.
type TaskDTO struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	AssigneeID   string            `json:"assigneeId"`
	AssigneeName string            `json:"assigneeName"`
	DueDate      string            `json:"dueDate"`
	Notes        string            `json:"notes"`
	Status       models.TaskStatus `json:"status"`
	Recurring    bool              `json:"recurring"`
	Frequency    models.Frequency  `json:"frequency"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Comprovantes []AttachmentDTO   `json:"comprovantes"`
}

// DownloadURL is the API path serving a stored file.
func DownloadURL(fileID string) string {
	return "/api/files/" + fileID + "/download"
}

// ToAttachmentDTO converts a FileAttachment model to AttachmentDTO
func ToAttachmentDTO(file models.FileAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:            file.ID,
		URL:           DownloadURL(file.ID),
		Name:          file.OriginalName,
		Size:          file.Size,
		Type:          file.MimeType,
		UploadDate:    file.UploadedAt,
		UploadedBy:    file.UploadedBy,
		DownloadCount: file.DownloadCount,
	}
}

func ToAttachmentDTOs(files []models.FileAttachment) []AttachmentDTO {
	out := make([]AttachmentDTO, len(files))
	for i, f := range files {
		out[i] = ToAttachmentDTO(f)
	}
	return out
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		AssigneeID:   task.AssigneeID,
		AssigneeName: task.AssigneeName,
		DueDate:      task.DueDate.UTC().Format(time.DateOnly),
		Notes:        task.Notes,
		Status:       task.Status,
		Recurring:    task.Recurring,
		Frequency:    task.Frequency,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
		Comprovantes: ToAttachmentDTOs(task.Attachments),
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}
