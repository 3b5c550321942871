package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"github.com/yukikurage/tax-task-tracker/internal/storage"
	"github.com/yukikurage/tax-task-tracker/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrFileNotFound         = errors.New("file not found")
	ErrStoredFileMissing    = errors.New("stored file not found")
	ErrUnsupportedMediaType = errors.New("file type not allowed")
	ErrFileTooLarge         = errors.New("file exceeds the 10 MiB limit")
)

// AllowedMIMETypes lists the content types accepted as attachments.
var AllowedMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"text/csv",
}

const sniffLength = 3072

// AttachmentStore keeps attachment bytes.
type AttachmentStore interface {
	TaskDirRemover
	Save(taskID, name string, r io.Reader) (string, int64, error)
	Open(rel string) (*os.File, os.FileInfo, error)
	Remove(rel string) error
}

// FileService handles attachment upload, download and removal
type FileService struct {
	fileRepo repository.FileRepository
	taskRepo repository.TaskRepository
	store    AttachmentStore
	activity *ActivityService
	now      func() time.Time
}

// NewFileService creates a new FileService
func NewFileService(fileRepo repository.FileRepository, taskRepo repository.TaskRepository, store AttachmentStore, activity *ActivityService) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		taskRepo: taskRepo,
		store:    store,
		activity: activity,
		now:      time.Now,
	}
}

// UploadInput describes one uploaded file. Size is the size declared by the
// client; the stored size is what was actually written.
type UploadInput struct {
	TaskID   string
	Filename string
	Size     int64
	Content  io.Reader
}

// Upload validates and stores an attachment for a task.
func (s *FileService) Upload(ctx context.Context, actor *auth.Principal, input UploadInput) (*models.FileAttachment, error) {
	taskID := strings.TrimSpace(input.TaskID)
	if taskID == "" {
		return nil, validationErrorf("taskId is required")
	}
	if input.Content == nil {
		return nil, validationErrorf("no file was sent")
	}
	if input.Size > constants.MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(input.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if !isAllowedMIME(detected) {
		log.Printf("[UPLOAD] rejected %q for task %s: detected %s", input.Filename, taskID, detected.String())
		return nil, ErrUnsupportedMediaType
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	now := s.now().UTC()
	storedName := utils.StoredFilename(input.Filename, now)
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), input.Content), constants.MaxUploadSize+1)
	rel, written, err := s.store.Save(task.ID, storedName, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if written > constants.MaxUploadSize {
		s.discard(rel)
		return nil, ErrFileTooLarge
	}

	file := &models.FileAttachment{
		TaskID:       task.ID,
		StoredName:   storedName,
		OriginalName: originalName(input.Filename),
		StoragePath:  rel,
		MimeType:     detected.String(),
		Size:         written,
		UploadedBy:   actor.ID,
		UploadedAt:   now,
	}
	entry := newEntry(actor, models.ActivityUpload, task.ID, task.Title)
	if err := s.fileRepo.Create(file, entry); err != nil {
		s.discard(rel)
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}
	s.activity.Publish(ctx, entry)

	log.Printf("[UPLOAD] %s stored %s (%d bytes) for task %s", actor.ID, file.ID, file.Size, task.ID)
	return file, nil
}

// Download opens an attachment and counts the download. The caller closes
// the returned file.
func (s *FileService) Download(ctx context.Context, actor *auth.Principal, fileID string) (*models.FileAttachment, *os.File, os.FileInfo, error) {
	file, err := s.find(fileID)
	if err != nil {
		return nil, nil, nil, err
	}

	f, info, err := s.store.Open(file.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrOutsideRoot) {
			log.Printf("[DOWNLOAD] record %s points at missing file %s", file.ID, file.StoragePath)
			return nil, nil, nil, ErrStoredFileMissing
		}
		return nil, nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}

	entry := newEntry(actor, models.ActivityDownload, file.TaskID, file.OriginalName)
	if err := s.fileRepo.RecordDownload(file.ID, entry); err != nil {
		f.Close()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrFileNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to record download: %w", err)
	}
	s.activity.Publish(ctx, entry)

	file.DownloadCount++
	return file, f, info, nil
}

// ListByTask returns the attachments of a task, oldest first
func (s *FileService) ListByTask(taskID string) ([]models.FileAttachment, error) {
	files, err := s.fileRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete removes an attachment. The uploader and administrators may do this.
func (s *FileService) Delete(ctx context.Context, actor *auth.Principal, fileID string) error {
	file, err := s.find(fileID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(actor, auth.ActionDeleteFile, auth.Target{UploaderID: file.UploadedBy}); err != nil {
		return err
	}

	if err := s.store.Remove(file.StoragePath); err != nil && !errors.Is(err, storage.ErrNotExist) {
		log.Printf("[DELETE FILE] could not remove %s: %v", file.StoragePath, err)
	}

	entry := newEntry(actor, models.ActivityDeleteFile, file.TaskID, file.OriginalName)
	if err := s.fileRepo.Delete(file.ID, entry); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	s.activity.Publish(ctx, entry)
	return nil
}

func (s *FileService) find(fileID string) (*models.FileAttachment, error) {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return file, nil
}

func (s *FileService) discard(rel string) {
	if err := s.store.Remove(rel); err != nil {
		log.Printf("[UPLOAD] could not discard %s: %v", rel, err)
	}
}

func isAllowedMIME(m *mimetype.MIME) bool {
	for _, allowed := range AllowedMIMETypes {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}

func originalName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	return name
}
