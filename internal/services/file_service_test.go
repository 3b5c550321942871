package services

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func (suite *ServiceTestSuite) newTask(admin *models.User, assignee *models.User) *models.Task {
	task, err := suite.tasks.CreateTask(suite.ctx, suite.principal(admin), TaskInput{
		Title: "Submit VAT", AssigneeID: assignee.ID, DueDate: "2024-05-10",
	})
	suite.Require().NoError(err)
	return task
}

func (suite *ServiceTestSuite) TestUpload_StoresSniffedType() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	u1 := suite.createUser("u1@escritorio.com", models.RoleStandard, "secret1")
	task := suite.newTask(admin, u1)

	file, err := suite.files.Upload(suite.ctx, suite.principal(u1), UploadInput{
		TaskID:   task.ID,
		Filename: "../../comprovante março.png",
		Content:  bytes.NewReader(pngHeader),
	})
	suite.Require().NoError(err)
	suite.Equal("image/png", file.MimeType)
	suite.Equal(int64(len(pngHeader)), file.Size)
	suite.Equal(u1.ID, file.UploadedBy)
	suite.True(strings.HasPrefix(file.StoragePath, task.ID+string(filepath.Separator)))
	suite.NotContains(file.StoredName, "..")

	stored, err := os.ReadFile(filepath.Join(suite.store.Root(), file.StoragePath))
	suite.Require().NoError(err)
	suite.Equal(pngHeader, stored)

	var entry models.ActivityLog
	suite.Require().NoError(suite.db.Where("action = ?", models.ActivityUpload).First(&entry).Error)
	suite.Equal(task.ID, entry.TaskID)
}

func (suite *ServiceTestSuite) TestUpload_DisallowedTypeLeavesNoRecord() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	task := suite.newTask(admin, admin)

	_, err := suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		TaskID:   task.ID,
		Filename: "proof.png",
		Content:  strings.NewReader("<!DOCTYPE html><html><body>not a picture</body></html>"),
	})
	suite.ErrorIs(err, ErrUnsupportedMediaType)
	suite.Equal(int64(0), suite.countRows(&models.FileAttachment{}))

	entries, readErr := os.ReadDir(suite.store.Root())
	suite.Require().NoError(readErr)
	suite.Empty(entries)
}

func (suite *ServiceTestSuite) TestUpload_TooLarge() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	task := suite.newTask(admin, admin)

	_, err := suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		TaskID:  task.ID,
		Size:    constants.MaxUploadSize + 1,
		Content: strings.NewReader("tiny"),
	})
	suite.ErrorIs(err, ErrFileTooLarge)

	body := io.MultiReader(strings.NewReader("plain text "), strings.NewReader(strings.Repeat("a", constants.MaxUploadSize)))
	_, err = suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		TaskID: task.ID, Filename: "big.txt", Content: body,
	})
	suite.ErrorIs(err, ErrFileTooLarge)
	suite.Equal(int64(0), suite.countRows(&models.FileAttachment{}))
}

func (suite *ServiceTestSuite) TestUpload_RequiresExistingTask() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")

	_, err := suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		Filename: "proof.txt", Content: strings.NewReader("paid"),
	})
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		TaskID: "missing", Filename: "proof.txt", Content: strings.NewReader("paid"),
	})
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestDownload_CountsExactlyOnce() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	task := suite.newTask(admin, admin)
	file, err := suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		TaskID: task.ID, Filename: "proof.txt", Content: strings.NewReader("paid in full"),
	})
	suite.Require().NoError(err)

	meta, f, info, err := suite.files.Download(suite.ctx, suite.principal(admin), file.ID)
	suite.Require().NoError(err)
	defer f.Close()
	suite.Equal(int64(1), meta.DownloadCount)
	suite.Equal(int64(len("paid in full")), info.Size())

	stored, err := suite.fileRepo.FindByID(file.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), stored.DownloadCount)

	var downloads int64
	suite.Require().NoError(suite.db.Model(&models.ActivityLog{}).Where("action = ?", models.ActivityDownload).Count(&downloads).Error)
	suite.Equal(int64(1), downloads)
}

func (suite *ServiceTestSuite) TestDownload_MissingPhysicalFile() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	task := suite.newTask(admin, admin)
	file, err := suite.files.Upload(suite.ctx, suite.principal(admin), UploadInput{
		TaskID: task.ID, Filename: "proof.txt", Content: strings.NewReader("paid"),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(os.Remove(filepath.Join(suite.store.Root(), file.StoragePath)))

	_, _, _, err = suite.files.Download(suite.ctx, suite.principal(admin), file.ID)
	suite.ErrorIs(err, ErrStoredFileMissing)

	stored, err := suite.fileRepo.FindByID(file.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(0), stored.DownloadCount)

	_, _, _, err = suite.files.Download(suite.ctx, suite.principal(admin), "missing")
	suite.ErrorIs(err, ErrFileNotFound)
}

func (suite *ServiceTestSuite) TestDeleteFile_UploaderOrAdmin() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	uploader := suite.createUser("u1@escritorio.com", models.RoleStandard, "secret1")
	other := suite.createUser("u2@escritorio.com", models.RoleStandard, "secret1")
	task := suite.newTask(admin, uploader)

	upload := func() *models.FileAttachment {
		f, err := suite.files.Upload(suite.ctx, suite.principal(uploader), UploadInput{
			TaskID: task.ID, Filename: "proof.txt", Content: strings.NewReader("paid"),
		})
		suite.Require().NoError(err)
		return f
	}

	first := upload()
	suite.ErrorIs(suite.files.Delete(suite.ctx, suite.principal(other), first.ID), auth.ErrForbidden)
	suite.Require().NoError(suite.files.Delete(suite.ctx, suite.principal(uploader), first.ID))
	_, err := os.Stat(filepath.Join(suite.store.Root(), first.StoragePath))
	suite.True(os.IsNotExist(err))

	second := upload()
	suite.Require().NoError(os.Remove(filepath.Join(suite.store.Root(), second.StoragePath)))
	suite.Require().NoError(suite.files.Delete(suite.ctx, suite.principal(admin), second.ID), "missing bytes do not block deletion")

	suite.Equal(int64(0), suite.countRows(&models.FileAttachment{}))
	suite.ErrorIs(suite.files.Delete(suite.ctx, suite.principal(admin), second.ID), ErrFileNotFound)
}

func (suite *ServiceTestSuite) TestListByTask() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	task := suite.newTask(admin, admin)

	files, err := suite.files.ListByTask(task.ID)
	suite.Require().NoError(err)
	suite.NotNil(files)
	suite.Empty(files)
}
