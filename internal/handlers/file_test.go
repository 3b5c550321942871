package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
	"github.com/yukikurage/tax-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// createUploadContext builds a multipart request with the given fields.
// An empty filename leaves the file part out.
func (suite *HandlerTestSuite) createUploadContext(taskID, filename string, content []byte, p *auth.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if taskID != "" {
		suite.Require().NoError(mw.WriteField("taskId", taskID))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		suite.Require().NoError(err)
		_, err = part.Write(content)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	c.Set(constants.ContextKeyPrincipal, p)
	return c, w
}

func (suite *HandlerTestSuite) uploadPNG(task *models.Task, user *models.User) dto.AttachmentDTO {
	c, w := suite.createUploadContext(task.ID, "guia-das.png", pngBytes, principalOf(user))
	NewFileHandler(suite.fileService).Upload(c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var file dto.AttachmentDTO
	suite.decode(w, &file)
	return file
}

func (suite *HandlerTestSuite) TestUpload_Success() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	task := suite.createTestTask("DAS", user)

	file := suite.uploadPNG(task, user)

	suite.NotEmpty(file.ID)
	suite.Equal("/api/files/"+file.ID+"/download", file.URL)
	suite.Equal("guia-das.png", file.Name)
	suite.Equal("image/png", file.Type)
	suite.Equal(int64(len(pngBytes)), file.Size)
	suite.Equal(user.ID, file.UploadedBy)
	suite.Equal(int64(0), file.DownloadCount)
}

func (suite *HandlerTestSuite) TestUpload_DisallowedType() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	task := suite.createTestTask("DAS", user)

	c, w := suite.createUploadContext(task.ID, "invoice.png", []byte("<!DOCTYPE html><html><body>hi</body></html>"), principalOf(user))
	NewFileHandler(suite.fileService).Upload(c)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeUnsupportedMediaType, suite.errorCode(w))
	suite.Equal(int64(0), suite.countRows(&models.FileAttachment{}))
}

func (suite *HandlerTestSuite) TestUpload_MissingTaskID() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)

	c, w := suite.createUploadContext("", "guia-das.png", pngBytes, principalOf(user))
	NewFileHandler(suite.fileService).Upload(c)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, suite.errorCode(w))
	suite.Equal(int64(0), suite.countRows(&models.FileAttachment{}))
}

func (suite *HandlerTestSuite) TestUpload_UnknownTask() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)

	c, w := suite.createUploadContext("missing", "guia-das.png", pngBytes, principalOf(user))
	NewFileHandler(suite.fileService).Upload(c)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestDownload_CountsOnce() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	task := suite.createTestTask("DAS", user)
	file := suite.uploadPNG(task, user)
	handler := NewFileHandler(suite.fileService)

	downloadsBefore := suite.countDownloadEntries()

	c, w := suite.createAuthContext(http.MethodGet, "/api/files/"+file.ID+"/download", nil, principalOf(user))
	c.Params = gin.Params{{Key: "id", Value: file.ID}}
	handler.Download(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(pngBytes, w.Body.Bytes())
	suite.Equal("image/png", w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), `attachment; filename=guia-das.png`)

	var stored models.FileAttachment
	suite.Require().NoError(suite.db.First(&stored, "id = ?", file.ID).Error)
	suite.Equal(int64(1), stored.DownloadCount)
	suite.Equal(downloadsBefore+1, suite.countDownloadEntries())
}

func (suite *HandlerTestSuite) TestDownload_NotFound() {
	user := suite.createTestUser("ana@escritorio.com", models.RoleStandard)

	c, w := suite.createAuthContext(http.MethodGet, "/api/files/missing/download", nil, principalOf(user))
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	NewFileHandler(suite.fileService).Download(c)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestListAndDeleteFiles() {
	uploader := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	other := suite.createTestUser("bruno@escritorio.com", models.RoleStandard)
	task := suite.createTestTask("DAS", uploader)
	file := suite.uploadPNG(task, uploader)
	handler := NewFileHandler(suite.fileService)

	c, w := suite.createAuthContext(http.MethodGet, "/api/files/task/"+task.ID, nil, principalOf(other))
	c.Params = gin.Params{{Key: "id", Value: task.ID}}
	handler.ListByTask(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var files []dto.AttachmentDTO
	suite.decode(w, &files)
	suite.Require().Len(files, 1)
	suite.Equal(file.ID, files[0].ID)

	c, w = suite.createAuthContext(http.MethodDelete, "/api/files/"+file.ID, nil, principalOf(other))
	c.Params = gin.Params{{Key: "id", Value: file.ID}}
	handler.Delete(c)
	suite.Equal(http.StatusForbidden, w.Code)

	c, w = suite.createAuthContext(http.MethodDelete, "/api/files/"+file.ID, nil, principalOf(uploader))
	c.Params = gin.Params{{Key: "id", Value: file.ID}}
	handler.Delete(c)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(int64(0), suite.countRows(&models.FileAttachment{}))
}

func (suite *HandlerTestSuite) countDownloadEntries() int64 {
	var n int64
	suite.Require().NoError(suite.db.Model(&models.ActivityLog{}).Where("action = ?", models.ActivityDownload).Count(&n).Error)
	return n
}
