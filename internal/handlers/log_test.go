package handlers

import (
	"net/http"

	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/utils"
)

func (suite *HandlerTestSuite) TestAppendLog() {
	ana := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	handler := NewLogHandler(suite.activityService)

	body := suite.jsonBody(map[string]string{"action": "view_task", "taskId": "t-1", "taskTitle": "DAS"})
	c, w := suite.createAuthContext(http.MethodPost, "/api/logs", body, principalOf(ana))
	handler.AppendLog(c)

	suite.Require().Equal(http.StatusCreated, w.Code)
	var entry models.ActivityLog
	suite.decode(w, &entry)
	suite.NotZero(entry.ID)
	suite.Equal(ana.ID, entry.UserID)
	suite.Equal(models.ActivityKind("view_task"), entry.Action)

	body = suite.jsonBody(map[string]string{"action": "view_task"})
	c, w = suite.createAuthContext(http.MethodPost, "/api/logs", body, principalOf(ana))
	handler.AppendLog(c)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListLogs_Paginated() {
	admin := suite.createTestUser("chefe@escritorio.com", models.RoleAdmin)
	ana := suite.createTestUser("ana@escritorio.com", models.RoleStandard)
	suite.createTestTask("DAS", ana)
	suite.createTestTask("ISS", ana)
	handler := NewLogHandler(suite.activityService)

	c, w := suite.createAuthContext(http.MethodGet, "/api/logs?page=1&limit=1", nil, principalOf(admin))
	handler.ListLogs(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	var response struct {
		Logs       []models.ActivityLog     `json:"logs"`
		Pagination utils.PaginationResponse `json:"pagination"`
	}
	suite.decode(w, &response)
	suite.Len(response.Logs, 1)
	suite.Equal(int64(2), response.Pagination.Total)
	suite.Equal(1, response.Pagination.Limit)
	suite.Equal(2, response.Pagination.Pages)

	// The create_task entries belong to the acting administrator
	c, w = suite.createAuthContext(http.MethodGet, "/api/logs", nil, principalOf(ana))
	handler.ListLogs(c)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &response)
	suite.Empty(response.Logs)
	suite.Equal(int64(0), response.Pagination.Total)
}
