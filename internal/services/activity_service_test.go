package services

import (
	"github.com/yukikurage/tax-task-tracker/internal/models"
	"github.com/yukikurage/tax-task-tracker/internal/utils"
)

func (suite *ServiceTestSuite) TestAppendActivity() {
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	entry, err := suite.activity.Append(suite.ctx, suite.principal(ana), AppendInput{
		Action: "view_task", TaskID: "t-1", TaskTitle: "Submit VAT",
	})
	suite.Require().NoError(err)
	suite.NotZero(entry.ID)
	suite.Equal(ana.ID, entry.UserID)
	suite.Equal(ana.Email, entry.UserEmail)
	suite.False(entry.Timestamp.IsZero())
	suite.Equal([]models.ActivityKind{"view_task"}, suite.publisher.actions())

	_, err = suite.activity.Append(suite.ctx, suite.principal(ana), AppendInput{Action: "view_task", TaskID: "t-1"})
	suite.ErrorIs(err, ErrValidation)
}

func (suite *ServiceTestSuite) TestListActivity_ScopedByRole() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	for _, actor := range []*models.User{admin, ana, ana} {
		_, err := suite.activity.Append(suite.ctx, suite.principal(actor), AppendInput{
			Action: "view_task", TaskID: "t-1", TaskTitle: "Submit VAT",
		})
		suite.Require().NoError(err)
	}

	page := utils.PaginationParams{Page: 1, Limit: 50}
	all, total, err := suite.activity.List(suite.principal(admin), page)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(all, 3)

	own, total, err := suite.activity.List(suite.principal(ana), page)
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	for _, e := range own {
		suite.Equal(ana.ID, e.UserID)
	}

	firstPage, total, err := suite.activity.List(suite.principal(admin), utils.PaginationParams{Page: 1, Limit: 2})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(firstPage, 2)
}
