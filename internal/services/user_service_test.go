package services

import (
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

func (suite *ServiceTestSuite) TestDeleteUser_SelfDeletionRefused() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")

	err := suite.users.DeleteUser(suite.ctx, suite.principal(admin), admin.ID)
	suite.ErrorIs(err, auth.ErrSelfDeletion)
	suite.Equal(int64(1), suite.countRows(&models.User{}))
	suite.Equal(int64(0), suite.countRows(&models.ActivityLog{}))
}

func (suite *ServiceTestSuite) TestDeleteUser() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")
	beto := suite.createUser("beto@escritorio.com", models.RoleStandard, "secret1")

	suite.ErrorIs(suite.users.DeleteUser(suite.ctx, suite.principal(ana), beto.ID), auth.ErrForbidden)
	suite.ErrorIs(suite.users.DeleteUser(suite.ctx, suite.principal(ana), ana.ID), auth.ErrForbidden, "admin rule is checked before self-deletion")

	suite.Require().NoError(suite.users.DeleteUser(suite.ctx, suite.principal(admin), beto.ID))
	suite.ErrorIs(suite.users.DeleteUser(suite.ctx, suite.principal(admin), beto.ID), ErrUserNotFound)
	suite.Equal(int64(2), suite.countRows(&models.User{}))
}

func (suite *ServiceTestSuite) TestUpdateUser() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	name, role := "Ana Souza", "admin"
	updated, err := suite.users.UpdateUser(suite.ctx, suite.principal(admin), ana.ID, UpdateUserInput{DisplayName: &name, Role: &role})
	suite.Require().NoError(err)
	suite.Equal("Ana Souza", updated.DisplayName)
	suite.Equal(models.RoleAdmin, updated.Role)

	bad := "owner"
	_, err = suite.users.UpdateUser(suite.ctx, suite.principal(admin), ana.ID, UpdateUserInput{Role: &bad})
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.users.UpdateUser(suite.ctx, suite.principal(admin), "gone", UpdateUserInput{DisplayName: &name})
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = suite.users.UpdateUser(suite.ctx, suite.principal(ana), admin.ID, UpdateUserInput{DisplayName: &name})
	suite.ErrorIs(err, auth.ErrForbidden)
}

func (suite *ServiceTestSuite) TestListUsers() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	users, err := suite.users.ListUsers(suite.principal(admin))
	suite.Require().NoError(err)
	suite.Len(users, 2)

	_, err = suite.users.ListUsers(suite.principal(ana))
	suite.ErrorIs(err, auth.ErrForbidden)
}

func (suite *ServiceTestSuite) TestRosterChangesAreLogged() {
	admin := suite.createUser("chefe@escritorio.com", models.RoleAdmin, "secret1")
	ana := suite.createUser("ana@escritorio.com", models.RoleStandard, "secret1")

	role := "admin"
	_, err := suite.users.UpdateUser(suite.ctx, suite.principal(admin), ana.ID, UpdateUserInput{Role: &role})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.users.DeleteUser(suite.ctx, suite.principal(admin), ana.ID))

	var entries []models.ActivityLog
	suite.Require().NoError(suite.db.Order("id ASC").Find(&entries).Error)
	suite.Require().Len(entries, 2)
	for i, action := range []models.ActivityKind{models.ActivityUpdateUser, models.ActivityDeleteUser} {
		suite.Equal(action, entries[i].Action)
		suite.Equal(admin.ID, entries[i].UserID)
		suite.Equal(ana.ID, entries[i].TargetUserID)
		suite.Equal("ana@escritorio.com", entries[i].TargetEmail)
		suite.Empty(entries[i].TaskID)
	}
	suite.Equal([]models.ActivityKind{models.ActivityUpdateUser, models.ActivityDeleteUser}, suite.publisher.actions())

	// Refused changes leave no trace
	bad := "owner"
	_, err = suite.users.UpdateUser(suite.ctx, suite.principal(admin), admin.ID, UpdateUserInput{Role: &bad})
	suite.ErrorIs(err, ErrValidation)
	suite.ErrorIs(suite.users.DeleteUser(suite.ctx, suite.principal(admin), ana.ID), ErrUserNotFound)
	suite.Equal(int64(2), suite.countRows(&models.ActivityLog{}))
}
