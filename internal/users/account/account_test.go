// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/users/account"
)

func TestRole_IsAdmin_ExactName(t *testing.T) {
	assert.True(t, account.Role{Name: "admin"}.IsAdmin())
	assert.False(t, account.Role{Name: "Admin"}.IsAdmin())
	assert.False(t, account.Role{Name: "administrator"}.IsAdmin())
}

func TestRole_Grants_CaseSensitive(t *testing.T) {
	role := account.Role{Permissions: []account.Permission{{Resource: "task", Action: "view"}}}

	assert.True(t, role.Grants("task", "view"))
	assert.False(t, role.Grants("Task", "view"))
	assert.False(t, role.Grants("task", "edit"))
}

func TestUser_Helpers(t *testing.T) {
	user := &account.User{Roles: []account.Role{{ID: "r1", Name: "teacher"}, {ID: "r2", Name: "admin"}}}

	assert.True(t, user.IsAdmin())
	assert.Equal(t, []string{"r1", "r2"}, user.RoleIDs())
	assert.False(t, (&account.User{}).IsAdmin())
	assert.Nil(t, (&account.User{}).RoleIDs())
}

func TestPermission_Validate(t *testing.T) {
	tests := []struct {
		permission account.Permission
		valid      bool
	}{
		{account.Permission{Name: "task:view", Resource: "task", Action: "view"}, true},
		{account.Permission{Name: "system:role:assign", Resource: "role", Action: "assign"}, true},
		{account.Permission{Name: "task:view", Resource: "task", Action: "edit"}, false},
		{account.Permission{Name: "Task:view", Resource: "task", Action: "view"}, false},
		{account.Permission{Name: "system:role:assign", Resource: "system", Action: "role"}, false},
		{account.Permission{Name: "task", Resource: "task", Action: ""}, false},
	}

	for _, tt := range tests {
		err := tt.permission.Validate()
		if tt.valid {
			assert.NoError(t, err, tt.permission.Name)
		} else {
			assert.True(t, apperr.IsValidation(err), tt.permission.Name)
		}
	}
}
