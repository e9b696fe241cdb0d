package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/teachplan/internal/platform/database/schema"
)

func TestColumns_StableOrder(t *testing.T) {
	assert.Equal(t, []string{"id", "username", "email", "passwordhash", "isactive", "lastloginat", "createdat", "updatedat"},
		schema.UserAccount.Columns())
	assert.Equal(t, []string{"id", "name", "description"}, schema.UserRole.Columns())
	assert.Equal(t, []string{"id", "name", "resource", "action"}, schema.UserPermission.Columns())
}
