package schema

// UserPermissionTable represents the 'users.permission' table
type UserPermissionTable struct {
	Table     string
	ID        string
	Name      string
	Resource  string
	Action    string
	CreatedAt string
}

// UserPermission is the schema definition for users.permission
var UserPermission = UserPermissionTable{
	Table:     "users.permission",
	ID:        "id",
	Name:      "name",
	Resource:  "resource",
	Action:    "action",
	CreatedAt: "createdat",
}

// Columns returns the column list in scan order.
func (t UserPermissionTable) Columns() []string {
	return []string{t.ID, t.Name, t.Resource, t.Action}
}
