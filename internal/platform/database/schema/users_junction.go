package schema

// JunctionTable describes a many-to-many link table.
type JunctionTable struct {
	Table    string
	OwnerID  string
	MemberID string
}

// UserAccountRole links accounts to the roles they hold.
var UserAccountRole = JunctionTable{
	Table:    "users.accountrole",
	OwnerID:  "accountid",
	MemberID: "roleid",
}

// UserRolePermission links roles to the permissions they grant.
var UserRolePermission = JunctionTable{
	Table:    "users.rolepermission",
	OwnerID:  "roleid",
	MemberID: "permissionid",
}
