package entity

// Roles válidos en los claims del token.
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleBorrower = "borrower"
)
