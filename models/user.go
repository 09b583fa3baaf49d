package models

// UserRole mirrors the role claim issued by the external auth service.
// The engine never manages accounts; it only reads the claim for
// route-level authorization.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleHost   UserRole = "host"
	RoleJudge  UserRole = "judge"
	RolePlayer UserRole = "player"
)
