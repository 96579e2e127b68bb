package domain

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"
)

type User struct {
	ID        int32    `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	PushToken string   `json:"-"`
}

// Caller identifies who is invoking an operation.
type Caller struct {
	UserID int32
	Role   UserRole
}

func (c Caller) IsAdmin() bool {
	return c.Role == UserRoleAdmin
}
