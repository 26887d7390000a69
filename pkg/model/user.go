package model

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
	RoleGuide    Role = "guide"
)

// IsStaff reports whether the role belongs to back-office staff.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleManager || r == RoleAdmin
}

// CanManage reports whether the role may perform manager-level
// mutations (soft deletes, restores, journey creation).
func (r Role) CanManage() bool {
	return r == RoleManager || r == RoleAdmin
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleManager, RoleAdmin, RoleGuide:
		return true
	}
	return false
}

type User struct {
	ID    string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Role  Role   `json:"role" bson:"role" validate:"required,oneof=customer agent manager admin guide"`

	Meta Meta `json:"meta" bson:"meta"`
}

// UserPatch carries the user attributes staff may change.
type UserPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role  *Role   `json:"role,omitempty" validate:"omitempty,oneof=customer agent manager admin guide"`
}
