package model

// User roles.
const (
	RoleWorker = "Worker"
	RoleDoctor = "Doctor"
)

// User is a registered account, stored under "User/<id>". Credentials and
// token issuance live in a separate auth service; this service only ever
// reads users to resolve worker assignments.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	AssignedVillage string `json:"assignedVillage,omitempty"`
}
