package core

// User is a chat participant as known to the presence directory.
// Identity is issued externally; ID is the stable key.
type User struct {
	ID          string
	DisplayName string
	Online      bool
}
