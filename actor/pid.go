// File: actor/pid.go
package actor

// PID is a unique reference to a live actor process. Its ID doubles as the
// actor's symbolic name when the actor was spawned with one.
type PID struct {
	ID string
}

// String returns the string representation of the PID.
func (pid *PID) String() string {
	if pid == nil {
		return "<nil>"
	}
	return pid.ID
}
