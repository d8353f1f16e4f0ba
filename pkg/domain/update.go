package domain

// Subsystem is a bit set of downstream modules notified about an update.
type Subsystem int64

// AllSubsystems addresses every downstream module.
const AllSubsystems Subsystem = 1<<31 - 1

// UpdateRequest is one entity write sent to the backing store.
type UpdateRequest struct {
	Entity     *Entity
	Ticket     string
	Op         Op
	EventID    string
	Source     string
	Subsystems Subsystem
}

// UpdateResult is the store's answer to an UpdateRequest.
type UpdateResult struct {
	Status ResultCode
	OpID   int64
}
