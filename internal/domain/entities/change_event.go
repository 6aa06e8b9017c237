package entities

import (
	"errors"
	"fmt"
	"time"
)

// Collection names a store collection
type Collection string

const (
	CollectionHospital Collection = "hospital"
	CollectionTests    Collection = "tests"
	CollectionResults  Collection = "results"
	CollectionAll      Collection = "all"
)

// ChangeAction is the kind of write that happened
type ChangeAction string

const (
	ChangeCreated  ChangeAction = "created"
	ChangeUpdated  ChangeAction = "updated"
	ChangeDeleted  ChangeAction = "deleted"
	ChangeCleared  ChangeAction = "cleared"
	ChangeImported ChangeAction = "imported"
)

// ChangeEvent announces a committed write to the store.
type ChangeEvent struct {
	ID         string       `json:"id"`
	Origin     string       `json:"origin"`
	Collection Collection   `json:"collection"`
	Action     ChangeAction `json:"action"`
	RecordID   int64        `json:"recordId,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Validate rejects events naming an unknown collection or action.
func (e *ChangeEvent) Validate() error {
	if e == nil {
		return errors.New("change event is nil")
	}
	switch e.Collection {
	case CollectionHospital, CollectionTests, CollectionResults, CollectionAll:
	default:
		return fmt.Errorf("unknown collection %q", e.Collection)
	}
	switch e.Action {
	case ChangeCreated, ChangeUpdated, ChangeDeleted, ChangeCleared, ChangeImported:
	default:
		return fmt.Errorf("unknown change action %q", e.Action)
	}
	return nil
}
