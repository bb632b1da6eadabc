package models

import "time"

// GroupUUID is the canonical identifier for a group.
type GroupUUID string

func (u GroupUUID) String() string {
	return string(u)
}

// Group represents an access-control group in the directory
type Group struct {
	UUID         GroupUUID `json:"uuid" db:"uuid"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	OwnerUUID    GroupUUID `json:"owner_uuid,omitempty" db:"owner_uuid"`
	VisibleToAll bool      `json:"visible_to_all" db:"visible_to_all"`
	CreatedAt    time.Time `json:"created_at,omitempty" db:"created_at"`

	// Populated on demand, not by every lookup
	Members   []AccountID `json:"members,omitempty" db:"-"`
	Subgroups []GroupUUID `json:"subgroups,omitempty" db:"-"`
}

// GroupReference is the lightweight uuid/name pair returned by suggestion
// lookups.
type GroupReference struct {
	UUID GroupUUID `json:"uuid" db:"uuid"`
	Name string    `json:"name" db:"name"`
}
