// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MaxUserLists is the number of lists a user may own.
const MaxUserLists = 5

// ListTag references a feed category from a user list. Only ID and Name are
// ever persisted.
type ListTag struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// UserList is a named grouping of category tags owned by one user.
type UserList struct {
	ID string `json:"id" yaml:"id"`

	// Name is unique per user, compared case-insensitively.
	Name string `json:"name" yaml:"name"`

	// Tags holds at least one category reference.
	Tags []ListTag `json:"tags" yaml:"tags"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ListForm is the input for creating or editing a list.
type ListForm struct {
	Name string    `json:"name" yaml:"name"`
	Tags []ListTag `json:"tags" yaml:"tags"`
}

// HasTag reports whether the form already contains a tag with id.
func (f ListForm) HasTag(id string) bool {
	for _, t := range f.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}
