// Package domain contains core concepts of the chat system.
// This file defines Rooms and the Membership relation binding users to them.
package domain

import (
	"slices"
	"time"
)

type RoomID int64

type RoomType string

const (
	DirectRoom RoomType = "direct"
	GroupRoom  RoomType = "group"
)

// MinGroupMembers counts the creator.
const MinGroupMembers = 3

type Room struct {
	ID        RoomID
	Type      RoomType
	Title     string
	CreatedAt time.Time
}

func (r Room) IsDirect() bool {
	return r.Type == DirectRoom
}

// Membership is unique per (RoomID, UserID) and is never hard-deleted.
// A hidden membership receives no fan-out until it is reactivated.
type Membership struct {
	RoomID    RoomID
	UserID    UserID
	JoinedAt  time.Time
	Hidden    bool
	ClearedAt *time.Time
}

func (m Membership) Active() bool {
	return !m.Hidden
}

// Sees reports whether a message created at the given time lies after the
// member's visibility horizon.
func (m Membership) Sees(createdAt time.Time) bool {
	return m.ClearedAt == nil || createdAt.After(*m.ClearedAt)
}

// Reactivate makes the membership visible again with a fresh horizon.
func (m Membership) Reactivate(at time.Time) Membership {
	m.Hidden = false
	m.ClearedAt = &at
	return m
}

// DirectPair orders two user ids so a direct room has a single lookup key.
func DirectPair(a, b UserID) (UserID, UserID) {
	if a > b {
		return b, a
	}
	return a, b
}

// GroupMembers returns the distinct member set of a group, creator first.
func GroupMembers(creator UserID, invited []UserID) []UserID {
	members := []UserID{creator}
	for _, id := range invited {
		if !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	return members
}
