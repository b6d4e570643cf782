package domain

import (
	"github.com/openshelf/openshelf-backend/internal/domain/collab"
	"github.com/openshelf/openshelf-backend/internal/domain/engagement"
	"github.com/openshelf/openshelf-backend/internal/domain/materials"
	"github.com/openshelf/openshelf-backend/internal/domain/user"
)

type User = user.User
type Profile = user.Profile
type UserToken = user.Token

type Material = materials.Material
type AccessRule = materials.AccessRule

type CollabRequest = collab.Request
type CollabInvitee = collab.Invitee
type PendingCollabEntry = collab.PendingEntry
type CollabRoster = collab.Roster
type RosterMember = collab.RosterMember

type Rating = engagement.Rating
type Comment = engagement.Comment
type ReadingListEntry = engagement.ReadingListEntry

const (
	RoleStudent = user.RoleStudent
	RoleFaculty = user.RoleFaculty

	CollabActionPending  = collab.ActionPending
	CollabActionAccepted = collab.ActionAccepted
	CollabActionRejected = collab.ActionRejected

	CollabStatusPending  = collab.StatusPending
	CollabStatusAccepted = collab.StatusAccepted
	CollabStatusRejected = collab.StatusRejected
)

var (
	OpenAccess      = materials.OpenAccess
	RestrictedTo    = materials.RestrictedTo
	ParseAccessRule = materials.ParseAccessRule

	NewInvitees       = collab.NewInvitees
	DeriveCollabState = collab.DeriveStatus
)
