package services

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

type IRoomService interface {
	CreateDirect(ctx context.Context, creator domain.User, otherID domain.UserID) (domain.Room, error)
	CreateGroup(ctx context.Context, creator domain.User, title string, invited []domain.UserID) (domain.Room, error)
	Leave(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error
	List(ctx context.Context, userID domain.UserID) ([]RoomSummary, error)
	Get(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (RoomDetail, error)
}

// RoomSummary is one line of a user's room list. A direct room is shown
// under the nickname and image of the other member.
type RoomSummary struct {
	ID            domain.RoomID   `json:"id"`
	Type          domain.RoomType `json:"type"`
	Title         string          `json:"title,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	DisplayName   string          `json:"displayName"`
	DisplayImage  *string         `json:"displayImage"`
	MemberCount   int             `json:"memberCount"`
	LastMessage   *string         `json:"lastMessage"`
	LastMessageAt *time.Time      `json:"lastMessageTime"`
	UnreadCount   int             `json:"unreadCount"`
}

type RoomMember struct {
	domain.Sender
	JoinedAt time.Time `json:"joinedAt"`
}

type RoomDetail struct {
	ID          domain.RoomID   `json:"id"`
	Type        domain.RoomType `json:"type"`
	Title       string          `json:"title,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	DisplayName string          `json:"displayName"`
	Members     []RoomMember    `json:"members"`
}

type RoomService struct {
	log         *slog.Logger
	users       repositories.IUserRepository
	rooms       repositories.IRoomRepository
	memberships repositories.IMembershipRepository
	messages    repositories.IMessageRepository
	registry    contract.IRegistry
	now         func() time.Time
}

func NewRoomService(log *slog.Logger, repos repositories.Repositories, registry contract.IRegistry) *RoomService {
	return &RoomService{
		log:         log,
		users:       repos.Users,
		rooms:       repos.Rooms,
		memberships: repos.Memberships,
		messages:    repos.Messages,
		registry:    registry,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateDirect returns the direct room shared by the two users, creating it
// when it does not exist yet. A creator who had left the room gets it back
// with a fresh horizon.
func (s *RoomService) CreateDirect(ctx context.Context, creator domain.User, otherID domain.UserID) (domain.Room, error) {
	if otherID == 0 || otherID == creator.ID {
		return domain.Room{}, fmt.Errorf("%w: cannot open a direct room with yourself", errors.ErrInvalidRoom)
	}
	if _, err := s.users.GetUser(ctx, otherID); err != nil {
		return domain.Room{}, err
	}

	room, found, err := s.rooms.FindDirectRoom(ctx, creator.ID, otherID)
	if err != nil {
		return domain.Room{}, err
	}
	if found {
		return room, s.rejoin(ctx, room.ID, creator.ID)
	}

	room, err = s.rooms.CreateRoom(ctx, domain.Room{Type: domain.DirectRoom}, []domain.UserID{creator.ID, otherID}, nil)
	if err != nil {
		return domain.Room{}, err
	}
	s.registry.Subscribe(creator.ID, room.ID)
	s.registry.ForceSubscribe(ctx, otherID, room.ID)
	s.log.Info("Direct room created", "room_id", room.ID, "creator_id", creator.ID, "other_id", otherID)
	return room, nil
}

func (s *RoomService) rejoin(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	membership, found, err := s.memberships.FindMembership(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if found && membership.Active() {
		return nil
	}
	if !found {
		membership = domain.Membership{RoomID: roomID, UserID: userID}
	}
	if err = s.memberships.UpsertMembership(ctx, membership.Reactivate(s.now())); err != nil {
		return err
	}
	s.registry.Subscribe(userID, roomID)
	return nil
}

// CreateGroup creates a titled room with the creator and the invited users
// and opens it with a system message naming who was invited. Members with a
// live handle are joined to the room immediately.
func (s *RoomService) CreateGroup(ctx context.Context, creator domain.User, title string, invited []domain.UserID) (domain.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Room{}, fmt.Errorf("%w: title is required", errors.ErrInvalidPayload)
	}
	members := domain.GroupMembers(creator.ID, invited)
	if len(members) < domain.MinGroupMembers {
		return domain.Room{}, fmt.Errorf("%w: a group needs at least %d members", errors.ErrInvalidRoom, domain.MinGroupMembers)
	}

	guests := make([]domain.User, 0, len(members)-1)
	for _, userID := range members[1:] {
		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return domain.Room{}, err
		}
		guests = append(guests, user)
	}

	opening := domain.Message{
		SenderID: creator.ID,
		Type:     domain.SystemMessage,
		Content: domain.InvitationText(creator.Nickname, lo.Map(guests, func(u domain.User, _ int) string {
			return u.Nickname
		})),
	}
	room, err := s.rooms.CreateRoom(ctx, domain.Room{Type: domain.GroupRoom, Title: title}, members, &opening)
	if err != nil {
		return domain.Room{}, err
	}

	s.registry.Subscribe(creator.ID, room.ID)
	for _, guest := range guests {
		s.registry.ForceSubscribe(ctx, guest.ID, room.ID)
	}
	s.log.Info("Group room created", "room_id", room.ID, "creator_id", creator.ID, "members", len(members))
	return room, nil
}

// Leave soft-leaves the room: the membership is hidden and the live handle
// stops receiving the room. A later message in the room brings it back.
func (s *RoomService) Leave(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error {
	if roomID == 0 {
		return fmt.Errorf("%w: roomId is required", errors.ErrInvalidPayload)
	}
	if err := s.memberships.Hide(ctx, roomID, userID); err != nil {
		return err
	}
	s.registry.Unsubscribe(userID, roomID)
	return nil
}

// List returns the rooms the user has not left, the most recently active
// first. Messages at or before the user's horizon neither show nor count as
// unread.
func (s *RoomService) List(ctx context.Context, userID domain.UserID) ([]RoomSummary, error) {
	roomIDs, err := s.memberships.ListActiveRoomsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]RoomSummary, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		summary, err := s.summarize(ctx, userID, roomID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	slices.SortStableFunc(summaries, byRecentActivity)
	return summaries, nil
}

func (s *RoomService) summarize(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (RoomSummary, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return RoomSummary{}, err
	}
	members, err := s.memberships.ListMembers(ctx, roomID)
	if err != nil {
		return RoomSummary{}, err
	}
	var horizon *time.Time
	if self, ok := lo.Find(members, func(m domain.Membership) bool { return m.UserID == userID }); ok {
		horizon = self.ClearedAt
	}
	activity, err := s.messages.RoomActivity(ctx, roomID, userID, horizon)
	if err != nil {
		return RoomSummary{}, err
	}

	summary := RoomSummary{
		ID:          room.ID,
		Type:        room.Type,
		Title:       room.Title,
		CreatedAt:   room.CreatedAt,
		DisplayName: room.Title,
		MemberCount: len(members),
		UnreadCount: activity.Unread,
	}
	if room.IsDirect() {
		if other, ok := lo.Find(members, func(m domain.Membership) bool { return m.UserID != userID }); ok {
			user, err := s.users.GetUser(ctx, other.UserID)
			if err != nil {
				return RoomSummary{}, err
			}
			summary.DisplayName, summary.DisplayImage = user.Nickname, user.ProfileImage
		}
	}
	if activity.Last != nil {
		summary.LastMessage = &activity.Last.Content
		summary.LastMessageAt = &activity.Last.CreatedAt
	}
	return summary, nil
}

// byRecentActivity orders rooms by last message, newest first, rooms without
// messages last and by creation time.
func byRecentActivity(a, b RoomSummary) int {
	switch {
	case a.LastMessageAt != nil && b.LastMessageAt != nil:
		if c := b.LastMessageAt.Compare(*a.LastMessageAt); c != 0 {
			return c
		}
	case a.LastMessageAt != nil:
		return -1
	case b.LastMessageAt != nil:
		return 1
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

// Get describes a room to one of its members, left or not, with every member
// in join order.
func (s *RoomService) Get(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (RoomDetail, error) {
	_, found, err := s.memberships.FindMembership(ctx, roomID, userID)
	if err != nil {
		return RoomDetail{}, err
	}
	if !found {
		return RoomDetail{}, errors.ErrNotAMember
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return RoomDetail{}, err
	}
	members, err := s.memberships.ListMembers(ctx, roomID)
	if err != nil {
		return RoomDetail{}, err
	}
	slices.SortStableFunc(members, func(a, b domain.Membership) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})

	detail := RoomDetail{
		ID:          room.ID,
		Type:        room.Type,
		Title:       room.Title,
		CreatedAt:   room.CreatedAt,
		DisplayName: room.Title,
		Members:     make([]RoomMember, 0, len(members)),
	}
	for _, member := range members {
		user, err := s.users.GetUser(ctx, member.UserID)
		if err != nil {
			return RoomDetail{}, err
		}
		detail.Members = append(detail.Members, RoomMember{Sender: user.Sender(), JoinedAt: member.JoinedAt})
		if room.IsDirect() && member.UserID != userID {
			detail.DisplayName = user.Nickname
		}
	}
	return detail, nil
}
