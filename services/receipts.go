package services

import (
	"chat-live/contract"
	"chat-live/domain"
	"chat-live/domain/event"
	"chat-live/errors"
	"chat-live/observability"
	"chat-live/repositories"
	"context"
	stderrors "errors"
	"log/slog"
	"time"
)

// ReceiptAggregator records read acknowledgements and publishes the new
// read count of a message to its room.
type ReceiptAggregator struct {
	log         *slog.Logger
	memberships repositories.IMembershipRepository
	messages    repositories.IMessageRepository
	fanout      contract.IFanout
	now         func() time.Time
}

func NewReceiptAggregator(log *slog.Logger, repos repositories.Repositories, fanout contract.IFanout) *ReceiptAggregator {
	return &ReceiptAggregator{
		log:         log,
		memberships: repos.Memberships,
		messages:    repos.Messages,
		fanout:      fanout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// MarkRead acknowledges one message on behalf of reader.
// Unknown messages, non members, the sender itself and repeated
// acknowledgements are silent no-ops.
func (a *ReceiptAggregator) MarkRead(ctx context.Context, reader domain.User, messageID domain.MessageID) error {
	message, err := a.messages.GetMessage(ctx, messageID)
	if stderrors.Is(err, errors.ErrMessageNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if message.SenderID == reader.ID {
		return nil
	}
	membership, found, err := a.memberships.FindMembership(ctx, message.RoomID, reader.ID)
	if err != nil {
		return err
	}
	if !found || !membership.Active() {
		return nil
	}

	inserted, err := a.messages.InsertReadReceipt(ctx, domain.ReadReceipt{
		MessageID: message.ID,
		UserID:    reader.ID,
		ReadAt:    a.now(),
	})
	if err != nil || !inserted {
		return err
	}
	observability.ReadReceipts.Inc()

	count, err := a.messages.CountReadReceipts(ctx, message.ID)
	if err != nil {
		return err
	}
	a.fanout.Broadcast(ctx, message.RoomID, event.MessageRead{
		MessageID: message.ID,
		ReadCount: count,
		ReadBy:    event.Reader{ID: reader.ID, Nickname: reader.Nickname},
	})
	return nil
}

// MarkAllRead acknowledges every message of the room written by someone else
// in one batch. No per message event is broadcast.
func (a *ReceiptAggregator) MarkAllRead(ctx context.Context, readerID domain.UserID, roomID domain.RoomID) (int, error) {
	membership, found, err := a.memberships.FindMembership(ctx, roomID, readerID)
	if err != nil {
		return 0, err
	}
	if !found || !membership.Active() {
		return 0, errors.ErrNotAMember
	}
	marked, err := a.messages.MarkAllRead(ctx, roomID, readerID, a.now())
	if err != nil {
		return 0, err
	}
	observability.ReadReceipts.Add(float64(marked))
	return marked, nil
}
