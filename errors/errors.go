package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUnauthenticated    = fmt.Errorf("authentication required")
	ErrTokenExpired       = fmt.Errorf("token expired")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrMissingFields      = fmt.Errorf("room id and content are required")
	ErrInvalidMessageType = fmt.Errorf("unsupported message type")
	ErrNotAMember         = fmt.Errorf("not a member of this room")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrInvalidRoom        = fmt.Errorf("invalid room")
	ErrPersistence        = fmt.Errorf("message could not be saved")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrUnknownEvent       = fmt.Errorf("unknown event")
	ErrConnectionClosed   = fmt.Errorf("connection closed")
	ErrBufferFull         = fmt.Errorf("connection buffer exceeded")
	ErrSequencerStopped   = fmt.Errorf("room sequencer stopped")
)

// clientFacing lists the errors whose text may be shown to a connected client as is.
var clientFacing = []error{
	ErrUnauthenticated,
	ErrTokenExpired,
	ErrInvalidToken,
	ErrMissingFields,
	ErrInvalidMessageType,
	ErrNotAMember,
	ErrRoomNotFound,
	ErrMessageNotFound,
	ErrInvalidRoom,
	ErrPersistence,
	ErrInvalidPayload,
	ErrUnknownEvent,
	ErrUserNotFound,
}

// ClientMessage returns the text carried by an outbound error event.
// Unknown errors never leak their details.
func ClientMessage(err error) string {
	for _, known := range clientFacing {
		if stderrors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrPersistence.Error()
}
