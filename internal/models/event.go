package models

import "github.com/google/uuid"

const EventDeleteProfile = "DELETE_PROFILE"

// DeletionEvent is published to downstream services when an account is removed.
type DeletionEvent struct {
	Event string            `json:"event"`
	Data  DeletionEventData `json:"data"`
}

// DeletionEventData carries the removed account id under "userId", the key the
// shopping service consumes, rather than "accountId".
type DeletionEventData struct {
	AccountID uuid.UUID `json:"userId"`
}

func NewDeletionEvent(accountID uuid.UUID) DeletionEvent {
	return DeletionEvent{
		Event: EventDeleteProfile,
		Data:  DeletionEventData{AccountID: accountID},
	}
}
