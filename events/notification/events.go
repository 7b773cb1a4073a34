// Package notificationevents defines the topic and payload consumed by the
// notification delivery tier.
package notificationevents

import (
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
)

// DispatchRequestedV1 is published once per notification to dispatch.
const DispatchRequestedV1 = "notification.dispatch.requested.v1"

// Notification types understood by the delivery tier.
const (
	TypeMarkerInvite = "marker_invite"
	TypePlayerInvite = "player_invite"
)

// DispatchRequestedPayloadV1 is one notification to deliver. Payload is an
// opaque bag rendered by the delivery tier; this module never interprets it.
type DispatchRequestedPayloadV1 struct {
	Type        string               `json:"type"`
	RecipientID sharedtypes.PlayerID `json:"recipient_id"`
	Payload     map[string]any       `json:"payload"`
}
