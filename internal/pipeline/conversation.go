package pipeline

import (
	"hash/fnv"
	"strconv"

	"notif_organizer/internal/model"
)

// Outbound notification constants.
const (
	GroupKey     = "notif_organizer.MESSAGE_GROUP"
	SummaryID    = 0
	SummaryTitle = "Organized Notifications"
	SummaryText  = "New messages"
)

// ConversationID derives the outbound id for a conversation so that repeated
// events from the same sender and source replace each other. The hash is not
// collision-resistant; collisions only merge two conversations. It never
// returns SummaryID.
func ConversationID(originalEventID int, sourceID, sender string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.Itoa(originalEventID) + sourceID + sender))
	id := int(int32(h.Sum32()))
	if id == SummaryID {
		return 1
	}
	return id
}

// Conversation builds the chat-style notification for an accepted entry.
func Conversation(e model.LogEntry, icon []byte, actionHandle string) model.Notification {
	return model.Notification{
		ID:           ConversationID(e.OriginalEventID, e.SourceID, e.SenderLabel),
		GroupKey:     GroupKey,
		Conversation: "Organized: " + e.SourceID,
		Title:        e.SenderLabel,
		Body:         e.MessageText,
		Icon:         icon,
		ActionHandle: actionHandle,
	}
}

// Summary builds the group header notification.
func Summary() model.Notification {
	return model.Notification{
		ID:        SummaryID,
		GroupKey:  GroupKey,
		Title:     SummaryTitle,
		Body:      SummaryText,
		IsSummary: true,
	}
}
