package realtime

import (
	"strings"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

// Topic names mirror the record paths the web client already knows.

func ProfileTopic(id string) string { return "users/" + id }

func CollectionTopic(kind models.ContentKind) string { return kind.Collection() }

func CommentsTopic(kind models.ContentKind, itemID string) string {
	return string(kind) + "Comments/" + itemID
}

func LikesTopic(kind models.ContentKind, itemID string) string {
	return string(kind) + "Likes/" + itemID
}

func NotificationsTopic(recipientID string) string { return "notifications/" + recipientID }

// ThreadTopic is the same for (a, b) and (b, a).
func ThreadTopic(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return "messages/" + a + "_" + b
}

// FeedTopics are the topics a feed of identityID depends on.
func FeedTopics(identityID string) []string {
	topics := []string{ProfileTopic(identityID)}
	for _, kind := range models.AllKinds {
		topics = append(topics, CollectionTopic(kind))
	}
	return topics
}
