package models

// Message is one entry of the append-only direct message log
type Message struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID     string `json:"sender_id" gorm:"type:varchar(128);index:idx_message_pair"`
	ReceiverID   string `json:"receiver_id" gorm:"type:varchar(128);index:idx_message_pair;index"`
	Body         string `json:"body" gorm:"type:text"`
	SentAtMillis int64  `json:"sent_at_millis" gorm:"index"`
	Read         bool   `json:"read" gorm:"default:false;index"`
}

// SendMessageRequest defines the request body for sending a direct message
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}
