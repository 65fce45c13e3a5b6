package models

import "time"

// DeviceToken is a push target registered by a signed-in client
type DeviceToken struct {
	Token      string    `json:"token" gorm:"primaryKey;type:varchar(512)"`
	IdentityID string    `json:"identity_id" gorm:"type:varchar(128);index"`
	CreatedAt  time.Time `json:"created_at"`
}

// RegisterDeviceRequest defines the request body for registering a push token
type RegisterDeviceRequest struct {
	Token string `json:"token" validate:"required,max=512"`
}
