package services

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
)

// Pusher delivers a short alert to devices. It returns the tokens the push service reported as gone.
type Pusher interface {
	Push(ctx context.Context, tokens []string, title, body string, data map[string]string) (stale []string, err error)
}

// FCMPusher sends alerts through Firebase Cloud Messaging
type FCMPusher struct {
	client *messaging.Client
}

// NewFCMPusher creates a new FCMPusher
func NewFCMPusher(client *messaging.Client) *FCMPusher {
	return &FCMPusher{client: client}
}

func (p *FCMPusher) Push(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return nil, errors.Wrap(err, "send push")
	}
	var stale []string
	for i, r := range resp.Responses {
		if !r.Success && messaging.IsUnregistered(r.Error) {
			stale = append(stale, tokens[i])
		}
	}
	return stale, nil
}
