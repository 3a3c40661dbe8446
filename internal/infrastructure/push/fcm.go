package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"

	"TragedyWatch/internal/ports"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

	// DefaultTopic is the single broadcast channel subscribers listen on.
	DefaultTopic = "tragedies"

	alertTitle = "Tragedy detected!"
	alertType  = "tragedy_alert"
)

// ErrNotifierDisabled is returned by Disabled.Send.
var ErrNotifierDisabled = errors.New("push notifier disabled: no firebase credentials")

// FCMNotifier publishes one topic message per detected tragedy through the
// Firebase Cloud Messaging HTTP v1 API.
type FCMNotifier struct {
	service   *fcm.Service
	projectID string
	topic     string
	logger    *slog.Logger
}

var _ ports.Notifier = (*FCMNotifier)(nil)

// NewFCMNotifier wraps an initialised FCM service.
func NewFCMNotifier(service *fcm.Service, projectID, topic string, logger *slog.Logger) *FCMNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger != nil {
		logger = logger.With("component", "push", "topic", topic)
	}
	return &FCMNotifier{service: service, projectID: projectID, topic: topic, logger: logger}
}

// NewFromCredentialsFile loads a service-account JSON file and builds an
// authenticated notifier for the project it names.
func NewFromCredentialsFile(ctx context.Context, path, topic string, logger *slog.Logger) (*FCMNotifier, error) {
	if path == "" {
		return nil, ErrNotifierDisabled
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read firebase credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("parse firebase credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return nil, fmt.Errorf("firebase credentials %s carry no project_id", path)
	}

	service, err := fcm.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("create fcm service: %w", err)
	}

	return NewFCMNotifier(service, creds.ProjectID, topic, logger), nil
}

// Send publishes the alert for one article and returns the FCM message name.
func (n *FCMNotifier) Send(ctx context.Context, title, url string) (string, error) {
	req := &fcm.SendMessageRequest{Message: BuildMessage(n.topic, title, url)}

	msg, err := n.service.Projects.Messages.Send("projects/"+n.projectID, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("fcm send: %w", err)
	}

	if n.logger != nil {
		n.logger.Debug("push delivered", "url", url, "message", msg.Name)
	}
	return msg.Name, nil
}

// BuildMessage renders the topic message for a detected article.
func BuildMessage(topic, title, url string) *fcm.Message {
	return &fcm.Message{
		Topic: topic,
		Notification: &fcm.Notification{
			Title: alertTitle,
			Body:  fmt.Sprintf("\"%s\" — Don't forget to read it!", title),
		},
		Data: map[string]string{
			"url":  url,
			"type": alertType,
		},
	}
}

// Disabled stands in when no credentials are configured.
type Disabled struct{}

var _ ports.Notifier = Disabled{}

// Send always fails with ErrNotifierDisabled.
func (Disabled) Send(context.Context, string, string) (string, error) {
	return "", ErrNotifierDisabled
}
