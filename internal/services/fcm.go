package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"firesafety-backend/internal/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Notifier sends inspection alerts. A nil Notifier means alerts are off.
type Notifier interface {
	NotifyInspectionAlert(ctx context.Context, data *models.AppData, record *models.InspectionRecord) error
}

// multicastSender is the slice of *messaging.Client the service uses.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client multicastSender
}

// NewFCMService builds the service from a credentials file or base64 JSON.
// It returns nil, nil when neither is configured.
func NewFCMService(ctx context.Context, credentialsFile, credentialsBase64 string) (*FCMService, error) {
	var opt option.ClientOption
	switch {
	case credentialsBase64 != "":
		raw, err := base64.StdEncoding.DecodeString(credentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(raw)
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
	default:
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	return &FCMService{client: client}, nil
}

// AlertRecipients returns the device tokens of the technician assigned to
// the inspected unit's customer. Assignment is by technician name on the
// customer; names that match no registered user get nothing.
func AlertRecipients(data *models.AppData, record *models.InspectionRecord) (string, []string) {
	settings := data.NotificationSettings
	if settings == nil || !settings.Enabled {
		return "", nil
	}
	unit, _ := data.FindExtinguisher(record.ExtinguisherID)
	if unit == nil {
		return "", nil
	}
	customer, _ := data.FindCustomer(unit.CustomerID)
	if customer == nil || customer.ExtTech == "" {
		return "", nil
	}
	for i := range data.RegisteredUsers {
		u := &data.RegisteredUsers[i]
		if strings.EqualFold(u.FullName(), customer.ExtTech) {
			return u.TechnicianID, settings.DeviceTokens[u.TechnicianID]
		}
	}
	return "", nil
}

// NotifyInspectionAlert pushes a failed or critical inspection to the
// assigned technician's devices.
func (s *FCMService) NotifyInspectionAlert(ctx context.Context, data *models.AppData, record *models.InspectionRecord) error {
	if s == nil || s.client == nil {
		return errors.New("fcm service not initialized")
	}
	techID, tokens := AlertRecipients(data, record)
	if len(tokens) == 0 {
		log.Debug().Str("extinguisher_id", record.ExtinguisherID).Msg("🔕 no device tokens for inspection alert")
		return nil
	}

	unit, _ := data.FindExtinguisher(record.ExtinguisherID)
	title := "Inspection failed"
	if record.Severity == models.SeverityCritical {
		title = "Critical inspection result"
	}
	body := fmt.Sprintf("Unit %s at %s: %s", unit.UnitNumber, data.CustomerName(unit.CustomerID), unit.Location)

	return s.SendMulticast(ctx, tokens, title, body, map[string]string{
		"type":            "inspection_alert",
		"record_id":       record.ID,
		"extinguisher_id": record.ExtinguisherID,
		"severity":        record.Severity,
		"technician_id":   techID,
	})
}

// SendMulticast sends the same message to multiple tokens
func (s *FCMService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	log.Info().
		Int("success", response.SuccessCount).
		Int("failure", response.FailureCount).
		Msg("📲 multicast sent")
	return nil
}
