package services

import (
	"context"
	"testing"

	"firesafety-backend/internal/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*messaging.MulticastMessage
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.sent = append(f.sent, m)
	return &messaging.BatchResponse{SuccessCount: len(m.Tokens)}, nil
}

func alertData() *models.AppData {
	return &models.AppData{
		Customers:     []models.Customer{{ID: "c1", Name: "Harbor View", ExtTech: "alex morgan"}},
		Extinguishers: []models.Extinguisher{{ID: "e1", CustomerID: "c1", UnitNumber: "7", Location: "Lobby"}},
		RegisteredUsers: []models.RegisteredUser{
			{FirstName: "Alex", LastName: "Morgan", TechnicianID: "TECH-002"},
		},
		NotificationSettings: &models.NotificationSettings{
			Enabled:      true,
			DeviceTokens: map[string][]string{"TECH-002": {"tok-a", "tok-b"}},
		},
	}
}

func TestAlertRecipients(t *testing.T) {
	data := alertData()
	record := &models.InspectionRecord{ExtinguisherID: "e1"}

	techID, tokens := AlertRecipients(data, record)
	assert.Equal(t, "TECH-002", techID)
	assert.Equal(t, []string{"tok-a", "tok-b"}, tokens)

	data.NotificationSettings.Enabled = false
	_, tokens = AlertRecipients(data, record)
	assert.Empty(t, tokens)

	data.NotificationSettings.Enabled = true
	data.Customers[0].ExtTech = "Nobody"
	_, tokens = AlertRecipients(data, record)
	assert.Empty(t, tokens)
}

func TestNotifyInspectionAlert(t *testing.T) {
	sender := &fakeSender{}
	svc := &FCMService{client: sender}

	record := &models.InspectionRecord{ID: "r1", ExtinguisherID: "e1", Severity: models.SeverityCritical}
	require.NoError(t, svc.NotifyInspectionAlert(context.Background(), alertData(), record))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"tok-a", "tok-b"}, msg.Tokens)
	assert.Equal(t, "Critical inspection result", msg.Notification.Title)
	assert.Contains(t, msg.Notification.Body, "Unit 7 at Harbor View")
	assert.Equal(t, "inspection_alert", msg.Data["type"])

	// unknown unit: nothing sent, no error
	require.NoError(t, svc.NotifyInspectionAlert(context.Background(), alertData(), &models.InspectionRecord{ExtinguisherID: "gone"}))
	assert.Len(t, sender.sent, 1)
}

func TestNewFCMService_NoCredentials(t *testing.T) {
	svc, err := NewFCMService(context.Background(), "", "")
	require.NoError(t, err)
	assert.Nil(t, svc)

	_, err = NewFCMService(context.Background(), "", "not base64!")
	assert.Error(t, err)
}
