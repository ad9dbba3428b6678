package services

import (
	"context"
	"strings"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
)

const maxContactMessageLen = 5000

type ContactStore interface {
	Create(ctx context.Context, m *models.ContactMessage) error
}

type ContactMailer interface {
	SendContactNotification(msg *models.ContactMessage) error
}

type ContactService struct {
	store  ContactStore
	mailer ContactMailer
}

func NewContactService(store ContactStore, mailer ContactMailer) *ContactService {
	return &ContactService{store: store, mailer: mailer}
}

// Submit stores the message and forwards it to the support inbox in the
// background.
func (s *ContactService) Submit(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}

	fieldErrors := make(map[string]string)
	if msg.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !emailRegex.MatchString(msg.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if msg.Subject == "" {
		fieldErrors["subject"] = "Subject is required"
	}
	if msg.Message == "" {
		fieldErrors["message"] = "Message is required"
	} else if len(msg.Message) > maxContactMessageLen {
		fieldErrors["message"] = "Message must be at most 5000 characters"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if err := s.store.Create(ctx, msg); err != nil {
		return nil, err
	}

	go func(m models.ContactMessage) {
		if err := s.mailer.SendContactNotification(&m); err != nil {
			logger.Log.Errorf("contact: failed to notify support for %s: %v", m.ID, err)
		}
	}(*msg)

	return msg, nil
}
