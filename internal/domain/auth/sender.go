package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// CodeSender delivers a sign-in code to its owner
type CodeSender interface {
	SendCode(ctx context.Context, id Identifier, code string, ttl time.Duration) error
}

// EmailCodeSender is the part of the email service used for sign-in codes
type EmailCodeSender interface {
	SendSignInCode(ctx context.Context, to, code string, expiresInMinutes int) error
}

// ChannelSender routes codes by identifier kind. Email goes through email when set.
// Anything else goes to the fallback, and fails when there is none.
type ChannelSender struct {
	email    EmailCodeSender
	fallback CodeSender
}

// NewChannelSender creates a sender; email may be nil. logCodes enables the
// log sender as fallback and must only be set in development.
func NewChannelSender(email EmailCodeSender, logCodes bool) *ChannelSender {
	s := &ChannelSender{email: email}
	if logCodes {
		s.fallback = LogSender{}
	}
	return s
}

// SendCode implements CodeSender
func (s *ChannelSender) SendCode(ctx context.Context, id Identifier, code string, ttl time.Duration) error {
	if id.Kind == KindEmail && s.email != nil {
		if err := s.email.SendSignInCode(ctx, id.Value, code, int(ttl.Minutes())); err != nil {
			return fmt.Errorf("send sign-in email: %w", err)
		}
		return nil
	}
	if s.fallback == nil {
		return ErrDeliveryUnavailable
	}
	return s.fallback.SendCode(ctx, id, code, ttl)
}

// LogSender writes codes to the log. Development only: anyone reading the
// log can sign in as the owner.
type LogSender struct{}

// SendCode implements CodeSender
func (LogSender) SendCode(ctx context.Context, id Identifier, code string, ttl time.Duration) error {
	log.Info().
		Str("channel", string(id.Kind)).
		Str("identifier", id.Masked()).
		Str("code", code).
		Dur("ttl", ttl).
		Msg("Sign-in code issued without delivery provider")
	return nil
}
