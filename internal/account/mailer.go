// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package account

import (
	"context"

	"github.com/pdiddy/parchment/internal/logging"
)

// Mail is a message carrying a single-use code.
type Mail struct {
	To      string
	Subject string
	Purpose Purpose
	Code    string
}

// Mailer delivers account mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// LogMailer writes mail to the log instead of sending it. It suits a local
// install where the user reads the code from the terminal.
type LogMailer struct {
	Log logging.Logger
}

func (m LogMailer) Send(ctx context.Context, mail Mail) error {
	log := m.Log
	if log == nil {
		log = logging.Discard()
	}
	log.Info(ctx, mail.Subject, "to", mail.To, "purpose", string(mail.Purpose), "code", mail.Code)
	return nil
}
