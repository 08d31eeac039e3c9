package email

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	log "github.com/sirupsen/logrus"
)

type EmailPurpose string
type EmailBodyType string

const (
	KeyEmailSMTPServer                        = "smtp.gmail.com"
	KeyEmailSMTPPort                          = 587
	KeyEmailFrom                              = "From"
	KeyEmailTo                                = "To"
	KeyEmailSubject                           = "Subject"
	KeyEmailBodyPlain           EmailBodyType = "text/plain"
	PurposeJobFailure           EmailPurpose  = "job failure"
	PurposePoolShortfall        EmailPurpose  = "problem pool shortfall"
	defaultEmailChannelCapacity               = 100
)

type EmailRequest struct {
	To       []string
	Subject  string
	Body     string
	BodyType EmailBodyType
	Purpose  EmailPurpose
}

type emailJob struct {
	EmailRequest
	from string
}

var (
	emailChan   chan emailJob
	senderMail  string
	senderMutex sync.RWMutex
)

// EmailService mails operational alerts to the configured recipients.
type EmailService struct {
	AlertRecipients []string
	logger          *log.Entry
}

func (e *EmailService) Start() {
	e.logger = log.WithField("from", "email service")
	if len(e.AlertRecipients) == 0 {
		e.logger.Warn("no alert recipients configured, alerts will only be logged")
	}
}

// this function can be made better by accepting all arguments as EmailRequest
// but it mirrors how callers build one-off mails
func NewMail(
	ctx context.Context,
	subject string,
	body string,
	bodyType EmailBodyType,
	purpose EmailPurpose,
	to ...string,
) error {
	senderMutex.RLock()
	fromMail, queue := senderMail, emailChan
	senderMutex.RUnlock()

	if fromMail == "" || queue == nil {
		log.Error("sender email is not configured")
		return potd_errors.ErrEmailServiceStopped
	}
	if len(to) == 0 {
		return fmt.Errorf("%w, mail has no recipients", potd_errors.ErrInvalidRequest)
	}

	job := emailJob{
		from: fromMail,
		EmailRequest: EmailRequest{
			To:       to,
			Subject:  subject,
			Body:     body,
			BodyType: bodyType,
			Purpose:  purpose,
		},
	}
	// when all the workers are dead, it shouldn't block indefinetely
	select {
	case <-ctx.Done():
		log.Errorf("email job cancelled: %v", ctx.Err())
		return errors.Join(potd_errors.ErrEmailServiceStopped, ctx.Err())

	case queue <- job:
		return nil
	}
}

func (e *EmailService) MailAlert(ctx context.Context, req EmailRequest) error {
	if e.logger == nil {
		e.Start()
	}
	if len(e.AlertRecipients) == 0 {
		e.logger.WithField("purpose", req.Purpose).Warnf("alert not mailed: %s", req.Subject)
		return nil
	}

	err := NewMail(
		ctx,
		req.Subject,
		req.Body,
		req.BodyType,
		req.Purpose,
		e.AlertRecipients...,
	)
	if err != nil {
		e.logger.Errorf("cannot queue alert mail for %v purpose, %v", req.Purpose, err)
		return err
	}
	e.logger.Infof("sent alert mail for %v purpose", req.Purpose)
	return nil
}
