package email

import (
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// StartEmailWorkers starts n goroutines delivering queued mails over smtp.
// An empty sender leaves the service stopped.
func StartEmailWorkers(n int, sender, password string) {
	if sender == "" {
		log.Warn("sender email is not configured, email workers not started")
		return
	}

	senderMutex.Lock()
	senderMail = sender
	if emailChan == nil {
		emailChan = make(chan emailJob, defaultEmailChannelCapacity)
	}
	queue := emailChan
	senderMutex.Unlock()

	dialer := gomail.NewDialer(KeyEmailSMTPServer, KeyEmailSMTPPort, sender, password)
	for i := range n {
		log.Infof("starting email worker %d", i)
		go emailWorker(i, queue, dialer)
	}
}

func emailWorker(id int, queue <-chan emailJob, dialer *gomail.Dialer) {
	logger := log.WithField("email_worker", id)
	for job := range queue {
		if err := dialer.DialAndSend(buildMessage(job)); err != nil {
			logger.WithField("purpose", job.Purpose).Errorf("cannot send mail, %v", err)
			continue
		}
		logger.Debugf("mail sent to %v", job.To)
	}
}

func buildMessage(job emailJob) *gomail.Message {
	bodyType := job.BodyType
	if bodyType == "" {
		bodyType = KeyEmailBodyPlain
	}

	m := gomail.NewMessage()
	m.SetHeader(KeyEmailFrom, job.from)
	m.SetHeader(KeyEmailTo, job.To...)
	m.SetHeader(KeyEmailSubject, job.Subject)
	m.SetBody(string(bodyType), job.Body)
	return m
}
