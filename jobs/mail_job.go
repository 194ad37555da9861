package jobs

import "go.uber.org/zap"

// MailSender delivers one email. utils.SendMail satisfies it.
type MailSender func(to, subject, body string) error

// MailJob delivers a single notification. Failures are logged, never retried.
type MailJob struct {
	send    MailSender
	to      string
	subject string
	body    string
	logger  *zap.Logger
}

func NewMailJob(send MailSender, to, subject, body string, logger *zap.Logger) *MailJob {
	return &MailJob{send: send, to: to, subject: subject, body: body, logger: logger}
}

func (j *MailJob) Name() string { return "MailJob" }

func (j *MailJob) Run() {
	if j.send == nil {
		return
	}
	if err := j.send(j.to, j.subject, j.body); err != nil {
		j.logger.Warn("send mail failed", zap.String("to", j.to), zap.String("subject", j.subject), zap.Error(err))
	}
}
