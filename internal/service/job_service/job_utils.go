package job_service

import (
	"time"

	"github.com/sirupsen/logrus"
)

func (j *JobService) getLogger() *logrus.Entry {
	if j.logger == nil {
		j.logger = logrus.WithField("from", "jobs")
	}
	return j.logger
}

func (j *JobService) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JobService) timeout() time.Duration {
	if j.Timeout > 0 {
		return j.Timeout
	}
	return defaultJobTimeout
}
