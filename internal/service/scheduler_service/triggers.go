package scheduler_service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/sirupsen/logrus"
)

// Schedule is a wall clock time in UTC, every day or on one weekday.
type Schedule struct {
	Hour    int
	Minute  int
	Weekday *time.Weekday
}

// ParseSchedule accepts "HH:MM" for a daily run or "Sun HH:MM" for a weekly one.
func ParseSchedule(value string) (Schedule, error) {
	fields := strings.Fields(value)
	var schedule Schedule
	switch len(fields) {
	case 1:
	case 2:
		weekday, err := parseWeekday(fields[0])
		if err != nil {
			return Schedule{}, err
		}
		schedule.Weekday = &weekday
		fields = fields[1:]
	default:
		return Schedule{}, fmt.Errorf("%w, invalid schedule %q", potd_errors.ErrInvalidInput, value)
	}

	hour, minute, ok := strings.Cut(fields[0], ":")
	if !ok {
		return Schedule{}, fmt.Errorf("%w, invalid time of day %q", potd_errors.ErrInvalidInput, fields[0])
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return Schedule{}, fmt.Errorf("%w, invalid hour in %q", potd_errors.ErrInvalidInput, value)
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return Schedule{}, fmt.Errorf("%w, invalid minute in %q", potd_errors.ErrInvalidInput, value)
	}
	schedule.Hour, schedule.Minute = h, m
	return schedule, nil
}

func parseWeekday(value string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(value, name) || strings.EqualFold(value, name[:3]) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w, invalid weekday %q", potd_errors.ErrInvalidInput, value)
}

// Next returns the first trigger strictly after now.
func (sc Schedule) Next(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), sc.Hour, sc.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	if sc.Weekday != nil {
		for next.Weekday() != *sc.Weekday {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}

func (sc Schedule) String() string {
	if sc.Weekday != nil {
		return fmt.Sprintf("%s %02d:%02d UTC", sc.Weekday.String()[:3], sc.Hour, sc.Minute)
	}
	return fmt.Sprintf("%02d:%02d UTC", sc.Hour, sc.Minute)
}

// RunAt queues req every time the schedule fires until the scheduler stops.
func (s *Scheduler) RunAt(schedule Schedule, req TaskRequest) error {
	if err := validateTaskRequest(req); err != nil {
		return err
	}
	if s.rootCtx == nil {
		return fmt.Errorf("%w, scheduler is not started", potd_errors.ErrTaskLaunchError)
	}

	logger := logrus.WithFields(logrus.Fields{
		"task_name": req.Name,
		"schedule":  schedule.String(),
	})
	logger.Info("registered periodic task")

	go func() {
		for {
			next := schedule.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-s.rootCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			if _, err := s.ScheduleTask(req); err != nil {
				logger.Errorf("cannot queue periodic task, %v", err)
			}
		}
	}()
	return nil
}
