package service

import (
	"context"
	"time"

	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
	"github.com/robfig/cron/v3"
)

// SessionsPurgedAtKey records the last successful session purge in the config store
const SessionsPurgedAtKey = "SESSIONS_PURGED_AT"

const jobTimeout = time.Minute

// PurgeResult is the outcome of one session purge run
type PurgeResult struct {
	Deleted  int64     `json:"deleted"`
	PurgedAt time.Time `json:"purged_at"`
}

// CronService runs the periodic housekeeping jobs
type CronService struct {
	c        *cron.Cron
	sessions *SessionService
	store    ConfigStore
	audit    Auditor
	schedule string
}

// NewCronService creates a new CronService. store and audit may be nil.
func NewCronService(sessions *SessionService, store ConfigStore, audit Auditor, schedule string) *CronService {
	return &CronService{
		c:        cron.New(),
		sessions: sessions,
		store:    store,
		audit:    audit,
		schedule: schedule,
	}
}

// Start starts the cron service
func (cs *CronService) Start() error {
	zaplogger.Info("Initializing CronService")

	// ------------------------------------------------------------
	// SCHEDULED jobs
	// ------------------------------------------------------------
	if err := cs.addScheduledJob("Expired Sessions PURGE Job", cs.sessionPurgeJob, cs.schedule); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// STARTUP jobs
	// ------------------------------------------------------------
	cs.addStartupJob("Expired Sessions PURGE Job", cs.sessionPurgeJob, 5*time.Second)

	cs.c.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (cs *CronService) Stop() {
	<-cs.c.Stop().Done()
}

// addStartupJob adds a startup job to the cron service
func (cs *CronService) addStartupJob(name string, job func(), delay time.Duration) {
	go func() {
		time.Sleep(delay)
		zaplogger.Info("STARTED STARTUP job", zaplogger.Fields{
			"job": name,
		})
		job()
		zaplogger.Info("COMPLETED STARTUP job", zaplogger.Fields{
			"job": name,
		})
	}()
	zaplogger.Info("QUEUED STARTUP job", zaplogger.Fields{
		"job": name,
	})
}

func (cs *CronService) addScheduledJob(name string, job func(), schedule string) error {
	_, err := cs.c.AddFunc(schedule, func() {
		zaplogger.Info("STARTED SCHEDULED JOB", zaplogger.Fields{
			"job": name,
		})
		job()
		zaplogger.Info("COMPLETED SCHEDULED JOB", zaplogger.Fields{
			"job": name,
		})
	})
	if err != nil {
		zaplogger.Error("FAILED TO QUEUE SCHEDULED JOB", zaplogger.Fields{
			"job":      name,
			"schedule": schedule,
			"error":    err.Error(),
		})
		return err
	}
	zaplogger.Info("QUEUED SCHEDULED job", zaplogger.Fields{
		"job":      name,
		"schedule": schedule,
	})
	return nil
}

// sessionPurgeJob deletes expired sessions
func (cs *CronService) sessionPurgeJob() {
	jobName := "Expired Sessions PURGE Job "

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := cs.RunSessionPurge(ctx, 0)
	if err != nil {
		zaplogger.Error(jobName, zaplogger.Fields{
			"error": err.Error(),
		})
		return
	}
	zaplogger.Info(jobName, zaplogger.Fields{
		"rows_deleted": result.Deleted,
	})
}

// RunSessionPurge deletes expired sessions now. actorID is the admin who
// triggered it, zero for the scheduler.
func (cs *CronService) RunSessionPurge(ctx context.Context, actorID uint) (*PurgeResult, error) {
	defer zaplogger.TimeTrack(time.Now(), "RunSessionPurge")

	deleted, err := cs.sessions.PurgeExpired(ctx)
	if err != nil {
		return nil, err
	}
	result := &PurgeResult{Deleted: deleted, PurgedAt: cs.sessions.now().UTC()}

	if cs.store != nil {
		if err := cs.store.Set(ctx, SessionsPurgedAtKey, result.PurgedAt.Format(time.RFC3339)); err != nil {
			zaplogger.Warn("Failed to record session purge time", zaplogger.Fields{"error": err.Error()})
		}
	}
	if cs.audit != nil && actorID != 0 {
		cs.audit.Record(ctx, actorID, logger.SessionsPurge, map[string]interface{}{"deleted": deleted})
	}
	return result, nil
}
