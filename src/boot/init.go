package boot

import (
	"context"
	"fmt"
	"log"
	"storefront/src/db"
	"storefront/src/lib"
	awslib "storefront/src/lib/aws"
	"storefront/src/models"
	"storefront/src/monitoring"
	"storefront/src/orders"
	"time"

	"gorm.io/gorm"
)

const (
	BROKER_KAFKA = "kafka"
	BROKER_SQS   = "sqs"
	BROKER_SNS   = "sns"
	BROKER_LOG   = "log"

	EVENT_REMINDER_INTERVAL = time.Hour
)

var LIFECYCLE_TOPICS = []string{
	"order.created",
	"order.paid",
	"order.cancelled",
	"order.expired",
	"order.refunded",
}

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(models.All()...)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitPublisher builds the lifecycle event publisher for EVENTS_BROKER. An
// unusable broker falls back to the log publisher.
func InitPublisher(broker string) orders.Publisher {
	var (
		p   orders.Publisher
		err error
	)
	switch broker {
	case BROKER_KAFKA:
		p, err = lib.NewKafkaPublisher("storefront-api")
		if err == nil {
			if _, terr := lib.KafkaCreateTopics(LIFECYCLE_TOPICS...); terr != nil {
				log.Printf("[Events] could not create topics: %s\n", terr.Error())
			}
		}
	case BROKER_SQS:
		p, err = awslib.NewSQSPublisher()
	case BROKER_SNS:
		p, err = awslib.NewSNSPublisher()
	case "", BROKER_LOG:
		return lib.LogPublisher{}
	default:
		err = fmt.Errorf("unknown events broker %q", broker)
	}
	if err != nil {
		log.Printf("[Events] %s publisher unavailable, logging events instead: %s\n", broker, err.Error())
		return lib.LogPublisher{}
	}
	log.Printf("[Events] publishing lifecycle events to %s\n", broker)
	return p
}

type Job func(ctx context.Context) (int64, error)

// Jobs are the recurring background tasks of the storefront.
type Jobs struct {
	Sweep                 Job
	SweepInterval         time.Duration
	PaymentReminders      Job
	PaymentReminderWindow time.Duration
	EventReminders        Job
}

// RunJob runs one job and records the run.
func RunJob(gdb *gorm.DB, name string, job Job) {
	ctx := context.Background()
	processed, err := job(ctx)
	if err != nil {
		log.Printf("[%s] run failed after %d: %s\n", name, processed, err.Error())
	} else if processed > 0 {
		log.Printf("[%s] processed %d\n", name, processed)
	}
	monitoring.TrackJobRun(name, processed)
	models.RecordJobRun(gdb, name, "DurationJob", processed, err)
}

func InitScheduler(gdb *gorm.DB, jobs Jobs) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	schedule := func(name string, every time.Duration, job Job) {
		if job == nil {
			return
		}
		_, err := lib.CreateCronJob(name, every, func(ctx context.Context) {
			RunJob(gdb, name, job)
		})
		if err != nil {
			log.Printf("Error scheduling %s: %s\n", name, err.Error())
		}
	}
	schedule("ExpireOrders", jobs.SweepInterval, jobs.Sweep)
	// reminders are scanned several times per window so none is missed
	schedule("PaymentReminders", jobs.PaymentReminderWindow/4, jobs.PaymentReminders)
	schedule("EventReminders", EVENT_REMINDER_INTERVAL, jobs.EventReminders)

	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
