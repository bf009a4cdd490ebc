package boot

import (
	"context"
	"errors"
	"storefront/src/db/testdb"
	"storefront/src/lib"
	"storefront/src/models"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJobRecordsRuns(t *testing.T) {
	gdb := testdb.New(t)

	RunJob(gdb, "ExpireOrders", func(ctx context.Context) (int64, error) { return 3, nil })
	RunJob(gdb, "ExpireOrders", func(ctx context.Context) (int64, error) { return 1, errors.New("database is locked") })

	var runs []models.JobTask
	require.NoError(t, gdb.Order("processed desc").Find(&runs).Error)
	require.Len(t, runs, 2)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, int64(3), runs[0].Processed)
	assert.Equal(t, "failed", runs[1].Status)
	require.NotNil(t, runs[1].Error)
	assert.Equal(t, "database is locked", *runs[1].Error)
}

func TestInitPublisherFallsBackToLog(t *testing.T) {
	assert.IsType(t, lib.LogPublisher{}, InitPublisher(""))
	assert.IsType(t, lib.LogPublisher{}, InitPublisher("log"))
	assert.IsType(t, lib.LogPublisher{}, InitPublisher("carrier-pigeon"))
}

func TestInitSchedulerRegistersJobs(t *testing.T) {
	gdb := testdb.New(t)
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	require.NoError(t, err)
	lib.NewScheduler(sched)

	noop := func(ctx context.Context) (int64, error) { return 0, nil }
	InitScheduler(gdb, Jobs{
		Sweep:                 noop,
		SweepInterval:         time.Minute,
		PaymentReminders:      noop,
		PaymentReminderWindow: 2 * time.Hour,
	})
	defer StopScheduler()

	names := []string{}
	for _, j := range sched.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"ExpireOrders", "PaymentReminders"}, names)
}
