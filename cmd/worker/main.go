package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/app"
	"github.com/iliyamo/rateshop/internal/jobs"
	"github.com/iliyamo/rateshop/internal/logger"
	"github.com/iliyamo/rateshop/internal/queue"
)

// order is the run order of -job all in once mode.  Recommendations read
// the snapshots built just before them.
var order = []string{"scheduler", "snapshot", "recommend", "cleanup"}

func main() {
	jobName := flag.String("job", "scheduler", "scheduler|snapshot|recommend|cleanup|events|all")
	mode := flag.String("mode", "interval", "once|interval")
	auditDir := flag.String("audit-dir", "logs", "directory of the refresh audit log (events job)")
	flag.Parse()

	settings := app.LoadSettings()
	log := logger.New(settings.Base.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *jobName == "events" {
		if err := runEvents(ctx, settings, *auditDir, log); err != nil && ctx.Err() == nil {
			log.WithError(err).Fatal("event consumer stopped")
		}
		return
	}

	engine, err := app.Open(ctx, settings, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize engine")
	}
	defer engine.Close()

	all := engine.Jobs(log)
	names := []string{*jobName}
	if *jobName == "all" {
		names = order
	}
	selected := make([]jobs.Job, 0, len(names))
	for _, n := range names {
		j, ok := all[n]
		if !ok {
			log.WithField("job", n).Fatal("unknown job")
		}
		selected = append(selected, j)
	}

	switch *mode {
	case "once":
		failed := false
		for _, j := range selected {
			if err := jobs.RunOnce(ctx, j, log); err != nil {
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	case "interval":
		interval := settings.RateShop.SchedulerInterval
		var wg sync.WaitGroup
		for _, j := range selected {
			wg.Add(1)
			go func(j jobs.Job) {
				defer wg.Done()
				jobs.RunEvery(ctx, j, interval, log)
			}(j)
		}
		log.WithFields(logrus.Fields{"jobs": names, "interval": interval}).Info("worker started")
		wg.Wait()
		log.Info("worker stopped")
	default:
		log.WithField("mode", *mode).Fatal("unknown mode")
	}
}

func runEvents(ctx context.Context, settings app.Settings, dir string, log logrus.FieldLogger) error {
	if settings.AMQP.URL == "" {
		log.Fatal("RABBITMQ_URL is required for the events job")
	}
	audit, closer, err := queue.OpenAuditLog(dir)
	if err != nil {
		return err
	}
	defer closer.Close()
	return queue.NewRefreshConsumer(settings.AMQP.URL, settings.AMQP.Queue, log, audit).Run(ctx)
}
