package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkerParams collects the dependencies of the background worker.
type WorkerParams struct {
	Logger            *slog.Logger
	RedisAddr         string
	Pool              *pgxpool.Pool
	LowStockThreshold int
	MailFrom          string
}

// Worker runs the asynq server plus the periodic scheduler.
type Worker struct {
	logger    *slog.Logger
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	client    *asynq.Client
}

// NewWorker wires the task handlers and cron entries.
func NewWorker(p WorkerParams) *Worker {
	redisOpt := asynq.RedisClientOpt{Addr: p.RedisAddr}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 5,
			"mail":    2,
		},
		Logger: asynqLogger{p.Logger},
	})
	client := asynq.NewClient(redisOpt)
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: asynqLogger{p.Logger}})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeLowStockScan, NewLowStockScanner(p.Logger, p.Pool, client, p.LowStockThreshold))
	mux.Handle(TaskTypeReorderEmail, NewReorderMailer(p.Logger, p.MailFrom, nil))

	return &Worker{
		logger:    p.Logger,
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		client:    client,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	// Nightly at 03:00 server time.
	if _, err := w.scheduler.Register("0 3 * * *", NewLowStockScanTask()); err != nil {
		return err
	}
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	if err := w.server.Start(w.mux); err != nil {
		w.scheduler.Shutdown()
		return err
	}

	<-ctx.Done()
	w.logger.Info("shutting down worker")
	w.scheduler.Shutdown()
	w.server.Shutdown()
	_ = w.client.Close()
	return nil
}

// Health reports queue reachability for the /jobs/health endpoint.
func Health(redisAddr string) error {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	defer inspector.Close()
	_, err := inspector.Queues()
	return err
}

// asynqLogger adapts slog to the asynq logging interface.
type asynqLogger struct {
	logger *slog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug("asynq", slog.Any("msg", args)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info("asynq", slog.Any("msg", args)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn("asynq", slog.Any("msg", args)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error("asynq", slog.Any("msg", args)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Error("asynq fatal", slog.Any("msg", args)) }
