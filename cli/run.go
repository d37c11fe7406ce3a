package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/absmach/flclient"
	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/client/api"
	"github.com/absmach/flclient/client/middleware"
	"github.com/absmach/flclient/console"
	"github.com/absmach/flclient/dataset"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/artifact"
	"github.com/absmach/flclient/pkg/monitoring"
	"github.com/absmach/flclient/pkg/storage"
	"github.com/absmach/flclient/pkg/transport"
	"github.com/absmach/flclient/sequence"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	resourceInterval  = time.Second
)

// StartClient runs one federated session to completion. It returns nil
// only when the server ended the session and the trained model was saved.
func StartClient(ctx context.Context, cfg flclient.Config, out io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("client_id", cfg.ClientID))
	slog.SetDefault(logger)

	con := console.New(out, cfg.NoColor)

	tp, shutdownTracer, err := newTracerProvider(ctx, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
	if err != nil {
		return errors.Join(errors.New("failed to initialize opentelemetry"), err)
	}
	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.Error("error shutting down tracer provider", slog.Any("error", err))
		}
	}()

	records, err := dataset.NewLoader(cfg.DataDir, cfg.Columns, logger).Load(ctx, cfg.ClientID, cfg.Folder)
	if err != nil {
		return err
	}

	size := cfg.Model.WindowSize
	part := sequence.Split(records)
	if err := con.Dataset(cfg.Columns, records, sequence.Describe(records, part, size)); err != nil {
		return err
	}

	var data client.Data
	data.XTrain, data.YTrain = sequence.Collect(sequence.Windows(sequence.Values(part.Train), size))
	data.XTest, data.YTest = sequence.Collect(sequence.Windows(sequence.Values(part.Test), size))

	m, err := model.NewAutoencoder(cfg.Model)
	if err != nil {
		return err
	}

	repos, err := storage.NewRepositories(cfg.Storage)
	if err != nil {
		return errors.Join(errors.New("failed to open round journal"), err)
	}
	if repos.Closer != nil {
		defer func() {
			if err := repos.Closer.Close(); err != nil {
				logger.Warn("Failed to close round journal", slog.Any("error", err))
			}
		}()
	}

	evals := client.NewMetricsLog()
	svc := client.NewService(m, data, cfg.Fit, evals, logger, client.WithHistoryHook(func(round uint64, h model.History) {
		if err := con.FitHistory(round, h); err != nil {
			logger.Warn("Failed to print fit history", slog.Any("error", err))
		}
	}))
	rm := makeMetrics(svcName, "rounds")
	svc = middleware.Journal(cfg.ClientID, repos.Rounds, logger, svc)
	if sampler, err := monitoring.NewProcessSampler(); err == nil {
		svc = middleware.Resources(sampler, resourceInterval, rm.peakCPU, rm.peakRSS, logger, svc)
	} else {
		logger.Warn("Resource sampling disabled", slog.Any("error", err))
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tp.Tracer(svcName), svc)
	svc = middleware.Metrics(rm.counter, rm.latency, rm.lastLoss, rm.lastMAPE, svc)

	tr, err := transport.New(ctx, cfg.Transport, cfg.ServerIP, cfg.ServerPort, cfg.ClientID, logger)
	if err != nil {
		return errors.Join(errors.New("failed to connect to aggregation server"), err)
	}
	defer func() {
		if err := tr.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to close transport", slog.Any("error", err))
		}
	}()

	cl, err := client.New(cfg.ClientID, svc, tr, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		return cl.Run(ctx)
	})

	g.Go(func() error {
		return stopSignalHandler(ctx, logger)
	})

	if cfg.HTTPAddr != "" {
		hs := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.MakeHandler(cl, repos.Rounds, evals, logger, cfg.InstanceID),
			ReadHeaderTimeout: readHeaderTimeout,
		}
		g.Go(func() error {
			logger.Info("Operator API listening", slog.String("address", cfg.HTTPAddr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer scancel()

			return hs.Shutdown(sctx)
		})
	}

	if err := g.Wait(); err != nil {
		con.Error(err)

		return err
	}

	return saveModel(context.WithoutCancel(ctx), cfg.Artifact, m, evals, con)
}

func saveModel(ctx context.Context, cfg artifact.Config, m *model.Autoencoder, evals *client.MetricsLog, con *console.Console) error {
	data, err := model.MarshalArtifact(m)
	if err != nil {
		return err
	}

	store, err := artifact.New(ctx, cfg)
	if err != nil {
		return errors.Join(errors.New("failed to open model store"), err)
	}
	if err := store.Save(ctx, artifact.ModelName, data); err != nil {
		return errors.Join(errors.New("failed to save model"), err)
	}
	con.Success("model saved as %s", artifact.ModelName)

	return con.Evaluations(evals.Entries())
}

// stopSignalHandler fails the group on SIGINT or SIGTERM. An interrupted
// session is not a graceful end.
func stopSignalHandler(ctx context.Context, logger *slog.Logger) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		logger.Info("Received shutdown signal", slog.String("signal", s.String()))

		return fmt.Errorf("interrupted by %s", s)
	case <-ctx.Done():
		return nil
	}
}
