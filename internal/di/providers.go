package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/dispatch"
	domrepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/gate"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/handler/api"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/normalizer"
	internalrepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/service/consensus"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/service/extraction"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/service/index"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/signal"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/subscription"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/usecase"
	pkgch "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/clickhouse"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/config"
	xhttp "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/http"
	pkgkafka "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/kafka"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/metrics"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/queue"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

func ProvideDocStore() domrepo.DocStore { return internalrepo.NewMemoryDocStore() }

func ProvideKpiStore() domrepo.KpiStore { return internalrepo.NewMemoryKpiStore() }

func ProvideSignalStore() domrepo.SignalStore { return internalrepo.NewMemorySignalStore() }

func ProvideRuleStore() domrepo.RuleStore { return internalrepo.NewMemoryRuleStore() }

func ProvideFingerprintStore() domrepo.FingerprintStore {
	return internalrepo.NewMemoryFingerprintStore()
}

// ProvideConsensus loads analyst expectations from the configured CSV, or
// an empty source when none is configured.
func ProvideConsensus(cfg *config.Config, lgr *logger.Logger) (domrepo.ConsensusSource, error) {
	if cfg.Consensus.CSVPath == "" {
		return consensus.NewEmpty(), nil
	}
	src, err := consensus.LoadCSV(cfg.Consensus.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("consensus csv: %w", err)
	}
	lgr.Info("consensus loaded",
		logger.String("path", cfg.Consensus.CSVPath),
		logger.Int("entries", src.Len()))
	return src, nil
}

// ProvideExtractor creates the extraction provider client.
func ProvideExtractor(cfg *config.Config) domrepo.Extractor {
	return extraction.NewClient(cfg.Extractor.URL, cfg.Extractor.Timeout)
}

// ProvideIndexer creates the search/index service client.
func ProvideIndexer(cfg *config.Config) domrepo.Indexer {
	return index.NewClient(cfg.Index.URL, cfg.Index.Timeout)
}

// ProvideClickHouseClient creates the archive ClickHouse client and its
// schema. Returns nil when archiving is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS copilot",
		`CREATE TABLE IF NOT EXISTS copilot.kpi_records (
            ticker String, period String, metric String, raw_value Float64, unit String,
            doc_id String, page Int32, tbl String, row Int32, col Int32,
            extraction_confidence Float64,
            yoy_change Nullable(Float64), qoq_change Nullable(Float64),
            consensus Nullable(Float64), surprise Nullable(Float64),
            needs_review UInt8, review_reasons String, extracted_at DateTime
        ) ENGINE=MergeTree ORDER BY (ticker, period, metric, extracted_at)`,
		`CREATE TABLE IF NOT EXISTS copilot.signals (
            ticker String, period String, action String, raw_score Float64,
            confidence Float64, reasons String, blocked_reason String, generated_at DateTime
        ) ENGINE=MergeTree ORDER BY (ticker, period, generated_at)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive wraps the ClickHouse client, or degrades to a no-op when
// archiving is disabled.
func ProvideArchive(client *pkgch.Client, lgr *logger.Logger) domrepo.Archive {
	if client == nil {
		return internalrepo.NoopArchive{}
	}
	return internalrepo.NewCHArchive(client, lgr)
}

// ProvideKafkaProducer creates the event-mirror producer. Returns nil when
// the events backend is not kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Events.Backend != "kafka" {
		return nil, nil
	}
	k := cfg.Events.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatchSize(k.Producer.BatchSize),
		pkgkafka.WithBatchBytes(k.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(k.Producer.Linger),
		pkgkafka.WithTimeouts(k.Producer.WriteTimeout, k.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithAsync(k.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventSink mirrors dispatched events to Kafka, or discards them
// when no backend is configured.
func ProvideEventSink(producer *pkgkafka.Producer, cfg *config.Config) domrepo.EventSink {
	if producer == nil {
		return internalrepo.NoopEventSink{}
	}
	return internalrepo.NewKafkaEventSink(producer, cfg.Events.Kafka.Topic)
}

// ProvideDeliveryQueue creates the secondary-channel delivery queue with
// its chat and email jobs registered.
func ProvideDeliveryQueue(cfg *config.Config, lgr *logger.Logger, m domrepo.Metrics) queue.Runner {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Dispatch.Workers,
		QueueSize:  256,
		RetryLimit: 1,
		RetryDelay: 5 * time.Second,
	}

	chat := dispatch.NewChatWebhook(cfg.Channels.ChatWebhookURL, cfg.Channels.ChatTimeout)
	email := dispatch.NewEmailSender(cfg.Channels.EmailEndpoint, cfg.Channels.EmailFrom, 0)
	jobs := []queue.Job{
		dispatch.NewChatDeliveryJob(chat, m, lgr),
		dispatch.NewEmailDeliveryJob(email, m, lgr),
	}

	var q queue.Runner
	if cfg.Dispatch.QueueBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Dispatch.Redis.Addr,
			Password: cfg.Dispatch.Redis.Password,
			DB:       cfg.Dispatch.Redis.DB,
		})
		q = queue.NewRedisQueue(lgr, qcfg, client, queue.ModeProducerConsumer)
	} else {
		q = queue.NewMemoryQueue(lgr, qcfg)
	}
	q.RegisterJobs(jobs)
	return q
}

// ProvideHub creates the live-connection hub.
func ProvideHub(cfg *config.Config, lgr *logger.Logger, m domrepo.Metrics) *dispatch.Hub {
	return dispatch.NewHub(dispatch.HubConfig{
		StreamBuffer: cfg.Dispatch.StreamBuffer,
		Heartbeat:    cfg.Dispatch.Heartbeat,
		PongWait:     cfg.Dispatch.PongWait,
		WriteWait:    cfg.Dispatch.WriteWait,
	}, lgr, m)
}

func ProvideRegistry() *subscription.Registry {
	return subscription.NewRegistry()
}

// ProvideDispatcher creates the notification fan-out dispatcher.
func ProvideDispatcher(
	registry *subscription.Registry,
	hub *dispatch.Hub,
	q queue.Runner,
	sink domrepo.EventSink,
	m domrepo.Metrics,
	lgr *logger.Logger,
) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(registry, hub, q, sink, m, lgr)
}

func ProvideNormalizer(kpis domrepo.KpiStore, src domrepo.ConsensusSource, lgr *logger.Logger) *normalizer.Normalizer {
	return normalizer.New(kpis, src, lgr)
}

func ProvideAgent() *signal.Agent {
	return signal.NewAgent()
}

func ProvideGate(rules domrepo.RuleStore, m domrepo.Metrics, lgr *logger.Logger, cfg *config.Config) *gate.Gate {
	return gate.New(rules, m, lgr, cfg.Gate.MinConfidence, cfg.Gate.MaxReviewRatio)
}

// ProvidePipeline assembles the ingestion pipeline.
func ProvidePipeline(
	docs domrepo.DocStore,
	kpis domrepo.KpiStore,
	signals domrepo.SignalStore,
	rules domrepo.RuleStore,
	prints domrepo.FingerprintStore,
	extractor domrepo.Extractor,
	indexer domrepo.Indexer,
	archive domrepo.Archive,
	norm *normalizer.Normalizer,
	agent *signal.Agent,
	g *gate.Gate,
	dispatcher *dispatch.Dispatcher,
	m domrepo.Metrics,
	lgr *logger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineDeps{
		Docs:       docs,
		Kpis:       kpis,
		Signals:    signals,
		Rules:      rules,
		Prints:     prints,
		Extractor:  extractor,
		Indexer:    indexer,
		Archive:    archive,
		Normalizer: norm,
		Agent:      agent,
		Gate:       g,
		Dispatcher: dispatcher,
		Metrics:    m,
		Logger:     lgr,
	})
}

// ProvideRouter builds the HTTP route registration.
func ProvideRouter(
	lgr *logger.Logger,
	pipeline *usecase.Pipeline,
	indexer domrepo.Indexer,
	registry *subscription.Registry,
	hub *dispatch.Hub,
) xhttp.Handler {
	return api.NewRouter(
		api.NewPipelineHandler(lgr, pipeline, indexer),
		api.NewSubscriptionsHandler(lgr, registry),
		api.NewStreamHandler(lgr, hub),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	router xhttp.Handler,
	q queue.Runner,
	hub *dispatch.Hub,
	sink domrepo.EventSink,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, lgr, router, q, hub, sink, chClient)
}
