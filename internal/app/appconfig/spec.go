package appconfig

import (
	"time"

	"exusiai.dev/bgstats/internal/app/appcontext"
)

type ConfigSpec struct {
	// DevOpsAddress is the listen address would listen on for serving devops requests (metrics, health and
	// the admin API). Leaving this empty will disable devops server.
	// This address is only intended to be used in intra-cluster devops requests, and is not intended to be exposed to the public.
	DevOpsAddress string `split_words:"true" default:"localhost:9012"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// DevMode to indicate development mode. When true, the program would log at trace level and
	// provide a more contextual message when encountered a panic.
	DevMode bool `split_words:"true"`

	// TracingEnabled to indicate whether to enable OpenTelemetry tracing.
	TracingEnabled bool `split_words:"true"`

	// TracingExporters to indicate which exporters to use for tracing.
	// Valid values are: jaeger, otlp, stdout (for debug).
	TracingExporters []string `split_words:"true" default:"jaeger"`

	// TracingSampleRate to indicate the sampling rate for tracing.
	TracingSampleRate float64 `split_words:"true" default:"1.0"`

	// infrastructure components connection instructions

	// PostgresDSN is the data source name for the PostgreSQL database holding artifact snapshots. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// NatsURL is the URL of the NATS server. See https://pkg.go.dev/github.com/nats-io/nats.go#Connect
	NatsURL string `required:"true" split_words:"true" default:"nats://127.0.0.1:4222"`

	// RedisURL is the URL of the Redis server. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/2"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// DatadogProfilerEnabled to indicate whether to enable Datadog profiler.
	DatadogProfilerEnabled bool `split_words:"true" default:"false"`

	// DatadogProfilerAgentAddress is the address of the Datadog profiler agent.
	DatadogProfilerAgentAddress string `split_words:"true" default:"localhost:8126"`

	// blob storage

	// AWSAccessKey and AWSSecretKey are the static credentials for the S3 bucket. Leaving them
	// empty falls back to the default AWS credential chain.
	AWSAccessKey string `split_words:"true"`
	AWSSecretKey string `split_words:"true"`

	AWSRegion string `split_words:"true" default:"us-west-2"`

	// AWSEndpoint overrides the S3 endpoint, e.g. for MinIO. Empty uses the AWS default.
	AWSEndpoint string `split_words:"true"`

	// AWSPathStyle forces path-style bucket addressing.
	AWSPathStyle bool `split_words:"true"`

	// BlobBucket is the bucket holding both the input shards and the published artifacts.
	BlobBucket string `required:"true" split_words:"true" default:"static.zerotoheroes.com"`

	// ShardPrefix is the key prefix of the hourly and daily shards produced upstream.
	ShardPrefix string `split_words:"true" default:"api/bgs"`

	// ArtifactPrefix is the key prefix of the merged statistics artifacts.
	ArtifactPrefix string `split_words:"true" default:"api/bgs/stats"`

	// PatchInfoURL is the JSON document describing the live patches.
	PatchInfoURL string `split_words:"true" default:"https://static.zerotoheroes.com/hearthstone/data/patches.json"`

	// PatchInfoTTL is how long the live patch is cached in redis.
	PatchInfoTTL time.Duration `split_words:"true" default:"10m"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// WorkerEnabled is a flag to indicate whether to enable the workers.
	WorkerEnabled bool `split_words:"true"`

	// WorkerInterval describes the interval in-between different sweeps.
	WorkerInterval time.Duration `required:"true" split_words:"true" default:"1h"`

	// WorkerSeparation describes the separation time in-between the entities of a sweep.
	WorkerSeparation time.Duration `required:"true" split_words:"true" default:"3s"`

	// WorkerTimeout describes the timeout for a single sweep or job to run.
	WorkerTimeout time.Duration `required:"true" split_words:"true" default:"30m"`

	// WorkerConcurrency bounds the number of selector jobs running at the same time.
	WorkerConcurrency int `required:"true" split_words:"true" default:"8"`

	// WorkerEntities is the list of entities the periodic sweep covers.
	WorkerEntities []string `required:"true" split_words:"true" default:"hero,quest,reward,trinket,card"`

	// WorkerHeartbeatURL is the map of URLs to ping after a successful sweep.
	// The key is the entity name, and the value is the base64 encoded URL.
	WorkerHeartbeatURL WorkerHeartbeatURLMap `split_words:"true"`

	// LoaderConcurrency bounds the parallel shard downloads within a single job.
	LoaderConcurrency int `split_words:"true" default:"16"`

	// ShardCacheTTL is how long a decoded shard stays in the in-process cache. Daily shards are
	// immutable, hourly shards of the current day are not cached.
	ShardCacheTTL time.Duration `split_words:"true" default:"30m"`

	// TribeSubsetSize is the size of the tribe subsets enumerated for hero filters.
	TribeSubsetSize int `split_words:"true" default:"5"`

	// MinSupportRatio drops entities whose sample count is not above max/ratio.
	MinSupportRatio float64 `split_words:"true" default:"50"`

	// MissingRatio drops hero tribe breakdowns with too few "tribe missing" samples.
	MissingRatio float64 `split_words:"true" default:"20"`

	// MinDataPoints is an absolute floor on an entity's sample count.
	MinDataPoints int `split_words:"true" default:"0"`

	// ExclusionExpr is an expr-lang predicate over `key` and `entity`. Matching entities are left
	// out of every merge.
	ExclusionExpr string `split_words:"true" default:"key == \"TB_BaconShop_HERO_PH\""`

	// RetryAttempts is the number of attempts for a storage call before giving up.
	RetryAttempts uint `split_words:"true" default:"3"`

	// AdminKey is the key used to authenticate the admin API.
	AdminKey string `split_words:"true"`
}

type Config struct {
	// ConfigSpec holds the values parsed from the environment.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
