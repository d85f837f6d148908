package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"financebro-api"`
	AppVersion                    string   `env:"APP_VERSION" env-default:"1.0.0"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseHost                  string        `env:"DATABASE_HOST" env-default:"localhost"`
	DatabasePort                  string        `env:"DATABASE_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DATABASE_USER" env-default:"financebro"`
	DatabasePassword              string        `env:"DATABASE_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DATABASE_NAME" env-default:"financebro_db"`
	DatabaseSSLMode               string        `env:"DATABASE_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DATABASE_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DATABASE_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DATABASE_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DATABASE_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DATABASE_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DATABASE_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Ingestion auth. The scraping workflow engine (n8n) must present this
	// value in the x-api-key header on every write request.
	ScraperAPIKey string `env:"N8N_API_KEY" env-default:""`

	// Kafka Consumer (optional ingest transport)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaIngestTopic     string   `env:"KAFKA_INGEST_TOPIC" env-default:"scraped-products"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"financebro-ingest"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false"`

	// Tracing. When the endpoint is empty spans stay in process.
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:""`
	TracingOTLPProtocol string `env:"TRACING_OTLP_PROTOCOL" env-default:"grpc"`
	TracingOTLPInsecure bool   `env:"TRACING_OTLP_INSECURE" env-default:"true"`
}
