package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable that points at an optional YAML file.
const ConfigFileEnv = "CONFIG_FILE"

type Config struct {
	ServerPort  int            `yaml:"server_port"`
	FrontendURL string         `yaml:"frontend_url"`
	CORSOrigins []string       `yaml:"cors_allowed_origins"`
	Database    DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	SMTP        SMTPConfig     `yaml:"smtp"`
	MQ          MQConfig       `yaml:"mq"`
	Notify      NotifyConfig   `yaml:"notify"`
	Storage     StorageConfig  `yaml:"storage"`
	Log         LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	UseSSL   bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// SMTPConfig configures outgoing mail. Mail is considered configured only
// when both User and Password are set.
type SMTPConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	From               string `yaml:"from"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Configured reports whether credentials are present.
func (c SMTPConfig) Configured() bool {
	return strings.TrimSpace(c.User) != "" && strings.TrimSpace(c.Password) != ""
}

// Sender returns the From address, falling back to the SMTP user.
func (c SMTPConfig) Sender() string {
	if from := strings.TrimSpace(c.From); from != "" {
		return from
	}
	return strings.TrimSpace(c.User)
}

type MQConfig struct {
	Backend  string         `yaml:"backend"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	PrefetchCount   int    `yaml:"prefetch_count"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
}

// PubSubConfig configures the Pub/Sub backend. MaxOutstanding caps the
// notification jobs a worker holds unacknowledged.
type PubSubConfig struct {
	ProjectID          string        `yaml:"project_id"`
	CredentialsFile    string        `yaml:"credentials_file"`
	SubscriptionSuffix string        `yaml:"subscription_suffix"`
	MaxOutstanding     int           `yaml:"max_outstanding"`
	AckDeadline        time.Duration `yaml:"ack_deadline"`
}

type NotifyConfig struct {
	Channel         string `yaml:"channel"`
	InProcessWorker bool   `yaml:"inprocess_worker"`
}

type StorageConfig struct {
	Backend        string      `yaml:"backend"`
	MaxUploadBytes int64       `yaml:"max_upload_bytes"`
	Minio          MinioConfig `yaml:"minio"`
	GCS            GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// GCSConfig configures the GCS backend. Attachment objects are named
// Prefix + key. Location is only used when the bucket has to be created.
type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Location        string `yaml:"location"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ServerPort:  8080,
		FrontendURL: "http://localhost:5173",
		CORSOrigins: []string{"http://localhost:5173"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "bugtracker",
			Password: "password",
			DBName:   "bugtracker_db",
		},
		Auth: AuthConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		MQ: MQConfig{
			Backend: "memory",
			PubSub: PubSubConfig{
				SubscriptionSuffix: "-sub",
				MaxOutstanding:     10,
				AckDeadline:        time.Minute,
			},
			RabbitMQ: RabbitMQConfig{
				PrefetchCount: 10,
				QueueDurable:  true,
			},
		},
		Notify: NotifyConfig{
			Channel:         "ticket-notifications",
			InProcessWorker: true,
		},
		Storage: StorageConfig{
			Backend:        "none",
			MaxUploadBytes: 10 << 20,
			GCS: GCSConfig{
				Prefix:   "attachments/",
				Location: "US",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file at
// path (or $CONFIG_FILE when path is empty), and environment variables, in that
// order of precedence.
func LoadConfig(path string) (Config, error) {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	cfg := Defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(ConfigFileEnv))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.ServerPort = getEnvInt("SERVER_PORT", cfg.ServerPort)
	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", cfg.FrontendURL), "/")
	cfg.CORSOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)

	cfg.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", cfg.Database.Host),
		Port:     getEnvInt("DB_PORT", cfg.Database.Port),
		User:     getEnv("DB_USER", cfg.Database.User),
		Password: getEnv("DB_PASSWORD", cfg.Database.Password),
		DBName:   getEnv("DB_NAME", cfg.Database.DBName),
		UseSSL:   getEnvBool("DB_SSL", cfg.Database.UseSSL),
	}

	cfg.Auth.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", cfg.Auth.JWTSecret))
	cfg.Auth.TokenTTL = getEnvDuration("JWT_TTL", cfg.Auth.TokenTTL)

	cfg.SMTP = SMTPConfig{
		Host:               getEnv("SMTP_HOST", cfg.SMTP.Host),
		Port:               getEnvInt("SMTP_PORT", cfg.SMTP.Port),
		User:               strings.TrimSpace(getEnv("SMTP_USER", cfg.SMTP.User)),
		Password:           strings.TrimSpace(getEnv("SMTP_PASS", cfg.SMTP.Password)),
		From:               getEnv("SMTP_FROM", cfg.SMTP.From),
		InsecureSkipVerify: getEnvBool("SMTP_INSECURE_SKIP_VERIFY", cfg.SMTP.InsecureSkipVerify),
	}

	cfg.MQ.Backend = strings.ToLower(getEnv("MQ_BACKEND", cfg.MQ.Backend))
	cfg.MQ.RabbitMQ = RabbitMQConfig{
		URL:             getEnv("RABBITMQ_URL", cfg.MQ.RabbitMQ.URL),
		PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", cfg.MQ.RabbitMQ.PrefetchCount),
		QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", cfg.MQ.RabbitMQ.QueueDurable),
		QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", cfg.MQ.RabbitMQ.QueueAutoDelete),
	}
	cfg.MQ.PubSub = PubSubConfig{
		ProjectID:          getEnv("PUBSUB_PROJECT_ID", cfg.MQ.PubSub.ProjectID),
		CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", cfg.MQ.PubSub.CredentialsFile),
		SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", cfg.MQ.PubSub.SubscriptionSuffix),
		MaxOutstanding:     getEnvInt("PUBSUB_MAX_OUTSTANDING", cfg.MQ.PubSub.MaxOutstanding),
		AckDeadline:        getEnvDuration("PUBSUB_ACK_DEADLINE", cfg.MQ.PubSub.AckDeadline),
	}

	cfg.Notify.Channel = getEnv("NOTIFY_CHANNEL", cfg.Notify.Channel)
	cfg.Notify.InProcessWorker = getEnvBool("NOTIFY_INPROCESS_WORKER", cfg.Notify.InProcessWorker)

	cfg.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", cfg.Storage.Backend))
	cfg.Storage.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.Storage.MaxUploadBytes)))
	cfg.Storage.Minio = MinioConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", cfg.Storage.Minio.Endpoint),
		AccessKey: getEnv("MINIO_ACCESS_KEY", cfg.Storage.Minio.AccessKey),
		SecretKey: getEnv("MINIO_SECRET_KEY", cfg.Storage.Minio.SecretKey),
		Bucket:    getEnv("MINIO_BUCKET", cfg.Storage.Minio.Bucket),
		UseSSL:    getEnvBool("MINIO_USE_SSL", cfg.Storage.Minio.UseSSL),
	}
	cfg.Storage.GCS = GCSConfig{
		Bucket:          getEnv("GCS_BUCKET", cfg.Storage.GCS.Bucket),
		Prefix:          getEnv("GCS_PREFIX", cfg.Storage.GCS.Prefix),
		Location:        getEnv("GCS_LOCATION", cfg.Storage.GCS.Location),
		ProjectID:       getEnv("GCS_PROJECT_ID", cfg.Storage.GCS.ProjectID),
		CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", cfg.Storage.GCS.CredentialsFile),
	}

	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Log.Format))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}
