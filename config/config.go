package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Log          Log
	Database     Database
	Gemini       Gemini
	Interview    Interview
	Speech       Speech
	Storage      Storage
	Upload       Upload
	QuestionBank string
	Evaluator    string
}

type Server struct {
	Port string
}

type Log struct {
	Level  string
	Pretty bool
}

type Database struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string `json:"-"`
	Name     string
	// Path is the sqlite database file, used when Driver is "sqlite".
	Path string
}

type Gemini struct {
	ApiKey string `json:"-"`
	Model  string
}

type Interview struct {
	QuestionCount    int
	PlaybackDuration time.Duration
	OperationTimeout time.Duration
	TickInterval     time.Duration
	SessionIdleTTL   time.Duration
}

type Speech struct {
	Transcriber     string
	Language        string
	SampleRate      int
	CredentialsPath string
}

type Storage struct {
	Driver   string
	LocalDir string
	Minio    Minio
}

type Minio struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string `json:"-"`
	BucketName      string
	UseSSL          bool
}

type Upload struct {
	MaxFileBytes int64
	MaxFiles     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_PATH", "vivavoce.db")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("QUESTION_BANK", "static")
	v.SetDefault("QUESTION_COUNT", 5)
	v.SetDefault("TRANSCRIBER", "mock")
	v.SetDefault("SPEECH_LANGUAGE", "en-US")
	v.SetDefault("SPEECH_SAMPLE_RATE", 16000)
	v.SetDefault("EVALUATOR", "reference")
	v.SetDefault("PLAYBACK_DURATION", "3s")
	v.SetDefault("OPERATION_TIMEOUT", "30s")
	v.SetDefault("TICK_INTERVAL", "1s")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "uploads")
	v.SetDefault("MINIO_BUCKET_NAME", "study-materials")
	v.SetDefault("UPLOAD_MAX_FILE_BYTES", 10<<20)
	v.SetDefault("UPLOAD_MAX_FILES", 10)
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	config := fromViper(v)
	log.Info().Interface("config", config).Msg("Config loaded")
	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	var config Config

	config.Server.Port = v.GetString("SERVER_PORT")
	config.Log.Level = v.GetString("LOG_LEVEL")
	config.Log.Pretty = v.GetBool("LOG_PRETTY")

	config.Database.Driver = strings.ToLower(v.GetString("DATABASE_DRIVER"))
	config.Database.Host = v.GetString("DATABASE_HOST")
	config.Database.Port = v.GetString("DATABASE_PORT")
	config.Database.User = v.GetString("DATABASE_USER")
	config.Database.Password = v.GetString("DATABASE_PASSWORD")
	config.Database.Name = v.GetString("DATABASE_NAME")
	config.Database.Path = v.GetString("DATABASE_PATH")

	config.Gemini.ApiKey = v.GetString("GEMINI_API_KEY")
	config.Gemini.Model = v.GetString("GEMINI_MODEL")

	config.QuestionBank = strings.ToLower(v.GetString("QUESTION_BANK"))
	config.Evaluator = strings.ToLower(v.GetString("EVALUATOR"))

	config.Interview.QuestionCount = v.GetInt("QUESTION_COUNT")
	config.Interview.PlaybackDuration = v.GetDuration("PLAYBACK_DURATION")
	config.Interview.OperationTimeout = v.GetDuration("OPERATION_TIMEOUT")
	config.Interview.TickInterval = v.GetDuration("TICK_INTERVAL")
	config.Interview.SessionIdleTTL = v.GetDuration("SESSION_IDLE_TTL")

	config.Speech.Transcriber = strings.ToLower(v.GetString("TRANSCRIBER"))
	config.Speech.Language = v.GetString("SPEECH_LANGUAGE")
	config.Speech.SampleRate = v.GetInt("SPEECH_SAMPLE_RATE")
	config.Speech.CredentialsPath = v.GetString("GOOGLE_CREDENTIALS_PATH")

	config.Storage.Driver = strings.ToLower(v.GetString("STORAGE_DRIVER"))
	config.Storage.LocalDir = v.GetString("STORAGE_LOCAL_DIR")
	config.Storage.Minio.Endpoint = v.GetString("MINIO_ENDPOINT")
	config.Storage.Minio.AccessKeyID = v.GetString("MINIO_ACCESS_KEY_ID")
	config.Storage.Minio.SecretAccessKey = v.GetString("MINIO_SECRET_ACCESS_KEY")
	config.Storage.Minio.BucketName = v.GetString("MINIO_BUCKET_NAME")
	config.Storage.Minio.UseSSL = v.GetBool("MINIO_USE_SSL")

	config.Upload.MaxFileBytes = v.GetInt64("UPLOAD_MAX_FILE_BYTES")
	config.Upload.MaxFiles = v.GetInt("UPLOAD_MAX_FILES")

	return &config
}
