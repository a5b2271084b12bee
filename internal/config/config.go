package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
	// MaxRequestBytes caps the size of an upload request body. Zero disables the limit.
	MaxRequestBytes int64 `mapstructure:"max_request_bytes"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// S3Config describes the object storage backend. Driver selects the client
// library: "s3" (aws-sdk-go-v2) or "minio" (minio-go).
type S3Config struct {
	Driver          string `mapstructure:"driver"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// StorageConfig holds settings shared by every storage backend.
type StorageConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	// Folders maps a file category (e.g. "user_file") to a key prefix in the bucket.
	Folders map[string]string `mapstructure:"folders"`
}

type UploadConfig struct {
	MaxWorkers int           `mapstructure:"max_workers"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// BootstrapConfig seeds an initial manager account so the API can be used
// on an empty database. Leave the email empty to skip.
type BootstrapConfig struct {
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars, e.g. s3.bucket_name -> S3_BUCKET_NAME
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// Running on defaults and env vars only.
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_request_bytes", int64(2000*1000*1000))
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "upload_service")
	v.SetDefault("s3.driver", "s3")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.use_ssl", true)
	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("storage.operation_timeout", "30s")
	v.SetDefault("storage.folders", map[string]string{"user_file": "user-files"})
	v.SetDefault("upload.max_workers", 8)
	v.SetDefault("upload.presign_ttl", "1h")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "720h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("bootstrap.admin_name", "admin")
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
}
