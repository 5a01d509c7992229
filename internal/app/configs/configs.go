package configs

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage backends
const (
	DynamoStorage = "dynamodb"
	DBStorage     = "postgres"
	MapStorage    = "memory"
)

// Application configs
type Config struct {
	ServerAddress    string `koanf:"server_address"`
	LogLevel         string `koanf:"log_level"`
	Storage          string `koanf:"storage"`
	TableName        string `koanf:"table_name"`
	AWSRegion        string `koanf:"aws_region"`
	DynamoDBEndpoint string `koanf:"dynamodb_endpoint"`
	DatabaseDSN      string `koanf:"database_dsn"`
	FileStoragePath  string `koanf:"file_storage_path"`
	EnableHTTPS      bool   `koanf:"enable_https"`
	TLSHost          string `koanf:"tls_host"`
	ScanPageSize     int    `koanf:"scan_page_size"`
	MaxListPages     int    `koanf:"max_list_pages"`
	MaxListItems     int    `koanf:"max_list_items"`
}

// Default configs
func Default() Config {
	return Config{
		ServerAddress: "localhost:8080",
		LogLevel:      "info",
		Storage:       DynamoStorage,
		TableName:     "urls",
		AWSRegion:     "us-east-1",
		ScanPageSize:  100,
		MaxListPages:  1000,
		MaxListItems:  100_000,
	}
}

// Parse configs from command line, config file and environment
func Parse() (Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs layers, from lowest to highest precedence: defaults, the config
// file (-c or CONFIG, YAML or JSON), flags, environment variables.
func ParseArgs(args []string) (Config, error) {
	var (
		flags          Config
		configFilePath string
	)
	fs := flag.NewFlagSet("urlapi", flag.ContinueOnError)
	fs.StringVar(&flags.ServerAddress, "a", "", "server's address")
	fs.StringVar(&flags.LogLevel, "l", "", "log level")
	fs.StringVar(&flags.Storage, "storage", "", "storage backend: dynamodb, postgres or memory")
	fs.StringVar(&flags.TableName, "t", "", "DynamoDB table name")
	fs.StringVar(&flags.AWSRegion, "region", "", "AWS region")
	fs.StringVar(&flags.DynamoDBEndpoint, "dynamodb-endpoint", "", "DynamoDB endpoint override")
	fs.StringVar(&flags.DatabaseDSN, "d", "", "database URL")
	fs.StringVar(&flags.FileStoragePath, "f", "", "file storage path")
	fs.BoolVar(&flags.EnableHTTPS, "s", false, "enable HTTPS")
	fs.StringVar(&flags.TLSHost, "tls-host", "", "host name for the TLS certificate")
	fs.IntVar(&flags.ScanPageSize, "page-size", 0, "records per scan page")
	fs.IntVar(&flags.MaxListPages, "max-list-pages", 0, "max scan pages per list request")
	fs.IntVar(&flags.MaxListItems, "max-list-items", 0, "max records per list request")
	fs.StringVar(&configFilePath, "c", "", "file path with application configs")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if envConfigFilePath := os.Getenv("CONFIG"); envConfigFilePath != "" {
		configFilePath = envConfigFilePath
	}

	config := Default()
	if configFilePath != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to read configs: %w", err)
		}
		if err := unmarshal(k, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse configs: %w", err)
		}
	}

	config.override(flags)

	k := koanf.New(".")
	envProvider := env.Provider("", ".", strings.ToLower)
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := unmarshal(k, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func unmarshal(k *koanf.Koanf, config *Config) error {
	return k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "koanf"})
}

func (c *Config) override(flags Config) {
	if flags.ServerAddress != "" {
		c.ServerAddress = flags.ServerAddress
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.Storage != "" {
		c.Storage = flags.Storage
	}
	if flags.TableName != "" {
		c.TableName = flags.TableName
	}
	if flags.AWSRegion != "" {
		c.AWSRegion = flags.AWSRegion
	}
	if flags.DynamoDBEndpoint != "" {
		c.DynamoDBEndpoint = flags.DynamoDBEndpoint
	}
	if flags.DatabaseDSN != "" {
		c.DatabaseDSN = flags.DatabaseDSN
	}
	if flags.FileStoragePath != "" {
		c.FileStoragePath = flags.FileStoragePath
	}
	if flags.TLSHost != "" {
		c.TLSHost = flags.TLSHost
	}
	if flags.ScanPageSize > 0 {
		c.ScanPageSize = flags.ScanPageSize
	}
	if flags.MaxListPages > 0 {
		c.MaxListPages = flags.MaxListPages
	}
	if flags.MaxListItems > 0 {
		c.MaxListItems = flags.MaxListItems
	}
	c.EnableHTTPS = c.EnableHTTPS || flags.EnableHTTPS
}

// Validate
func (c Config) Validate() error {
	switch c.Storage {
	case DynamoStorage:
		if c.TableName == "" {
			return errors.New("table_name must not be empty")
		}
	case DBStorage:
		if c.DatabaseDSN == "" {
			return errors.New("database_dsn must be set for postgres storage")
		}
	case MapStorage:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.EnableHTTPS && c.TLSHost == "" {
		return errors.New("tls_host must be set when HTTPS is enabled")
	}
	if c.ScanPageSize <= 0 {
		return errors.New("scan_page_size must be positive")
	}

	return nil
}

// Use DynamoDB storage
func (c Config) UseDynamoStorage() bool {
	return c.Storage == DynamoStorage
}

// Use database storage
func (c Config) UseDBStorage() bool {
	return c.Storage == DBStorage
}

// Use inmemory storage
func (c Config) UseMapStorage() bool {
	return c.Storage == MapStorage
}

// Persist inmemory storage to file
func (c Config) UseFileStorage() bool {
	return c.UseMapStorage() && c.FileStoragePath != ""
}

// Use HTTPS
func (c Config) UseHTTPS() bool {
	return c.EnableHTTPS
}
