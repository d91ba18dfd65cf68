package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server    ServerConfig
	Snowflake SnowflakeConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	snowflake, err := loadSnowflakeConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Snowflake: snowflake}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// Accept ":3000" or "127.0.0.1:3000" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// SnowflakeConfig carries the credentials and scope shared by the analyst
// and query-execution collaborators. Token is a Personal Access Token.
type SnowflakeConfig struct {
	Account   string
	Token     string
	Warehouse string
	Database  string
	Schema    string

	// AnalystTimeout bounds one Cortex Analyst round trip. Generation can
	// legitimately run for minutes, so this must stay generous.
	AnalystTimeout time.Duration
	// QueryTimeout bounds one SQL API statement execution.
	QueryTimeout time.Duration
}

// Enabled reports whether the required credentials were provided.
func (c SnowflakeConfig) Enabled() bool {
	return c.Account != "" && c.Token != ""
}

// BaseURL derives the REST API host from the account identifier. Underscores
// in account locators become hyphens in the REST hostname.
func (c SnowflakeConfig) BaseURL() string {
	account := c.Account
	if idx := strings.Index(account, ".snowflakecomputing.com"); idx >= 0 {
		account = account[:idx]
	}
	account = strings.ReplaceAll(account, "_", "-")
	return "https://" + account + ".snowflakecomputing.com"
}

func loadSnowflakeConfig() (SnowflakeConfig, error) {
	analystTimeout, err := parseOptionalIntEnv("ANALYST_TIMEOUT_SECONDS")
	if err != nil {
		return SnowflakeConfig{}, err
	}
	analystSeconds := 300
	if analystTimeout != nil {
		if *analystTimeout < 1 {
			return SnowflakeConfig{}, fmt.Errorf("ANALYST_TIMEOUT_SECONDS must be positive")
		}
		analystSeconds = *analystTimeout
	}

	queryTimeout, err := parseOptionalIntEnv("QUERY_TIMEOUT_SECONDS")
	if err != nil {
		return SnowflakeConfig{}, err
	}
	querySeconds := 60
	if queryTimeout != nil {
		if *queryTimeout < 1 {
			return SnowflakeConfig{}, fmt.Errorf("QUERY_TIMEOUT_SECONDS must be positive")
		}
		querySeconds = *queryTimeout
	}

	return SnowflakeConfig{
		Account:        strings.TrimSpace(os.Getenv("SNOWFLAKE_ACCOUNT")),
		Token:          strings.TrimSpace(os.Getenv("SNOWFLAKE_TOKEN")),
		Warehouse:      getEnvOrDefault("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH"),
		Database:       getEnvOrDefault("SNOWFLAKE_DATABASE", "DAMPIERMIKE"),
		Schema:         getEnvOrDefault("SNOWFLAKE_SCHEMA", "PUBLIC"),
		AnalystTimeout: time.Duration(analystSeconds) * time.Second,
		QueryTimeout:   time.Duration(querySeconds) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
