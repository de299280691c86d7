package configuration

import (
	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"pricewatch/internal/logger"
	"time"
)

type Config struct {
	ServerAddress      string
	DatabaseURI        string
	RedisAddress       string
	SearchAPIBaseURL   string
	SearchAPIKey       string
	DefaultLocation    string
	PriceCheckInterval time.Duration
	LogLevel           logger.Level
	LogToFile          bool
	AuthSecretKey      jwk.Key
}

type tomlConfig struct {
	ServerAddress      string `toml:"server_address"`
	DatabaseURI        string `toml:"database_uri"`
	RedisAddress       string `toml:"redis_address"`
	SearchAPIBaseURL   string `toml:"search_api_base_url"`
	SearchAPIKey       string `toml:"search_api_key"`
	DefaultLocation    string `toml:"default_location"`
	PriceCheckInterval string `toml:"price_check_interval"`
	LogLevel           string `toml:"log_level"`
	LogToFile          bool   `toml:"log_to_file"`
	AuthSecretKey      string `toml:"auth_secret_key"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}

	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}

	if tc.RedisAddress == "" {
		tc.RedisAddress = "localhost:6379"
	}

	if tc.SearchAPIBaseURL == "" {
		tc.SearchAPIBaseURL = "https://www.searchapi.io/api/v1/search"
	}

	if tc.SearchAPIKey == "" {
		return nil, errors.New("search_api_key is not set")
	}

	if tc.DefaultLocation == "" {
		tc.DefaultLocation = "India"
	}

	if tc.PriceCheckInterval == "" {
		tc.PriceCheckInterval = "2h"
	}
	priceCheckInterval, err := time.ParseDuration(tc.PriceCheckInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse price_check_interval: %s", tc.PriceCheckInterval)
	}
	if priceCheckInterval < 15*time.Second {
		return nil, errors.Errorf("price_check_interval too short (%v), minimum interval: 15s", priceCheckInterval)
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse log_level: %s", tc.LogLevel)
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	return &Config{
		ServerAddress:      tc.ServerAddress,
		DatabaseURI:        tc.DatabaseURI,
		RedisAddress:       tc.RedisAddress,
		SearchAPIBaseURL:   tc.SearchAPIBaseURL,
		SearchAPIKey:       tc.SearchAPIKey,
		DefaultLocation:    tc.DefaultLocation,
		PriceCheckInterval: priceCheckInterval,
		LogLevel:           logLevel,
		LogToFile:          tc.LogToFile,
		AuthSecretKey:      authSecretKey,
	}, nil
}
