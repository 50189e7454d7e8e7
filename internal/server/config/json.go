package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avolkov/minipost/internal/flagx"
	"github.com/avolkov/minipost/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "168h"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	Env                   string         `json:"env"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.ConfigFilePath().
//  2. If empty, no JSON is loaded and the function returns.
//
// The DTO is pre-filled from the current Config before unmarshalling, so
// keys absent from the file keep their current values and partial files are
// safe. Panics on read or unmarshal errors.
//
// Intended usage is: defaults -> parseJson -> parseEnv -> parseFlags, where
// later stages override earlier ones.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		EndpointAddrHTTP:      config.EndpointAddrHTTP,
		Env:                   config.Env,
		DatabaseDSN:           config.DatabaseDSN,
		SecretKey:             config.SecretKey,
		TokenValidityDuration: timex.Duration{Duration: config.TokenValidityDuration},
		BcryptCost:            config.BcryptCost,
		CORSAllowedOrigins:    config.CORSAllowedOrigins,
		S3RootUser:            config.S3RootUser,
		S3RootPassword:        config.S3RootPassword,
		S3Bucket:              config.S3Bucket,
		S3Region:              config.S3Region,
		S3BaseEndpoint:        config.S3BaseEndpoint,
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.Env = c.Env
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.BcryptCost = c.BcryptCost
	config.CORSAllowedOrigins = c.CORSAllowedOrigins
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
