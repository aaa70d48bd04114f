package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// fileConfig mirrors Config for JSON and YAML files. Durations go through
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type fileConfig struct {
	HTTPAddr      string `json:"http_addr" yaml:"http_addr"`
	GRPCAddr      string `json:"grpc_addr" yaml:"grpc_addr"`
	Storage       string `json:"storage" yaml:"storage"`
	DatabaseDSN   string `json:"database_dsn" yaml:"database_dsn"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`

	AccessTokenSecret  string         `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret string         `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	AccessTokenTTL     timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL    timex.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	OTPTTL             timex.Duration `json:"otp_ttl" yaml:"otp_ttl"`
	APIKey             string         `json:"api_key" yaml:"api_key"`
	BcryptCost         int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`

	SMTPHost     string `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort     int    `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser     string `json:"smtp_user" yaml:"smtp_user"`
	SMTPPassword string `json:"smtp_password" yaml:"smtp_password"`
	SMTPFrom     string `json:"smtp_from" yaml:"smtp_from"`

	GoogleClientID     string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret" yaml:"google_client_secret"`
	GoogleRedirectURL  string `json:"google_redirect_url" yaml:"google_redirect_url"`

	S3RootUser     string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	AdminName     string `json:"admin_name" yaml:"admin_name"`
	AdminEmail    string `json:"admin_email" yaml:"admin_email"`
	AdminPassword string `json:"admin_password" yaml:"admin_password"`
	AdminPhone    string `json:"admin_phone_number" yaml:"admin_phone_number"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the file named with -c/-config. Keys missing from the
// file keep their current value because the DTO is pre-filled from cfg.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := toFile(cfg)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return err
	}

	fc.apply(cfg)
	return nil
}

func toFile(c *Config) *fileConfig {
	return &fileConfig{
		HTTPAddr:           c.HTTPAddr,
		GRPCAddr:           c.GRPCAddr,
		Storage:            c.Storage,
		DatabaseDSN:        c.DatabaseDSN,
		RedisAddr:          c.RedisAddr,
		RedisPassword:      c.RedisPassword,
		AccessTokenSecret:  c.AccessTokenSecret,
		RefreshTokenSecret: c.RefreshTokenSecret,
		AccessTokenTTL:     timex.Duration{Duration: c.AccessTokenTTL},
		RefreshTokenTTL:    timex.Duration{Duration: c.RefreshTokenTTL},
		OTPTTL:             timex.Duration{Duration: c.OTPTTL},
		APIKey:             c.APIKey,
		BcryptCost:         c.BcryptCost,
		SMTPHost:           c.SMTPHost,
		SMTPPort:           c.SMTPPort,
		SMTPUser:           c.SMTPUser,
		SMTPPassword:       c.SMTPPassword,
		SMTPFrom:           c.SMTPFrom,
		GoogleClientID:     c.GoogleClientID,
		GoogleClientSecret: c.GoogleClientSecret,
		GoogleRedirectURL:  c.GoogleRedirectURL,
		S3RootUser:         c.S3RootUser,
		S3RootPassword:     c.S3RootPassword,
		S3Bucket:           c.S3Bucket,
		S3Region:           c.S3Region,
		S3BaseEndpoint:     c.S3BaseEndpoint,
		AdminName:          c.AdminName,
		AdminEmail:         c.AdminEmail,
		AdminPassword:      c.AdminPassword,
		AdminPhone:         c.AdminPhone,
		LogLevel:           c.LogLevel,
	}
}

func (f *fileConfig) apply(c *Config) {
	c.HTTPAddr = f.HTTPAddr
	c.GRPCAddr = f.GRPCAddr
	c.Storage = f.Storage
	c.DatabaseDSN = f.DatabaseDSN
	c.RedisAddr = f.RedisAddr
	c.RedisPassword = f.RedisPassword
	c.AccessTokenSecret = f.AccessTokenSecret
	c.RefreshTokenSecret = f.RefreshTokenSecret
	c.AccessTokenTTL = f.AccessTokenTTL.Duration
	c.RefreshTokenTTL = f.RefreshTokenTTL.Duration
	c.OTPTTL = f.OTPTTL.Duration
	c.APIKey = f.APIKey
	c.BcryptCost = f.BcryptCost
	c.SMTPHost = f.SMTPHost
	c.SMTPPort = f.SMTPPort
	c.SMTPUser = f.SMTPUser
	c.SMTPPassword = f.SMTPPassword
	c.SMTPFrom = f.SMTPFrom
	c.GoogleClientID = f.GoogleClientID
	c.GoogleClientSecret = f.GoogleClientSecret
	c.GoogleRedirectURL = f.GoogleRedirectURL
	c.S3RootUser = f.S3RootUser
	c.S3RootPassword = f.S3RootPassword
	c.S3Bucket = f.S3Bucket
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
	c.AdminName = f.AdminName
	c.AdminEmail = f.AdminEmail
	c.AdminPassword = f.AdminPassword
	c.AdminPhone = f.AdminPhone
	c.LogLevel = f.LogLevel
}
