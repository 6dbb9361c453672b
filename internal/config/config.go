package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

const (
	EnvironmentProduction = "production"
	EnvironmentLocal      = "local"

	ResolverSystem = "system"
	ResolverDNS    = "dns"

	SecretsModePlain    = "plain"
	SecretsModeKMS      = "kms"
	SecretsModeEnvelope = "envelope"
)

type Config struct {
	AWSConfig      *aws.Config
	AppLogLevel    slog.Level
	AppEnvironment string
	DebugMode      bool
	DebugDataPath  string

	// email validation
	AppDNSResolver        string
	AppDNSServer          string
	AppEmailPolicyPath    string
	AppEmailValidationURL string
	AppRequireTerms       bool

	// secrets
	AppSecretsMode string
	AppKmsKeyId    string

	// voice api
	VoiceAPIHost     string
	VoiceServerKey   string
	VoiceAssistantID string
	VoiceTokenTTL    time.Duration

	// lead notification
	AppLeadNotifyEnabled            bool
	AppLeadNotifyProvider           string
	AppLeadNotifyFailoverProviders  []string
	AppLeadNotifyCacheTTL           time.Duration
	AppLeadNotifySrcAddress         string
	AppLeadNotifyDstAddress         string
	AppLeadNotifySESTemplateID      string
	AppLeadNotifySendGridTemplateID string
	AppLeadNotifyTemplateData       string
	AppSendEnabled                  bool
	SendGridEmailSendApiKey         string
}

// New reads the configuration from the environment. The AWS SDK config is
// only loaded when a component needs it.
func New() (*Config, error) {
	cfg := FromEnv()

	if cfg.needsAWS() {
		awscfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, err
		}
		cfg.AWSConfig = &awscfg
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv builds a Config from environment variables without touching AWS
// and without validating it.
func FromEnv() *Config {
	cfg := Config{
		AppLogLevel:           slog.LevelInfo,
		AppEnvironment:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENVIRONMENT"))),
		DebugMode:             os.Getenv("APP_DEBUG_MODE") == "true",
		DebugDataPath:         os.Getenv("APP_DEBUG_DATA_PATH"),
		AppDNSResolver:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_DNS_RESOLVER"))),
		AppDNSServer:          strings.TrimSpace(os.Getenv("APP_DNS_SERVER")),
		AppEmailPolicyPath:    os.Getenv("APP_EMAIL_POLICY_PATH"),
		AppEmailValidationURL: strings.TrimSpace(os.Getenv("APP_EMAIL_VALIDATION_URL")),
		AppRequireTerms:       os.Getenv("APP_REQUIRE_TERMS") != "false",
		AppSecretsMode:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_SECRETS_MODE"))),
		AppKmsKeyId:           os.Getenv("APP_KMS_KEY_ID"),
		VoiceAPIHost:          os.Getenv("APP_VOICE_API_HOST"),
		VoiceServerKey:        os.Getenv("APP_VOICE_SERVER_KEY"),
		VoiceAssistantID:      os.Getenv("APP_VOICE_ASSISTANT_ID"),
		VoiceTokenTTL:         5 * time.Minute,

		AppLeadNotifyEnabled:            os.Getenv("APP_LEAD_NOTIFY_ENABLED") == "true",
		AppLeadNotifyProvider:           os.Getenv("APP_LEAD_NOTIFY_PROVIDER"),
		AppLeadNotifyFailoverProviders:  splitList(os.Getenv("APP_LEAD_NOTIFY_FAILOVER_PROVIDERS")),
		AppLeadNotifyCacheTTL:           30 * time.Second,
		AppLeadNotifySrcAddress:         os.Getenv("APP_LEAD_NOTIFY_SRC_ADDRESS"),
		AppLeadNotifyDstAddress:         os.Getenv("APP_LEAD_NOTIFY_DST_ADDRESS"),
		AppLeadNotifySESTemplateID:      os.Getenv("APP_LEAD_NOTIFY_SES_TEMPLATE_ID"),
		AppLeadNotifySendGridTemplateID: os.Getenv("APP_LEAD_NOTIFY_SENDGRID_TEMPLATE_ID"),
		AppLeadNotifyTemplateData:       os.Getenv("APP_LEAD_NOTIFY_TEMPLATE_DATA"),
		AppSendEnabled:                  true,
		SendGridEmailSendApiKey:         os.Getenv("APP_SENDGRID_EMAIL_SEND_API_KEY"),
	}

	// disable send if debug mode by default
	if cfg.DebugMode && os.Getenv("APP_SEND_ENABLED") != "true" {
		cfg.AppSendEnabled = false
	}
	if os.Getenv("APP_SEND_ENABLED") == "false" {
		cfg.AppSendEnabled = false
	}

	if levelStr := os.Getenv("APP_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.AppLogLevel = level
		}
	}

	switch cfg.AppEnvironment {
	case EnvironmentProduction, EnvironmentLocal:
	case "":
		cfg.AppEnvironment = EnvironmentProduction
	default:
		slog.Warn("unknown environment, defaulting to production", "environment", cfg.AppEnvironment)
		cfg.AppEnvironment = EnvironmentProduction
	}

	switch cfg.AppDNSResolver {
	case ResolverSystem, ResolverDNS:
	case "":
		cfg.AppDNSResolver = ResolverSystem
	default:
		slog.Warn("unknown dns resolver, defaulting to system", "resolver", cfg.AppDNSResolver)
		cfg.AppDNSResolver = ResolverSystem
	}

	if cfg.AppSecretsMode == "" {
		cfg.AppSecretsMode = SecretsModePlain
	}

	if cfg.VoiceAPIHost == "" {
		cfg.VoiceAPIHost = "https://api.vapi.ai"
	}

	if ttlStr := os.Getenv("APP_VOICE_TOKEN_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil && ttl > 0 {
			cfg.VoiceTokenTTL = ttl
		} else {
			slog.Warn("invalid APP_VOICE_TOKEN_TTL, using default", "value", ttlStr, "default", "5m")
		}
	}

	if cfg.AppLeadNotifyProvider == "" {
		cfg.AppLeadNotifyProvider = "ses"
	}

	if ttlStr := os.Getenv("APP_LEAD_NOTIFY_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil {
			cfg.AppLeadNotifyCacheTTL = ttl
		} else {
			slog.Warn("invalid APP_LEAD_NOTIFY_CACHE_TTL, using default", "value", ttlStr, "default", "30s")
		}
	}

	// deprecated
	if cfg.VoiceServerKey == "" && os.Getenv("VAPI_TOKEN") != "" {
		cfg.VoiceServerKey = os.Getenv("VAPI_TOKEN")
		slog.Warn("deprecated env var used", "old", "VAPI_TOKEN", "new", "APP_VOICE_SERVER_KEY")
	}

	if cfg.VoiceAssistantID == "" && os.Getenv("VOICE_ASSISTANT_ID") != "" {
		cfg.VoiceAssistantID = os.Getenv("VOICE_ASSISTANT_ID")
		slog.Warn("deprecated env var used", "old", "VOICE_ASSISTANT_ID", "new", "APP_VOICE_ASSISTANT_ID")
	}

	return &cfg
}

// IsLocal reports whether the functions run in a local development context.
func (c *Config) IsLocal() bool {
	return c.AppEnvironment == EnvironmentLocal
}

func (c *Config) needsAWS() bool {
	if c.AppSecretsMode == SecretsModeKMS || c.AppSecretsMode == SecretsModeEnvelope {
		return true
	}
	if !c.AppLeadNotifyEnabled {
		return false
	}
	for _, p := range c.LeadNotifyProviders() {
		if p == "ses" {
			return true
		}
	}
	return false
}

// LeadNotifyProviders returns the primary provider followed by the failover chain.
func (c *Config) LeadNotifyProviders() []string {
	return append([]string{c.AppLeadNotifyProvider}, c.AppLeadNotifyFailoverProviders...)
}

// Validate checks that required configuration fields are set and valid
func (c *Config) Validate() error {
	switch c.AppSecretsMode {
	case SecretsModePlain:
	case SecretsModeKMS, SecretsModeEnvelope:
		if c.AppKmsKeyId == "" {
			return errors.New("APP_KMS_KEY_ID is required when secrets are encrypted")
		}
	default:
		return errors.New("invalid secrets mode: " + c.AppSecretsMode + " (must be 'plain', 'kms' or 'envelope')")
	}

	if c.AppDNSResolver == ResolverDNS && c.AppDNSServer == "" {
		if _, err := os.Stat(resolvConfPath); err != nil {
			return errors.New("APP_DNS_SERVER is required when " + resolvConfPath + " is unavailable")
		}
	}

	if !c.AppLeadNotifyEnabled {
		return nil
	}

	if c.AppLeadNotifySrcAddress == "" || c.AppLeadNotifyDstAddress == "" {
		return errors.New("APP_LEAD_NOTIFY_SRC_ADDRESS and APP_LEAD_NOTIFY_DST_ADDRESS are required when lead notification is enabled")
	}

	validProviders := map[string]bool{"ses": true, "sendgrid": true}
	for _, p := range c.LeadNotifyProviders() {
		if !validProviders[p] {
			return errors.New("invalid lead notify provider: " + p + " (must be 'ses' or 'sendgrid')")
		}
		if p == "ses" && c.AppLeadNotifySESTemplateID == "" {
			return errors.New("APP_LEAD_NOTIFY_SES_TEMPLATE_ID is required when ses is in the provider chain")
		}
		if p == "sendgrid" {
			if c.SendGridEmailSendApiKey == "" {
				return errors.New("APP_SENDGRID_EMAIL_SEND_API_KEY is required when sendgrid is in the provider chain")
			}
			if c.AppLeadNotifySendGridTemplateID == "" {
				return errors.New("APP_LEAD_NOTIFY_SENDGRID_TEMPLATE_ID is required when sendgrid is in the provider chain")
			}
		}
	}

	return nil
}

// ValidateVoice checks the settings the voice functions depend on.
func (c *Config) ValidateVoice() error {
	if c.VoiceServerKey == "" || c.VoiceAssistantID == "" {
		return errors.New("APP_VOICE_SERVER_KEY and APP_VOICE_ASSISTANT_ID are required")
	}
	return nil
}

const resolvConfPath = "/etc/resolv.conf"

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	items := strings.Split(s, ",")
	for i, x := range items {
		items[i] = strings.TrimSpace(x)
	}
	return items
}
