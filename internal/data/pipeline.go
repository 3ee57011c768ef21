package data

import (
	"time"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/conf"
	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/linkdetect"

	"github.com/go-kratos/kratos/v2/log"
)

// NewLinkDetector builds the link detector from configuration.
func NewLinkDetector(c *conf.Moderation) *linkdetect.Detector {
	cfg := linkdetect.DefaultConfig()
	if c.Links.WideWindow > 0 {
		cfg.WideWindow = c.Links.WideWindow
	}
	if c.Links.DisableWideWindow {
		cfg.EnableWideWindow = false
	}
	if c.Links.DisableHindiPhrase {
		cfg.EnableHindiPhrase = false
	}
	return linkdetect.New(cfg)
}

// NewClassifier builds the abuse classifier from configuration.
func NewClassifier(c *conf.Moderation, logger log.Logger) biz.Classifier {
	cfg := abuse.DefaultConfig()
	cfg.APIKey = c.Abuse.APIKey
	if c.Abuse.Model != "" {
		cfg.Model = c.Abuse.Model
	}
	if c.Abuse.BaseURL != "" {
		cfg.BaseURL = c.Abuse.BaseURL
	}
	if c.Abuse.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(c.Abuse.TimeoutSeconds) * time.Second
	}
	return abuse.New(cfg, logger)
}

// NewAbuseConfig extracts the abuse-stage settings.
func NewAbuseConfig(c *conf.Moderation) biz.AbuseConfig {
	return biz.AbuseConfig{
		Enabled:   c.Abuse.Enabled,
		Threshold: c.Abuse.Threshold,
	}
}

// NewDelayDefaults extracts the global auto-expiry delays.
func NewDelayDefaults(c *conf.Moderation) biz.DelayDefaults {
	return biz.DelayDefaults{
		Edit:    time.Duration(c.Delays.EditSeconds) * time.Second,
		Media:   time.Duration(c.Delays.MediaSeconds) * time.Second,
		Sticker: time.Duration(c.Delays.StickerSeconds) * time.Second,
	}
}
