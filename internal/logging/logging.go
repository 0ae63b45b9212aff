// Package logging builds service logger. Every entry passes through ScrubHook,
// so emails and phone numbers never reach log output.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/inquiries/internal/config"
	"github.com/umalmyha/inquiries/internal/pii"
)

// New builds logger from LogCfg
func New(cfg config.LogCfg) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level - %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	if cfg.Json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.AddHook(NewScrubHook())

	return logger, nil
}

// ScrubHook masks PII in message and fields of every entry
type ScrubHook struct{}

func NewScrubHook() *ScrubHook {
	return &ScrubHook{}
}

func (h *ScrubHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *ScrubHook) Fire(e *logrus.Entry) error {
	e.Message = pii.ScrubString(e.Message)

	for k, v := range e.Data {
		switch val := v.(type) {
		case string:
			e.Data[k] = pii.ScrubString(val)
		case error:
			e.Data[k] = pii.ScrubString(val.Error())
		default:
			e.Data[k] = pii.ScrubPII(v)
		}
	}
	return nil
}
