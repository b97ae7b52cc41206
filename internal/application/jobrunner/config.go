// Package jobrunner simulates the asynchronous work behind the upload and
// chat views. Submissions return immediately with a pending record and a
// scheduler callback settles it later.
package jobrunner

import (
	"fmt"
	"time"
)

// Config holds the timing and accuracy band of the simulation
type Config struct {
	UploadBaseDelay time.Duration `mapstructure:"upload_base_delay"`
	UploadStagger   time.Duration `mapstructure:"upload_stagger"`
	AccuracyMin     int           `mapstructure:"accuracy_min"`
	AccuracyMax     int           `mapstructure:"accuracy_max"`
	ReplyDelay      time.Duration `mapstructure:"reply_delay"`
	ReplyTimeout    time.Duration `mapstructure:"reply_timeout"`
}

// DefaultConfig returns the stock simulation settings
func DefaultConfig() Config {
	return Config{
		UploadBaseDelay: 2000 * time.Millisecond,
		UploadStagger:   500 * time.Millisecond,
		AccuracyMin:     85,
		AccuracyMax:     94,
		ReplyDelay:      1500 * time.Millisecond,
		ReplyTimeout:    20 * time.Second,
	}
}

// Validate checks delays are non-negative and the accuracy band is inside 0..100
func (c Config) Validate() error {
	if c.UploadBaseDelay < 0 || c.UploadStagger < 0 || c.ReplyDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.AccuracyMin < 0 || c.AccuracyMax > 100 {
		return fmt.Errorf("accuracy band must be within 0 and 100, got %d-%d", c.AccuracyMin, c.AccuracyMax)
	}
	if c.AccuracyMin > c.AccuracyMax {
		return fmt.Errorf("AccuracyMin (%d) must not exceed AccuracyMax (%d)", c.AccuracyMin, c.AccuracyMax)
	}
	if c.ReplyTimeout <= 0 {
		return fmt.Errorf("reply timeout must be positive")
	}
	return nil
}

// SettleDelay returns when the index-th file of a batch settles
func (c Config) SettleDelay(index int) time.Duration {
	return c.UploadBaseDelay + time.Duration(index)*c.UploadStagger
}
