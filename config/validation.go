package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate validates the API configuration
func (a *APIConfig) Validate() error {
	var errs []string

	if a.BaseURL == "" {
		errs = append(errs, "base_url cannot be empty")
	}

	if a.GameID <= 0 {
		errs = append(errs, "game_id must be positive")
	}

	if a.PrivateKey == "" {
		errs = append(errs, "private_key cannot be empty")
	}

	validDigests := []string{"md5", "sha1"}
	isValidDigest := false
	for _, digest := range validDigests {
		if a.Digest == digest {
			isValidDigest = true
			break
		}
	}

	if !isValidDigest {
		errs = append(errs, fmt.Sprintf("digest must be one of: %s", strings.Join(validDigests, ", ")))
	}

	if a.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string

	validAdapters := []string{"memory", "redis", "sql", "file"}
	isValidAdapter := false
	for _, adapter := range validAdapters {
		if s.Adapter == adapter {
			isValidAdapter = true
			break
		}
	}

	if !isValidAdapter {
		errs = append(errs, fmt.Sprintf("adapter must be one of: %s", strings.Join(validAdapters, ", ")))
	}

	// Validate adapter-specific configs
	switch s.Adapter {
	case "file":
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	case "sql":
		if s.SQL.DSN == "" {
			errs = append(errs, "sql config: dsn cannot be empty")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if l.Level == level {
			isValidLevel = true
			break
		}
	}

	if !isValidLevel {
		errs = append(errs, fmt.Sprintf("level must be one of: %s", strings.Join(validLevels, ", ")))
	}

	validFormats := []string{"json", "text"}
	isValidFormat := false
	for _, format := range validFormats {
		if l.Format == format {
			isValidFormat = true
			break
		}
	}

	if !isValidFormat {
		errs = append(errs, fmt.Sprintf("format must be one of: %s", strings.Join(validFormats, ", ")))
	}

	validOutputs := []string{"stdout", "stderr"}
	isValidOutput := false
	for _, output := range validOutputs {
		if l.Output == output {
			isValidOutput = true
			break
		}
	}

	if !isValidOutput {
		errs = append(errs, fmt.Sprintf("output must be one of: %s", strings.Join(validOutputs, ", ")))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates avatar cache configuration
func (a *AvatarConfig) Validate() error {
	if a.Enabled && a.Size <= 0 {
		return errors.New("size must be positive when the avatar cache is enabled")
	}
	return nil
}
