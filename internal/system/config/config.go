/*
 * Copyright (c) 2025, Feathery, Inc. (https://feathery.io).
 *
 * Feathery, Inc. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package config provides the deployment configuration for the form runtime.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds the tunables of the orchestration engine.
type RuntimeConfig struct {
	// ValidationQuietPeriodMs is the debounce window for field validation.
	ValidationQuietPeriodMs int `yaml:"validation_quiet_period_ms"`
	// RerenderQuietPeriodMs is the longer debounce window for visibility-driven rerenders.
	RerenderQuietPeriodMs int `yaml:"rerender_quiet_period_ms"`
	// RuleTimeoutMs bounds the execution time of a single logic rule.
	RuleTimeoutMs int `yaml:"rule_timeout_ms"`
	// ClearHiddenFields resets a field to its type default when its position becomes invisible.
	ClearHiddenFields bool `yaml:"clear_hidden_fields"`
}

// DatabaseConfig holds the connection settings for the persistence store.
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"`
}

// Config is the top-level deployment configuration.
type Config struct {
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Database DatabaseConfig `yaml:"database"`
}

const (
	defaultValidationQuietPeriod = 750 * time.Millisecond
	defaultRerenderQuietPeriod   = 1500 * time.Millisecond
	defaultRuleTimeout           = 5 * time.Second
)

// LoadConfig loads the configurations from the specified YAML file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns a configuration with the runtime defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			ValidationQuietPeriodMs: int(defaultValidationQuietPeriod / time.Millisecond),
			RerenderQuietPeriodMs:   int(defaultRerenderQuietPeriod / time.Millisecond),
			RuleTimeoutMs:           int(defaultRuleTimeout / time.Millisecond),
		},
	}
}

// ValidationQuietPeriod returns the validation debounce window as a duration.
func (c *Config) ValidationQuietPeriod() time.Duration {
	if c.Runtime.ValidationQuietPeriodMs <= 0 {
		return defaultValidationQuietPeriod
	}
	return time.Duration(c.Runtime.ValidationQuietPeriodMs) * time.Millisecond
}

// RerenderQuietPeriod returns the rerender debounce window as a duration.
func (c *Config) RerenderQuietPeriod() time.Duration {
	if c.Runtime.RerenderQuietPeriodMs <= 0 {
		return defaultRerenderQuietPeriod
	}
	return time.Duration(c.Runtime.RerenderQuietPeriodMs) * time.Millisecond
}

// RuleTimeout returns the logic rule execution timeout as a duration.
func (c *Config) RuleTimeout() time.Duration {
	if c.Runtime.RuleTimeoutMs <= 0 {
		return defaultRuleTimeout
	}
	return time.Duration(c.Runtime.RuleTimeoutMs) * time.Millisecond
}
