package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the applyhawk agent.
type Config struct {
	LLM         LLMConfig
	Suitability SuitabilityConfig
	ResumePath  string
	StorePath   string
}

// LLMConfig controls backend selection and the invocation layer. All fields
// are resolved before construction and read-only afterwards.
type LLMConfig struct {
	Provider   string        // "openai" or "ollama"
	Model      string        // hosted model identifier, e.g. "gpt-4o-mini"
	APIURL     string        // hosted endpoint override, empty for the provider default
	APIKey     string        // expanded from env var by Load
	LocalOnly  bool          // always construct the local backend, whatever Provider says
	LocalModel string        // model served by the local Ollama instance
	LocalURL   string        // local Ollama URL, empty for localhost default
	MaxRetries int           // total attempt ceiling per call
	RetryDelay time.Duration // initial backoff delay, doubled per retry
	Timeout    time.Duration // per-request HTTP timeout
	CallsLog   string        // path of the append-only call log
}

// SuitabilityConfig holds the job-fit scoring threshold.
type SuitabilityConfig struct {
	MinScore int // minimum score (out of 10) for a job to be worth applying to
}

const (
	defaultLocalModel = "phi3:latest"
	defaultCallsLog   = "data/output/llm_calls.json"
	defaultStorePath  = "answers.db"
	defaultMinScore   = 6
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as
// strings).
type rawConfig struct {
	LLM         rawLLMConfig   `yaml:"llm"`
	Suitability rawSuitability `yaml:"suitability"`
	ResumePath  string         `yaml:"resume_path"`
	StorePath   string         `yaml:"store_path"`
}

type rawLLMConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIURL     string `yaml:"api_url"`
	APIKey     string `yaml:"api_key"`
	LocalOnly  *bool  `yaml:"local_only"`
	LocalModel string `yaml:"local_model"`
	LocalURL   string `yaml:"local_url"`
	MaxRetries int    `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
	Timeout    string `yaml:"timeout"`
	CallsLog   string `yaml:"calls_log"`
}

type rawSuitability struct {
	MinScore int `yaml:"min_score"`
}

// Load reads and parses the YAML config file at path, expands environment
// variables, applies defaults, validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (API keys live in the environment).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	retryDelay := 30 * time.Second // default
	if raw.LLM.RetryDelay != "" {
		retryDelay, err = time.ParseDuration(raw.LLM.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("parse llm.retry_delay %q: %w", raw.LLM.RetryDelay, err)
		}
	}

	timeout := 2 * time.Minute // local models are slow; generous default
	if raw.LLM.Timeout != "" {
		timeout, err = time.ParseDuration(raw.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse llm.timeout %q: %w", raw.LLM.Timeout, err)
		}
	}

	maxRetries := raw.LLM.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}

	// Local-only is the default deployment mode; an explicit false enables
	// hosted providers.
	localOnly := true
	if raw.LLM.LocalOnly != nil {
		localOnly = *raw.LLM.LocalOnly
	}

	localModel := raw.LLM.LocalModel
	if localModel == "" {
		localModel = defaultLocalModel
	}

	callsLog := raw.LLM.CallsLog
	if callsLog == "" {
		callsLog = defaultCallsLog
	}

	storePath := raw.StorePath
	if storePath == "" {
		storePath = defaultStorePath
	}

	minScore := raw.Suitability.MinScore
	if minScore == 0 {
		minScore = defaultMinScore
	}

	cfg := &Config{
		LLM: LLMConfig{
			Provider:   raw.LLM.Provider,
			Model:      raw.LLM.Model,
			APIURL:     raw.LLM.APIURL,
			APIKey:     raw.LLM.APIKey,
			LocalOnly:  localOnly,
			LocalModel: localModel,
			LocalURL:   raw.LLM.LocalURL,
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
			Timeout:    timeout,
			CallsLog:   callsLog,
		},
		Suitability: SuitabilityConfig{MinScore: minScore},
		ResumePath:  raw.ResumePath,
		StorePath:   storePath,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm.max_retries must be at least 1, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.LLM.RetryDelay <= 0 {
		return fmt.Errorf("llm.retry_delay must be positive, got %v", cfg.LLM.RetryDelay)
	}

	if !cfg.LLM.LocalOnly {
		if cfg.LLM.Provider == "" {
			return fmt.Errorf("llm.provider is required when llm.local_only is false")
		}
		if cfg.LLM.Provider == "openai" {
			if cfg.LLM.APIKey == "" {
				return fmt.Errorf("llm.api_key is required for the openai provider")
			}
			if cfg.LLM.Model == "" {
				return fmt.Errorf("llm.model is required for the openai provider")
			}
		}
	}

	if cfg.Suitability.MinScore < 1 || cfg.Suitability.MinScore > 10 {
		return fmt.Errorf("suitability.min_score must be between 1 and 10, got %d", cfg.Suitability.MinScore)
	}

	return nil
}
