package milestone

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the threshold tables for every milestone kind. Tables
// are typically loaded from a YAML file; Defaults() supplies the
// built-in tables when no file is configured.
type Config struct {
	Sobriety      []Threshold `yaml:"sobriety"`
	MeetingCount  []Threshold `yaml:"meeting_count"`
	MeetingStreak []Threshold `yaml:"meeting_streak"`
}

// Defaults returns the built-in threshold tables: 24 hours through one
// year for sobriety, first meeting through 100 meetings for attendance
// counts, and week-scale runs for attendance streaks.
func Defaults() Config {
	return Config{
		Sobriety: []Threshold{
			{Value: 1, Label: "24 hours"},
			{Value: 7, Label: "1 week"},
			{Value: 30, Label: "30 days"},
			{Value: 60, Label: "60 days"},
			{Value: 90, Label: "90 days"},
			{Value: 180, Label: "6 months"},
			{Value: 365, Label: "1 year"},
		},
		MeetingCount: []Threshold{
			{Value: 1, Label: "first meeting"},
			{Value: 5, Label: "5 meetings"},
			{Value: 10, Label: "10 meetings"},
			{Value: 25, Label: "25 meetings"},
			{Value: 50, Label: "50 meetings"},
			{Value: 100, Label: "100 meetings"},
		},
		MeetingStreak: []Threshold{
			{Value: 7, Label: "7-day meeting streak"},
			{Value: 30, Label: "30-day meeting streak"},
			{Value: 90, Label: "90-day meeting streak"},
		},
	}
}

// LoadConfig loads threshold tables from a YAML file. Values support
// environment variable expansion in the form ${VAR} or ${VAR:default}.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read milestone config %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse milestone config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid milestone config: %w", err)
	}

	cfg.sortTables()
	return &cfg, nil
}

// For returns the threshold table for a kind.
func (c Config) For(kind Kind) []Threshold {
	switch kind {
	case KindSobriety:
		return c.Sobriety
	case KindMeetingCount:
		return c.MeetingCount
	case KindMeetingStreak:
		return c.MeetingStreak
	}
	return nil
}

// Validate checks every table for empty, non-positive, and duplicate
// values.
func (c Config) Validate() error {
	tables := map[string][]Threshold{
		"sobriety":       c.Sobriety,
		"meeting_count":  c.MeetingCount,
		"meeting_streak": c.MeetingStreak,
	}

	for name, table := range tables {
		if len(table) == 0 {
			return fmt.Errorf("threshold table %s is empty", name)
		}

		seen := make(map[int]bool, len(table))
		for _, th := range table {
			if th.Value <= 0 {
				return fmt.Errorf("threshold table %s has non-positive value %d", name, th.Value)
			}
			if seen[th.Value] {
				return fmt.Errorf("duplicate value %d in threshold table %s", th.Value, name)
			}
			seen[th.Value] = true
		}
	}

	return nil
}

// sortTables orders every table ascending so callers see thresholds in
// crossing order regardless of file layout.
func (c *Config) sortTables() {
	for _, table := range [][]Threshold{c.Sobriety, c.MeetingCount, c.MeetingStreak} {
		sort.Slice(table, func(i, j int) bool { return table[i].Value < table[j].Value })
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or
// ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
