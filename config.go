package reviews

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Device selectors recognised by ConfigureDevice.
const (
	DeviceCPU = "CPU"
	DeviceGPU = "GPU"
)

// Config holds every externally configurable setting of the pipeline.
type Config struct {
	Device        string  `json:"device"`
	PositiveCap   float64 `json:"positive_cap"`
	NeutralCap    float64 `json:"neutral_cap"`
	WordIndexPath string  `json:"word_index_path"`
	TrainFilePath string  `json:"train_file_path"`
	TestFilePath  string  `json:"test_file_path"`
	ModelsDir     string  `json:"models_dir"`
	RegistryPath  string  `json:"registry_path"` // optional sqlite checkpoint catalogue
	MaxLen        int     `json:"max_len"`
	VocabSize     int     `json:"vocab_size"`

	// LegacyUnknownIndex maps unknown words to <PAD> instead of <UNK>.
	LegacyUnknownIndex bool `json:"legacy_unknown_index"`

	// StopWords is an ISO 639-1 code; when set, stop words are dropped before encoding.
	StopWords string `json:"stop_words"`
}

// DefaultConfig returns standard configuration
func DefaultConfig() Config {
	return Config{
		Device:        DeviceCPU,
		PositiveCap:   0.6,
		NeutralCap:    0.4,
		WordIndexPath: "./data/word_indexes.csv",
		TrainFilePath: "./data/train.csv",
		TestFilePath:  "./data/test.csv",
		ModelsDir:     "./models",
		MaxLen:        500,
		VocabSize:     10000,
	}
}

// LoadConfig reads configuration from a JSON file (if it exists), applies
// REVIEWS_* environment overrides and fills unset fields with defaults.
func LoadConfig(configPath string) (Config, error) {
	config := Config{}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			file, err := os.ReadFile(configPath)
			if err != nil {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := json.Unmarshal(file, &config); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := config.applyEnv(); err != nil {
		return Config{}, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"REVIEWS_DEVICE":          &c.Device,
		"REVIEWS_WORD_INDEX_PATH": &c.WordIndexPath,
		"REVIEWS_TRAIN_FILE_PATH": &c.TrainFilePath,
		"REVIEWS_TEST_FILE_PATH":  &c.TestFilePath,
		"REVIEWS_MODELS_DIR":      &c.ModelsDir,
		"REVIEWS_REGISTRY_PATH":   &c.RegistryPath,
		"REVIEWS_STOP_WORDS":      &c.StopWords,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"REVIEWS_POSITIVE_CAP": &c.PositiveCap,
		"REVIEWS_NEUTRAL_CAP":  &c.NeutralCap,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"REVIEWS_MAX_LEN":    &c.MaxLen,
		"REVIEWS_VOCAB_SIZE": &c.VocabSize,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("REVIEWS_LEGACY_UNKNOWN_INDEX"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid REVIEWS_LEGACY_UNKNOWN_INDEX: %w", err)
		}
		c.LegacyUnknownIndex = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Device == "" {
		c.Device = def.Device
	}
	// Both caps unset means the file did not configure thresholds at all.
	if c.PositiveCap == 0 && c.NeutralCap == 0 {
		c.PositiveCap = def.PositiveCap
		c.NeutralCap = def.NeutralCap
	}
	if c.WordIndexPath == "" {
		c.WordIndexPath = def.WordIndexPath
	}
	if c.TrainFilePath == "" {
		c.TrainFilePath = def.TrainFilePath
	}
	if c.TestFilePath == "" {
		c.TestFilePath = def.TestFilePath
	}
	if c.ModelsDir == "" {
		c.ModelsDir = def.ModelsDir
	}
	if c.MaxLen == 0 {
		c.MaxLen = def.MaxLen
	}
	if c.VocabSize == 0 {
		c.VocabSize = def.VocabSize
	}
	c.Device = strings.ToUpper(c.Device)
}

// Validate checks the thresholds, sizes and device selector.
func (c Config) Validate() error {
	if _, err := NewThresholds(c.PositiveCap, c.NeutralCap); err != nil {
		return err
	}
	if c.MaxLen <= 0 {
		return fmt.Errorf("max_len must be positive, got %d", c.MaxLen)
	}
	if c.VocabSize <= reservedCount {
		return fmt.Errorf("vocab_size must exceed %d reserved entries, got %d", reservedCount, c.VocabSize)
	}
	switch strings.ToUpper(c.Device) {
	case DeviceCPU, DeviceGPU:
	default:
		return fmt.Errorf("unknown device %q", c.Device)
	}
	return nil
}

// Thresholds returns the configured sentiment bands.
func (c Config) Thresholds() Thresholds {
	return Thresholds{Positive: c.PositiveCap, Neutral: c.NeutralCap}
}
