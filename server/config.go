package madrigal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maroda/madrigal/cycle"
)

// ConfigFile is a session setup, read from JSON or YAML.
// Anything left out takes the scheduler defaults.
type ConfigFile struct {
	Sheet           string   `json:"sheet" yaml:"sheet"`
	CPS             string   `json:"cps,omitempty" yaml:"cps,omitempty"` // "1/2", "0.5" or "2"
	CPM             float64  `json:"cpm,omitempty" yaml:"cpm,omitempty"` // cycles per minute, wins over cps
	TickMillis      int      `json:"tickMillis,omitempty" yaml:"tickMillis,omitempty"`
	LookaheadMillis int      `json:"lookaheadMillis,omitempty" yaml:"lookaheadMillis,omitempty"`
	Outputs         []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Transformers    []string `json:"transformers,omitempty" yaml:"transformers,omitempty"`
	Samples         []string `json:"samples,omitempty" yaml:"samples,omitempty"` // strudel.json URLs, paths or github: refs
	BadgerPath      string   `json:"badgerPath,omitempty" yaml:"badgerPath,omitempty"`
	BatchSize       int      `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`
	MIDIPort        int      `json:"midiPort,omitempty" yaml:"midiPort,omitempty"`
	MIDIChannel     uint8    `json:"midiChannel,omitempty" yaml:"midiChannel,omitempty"`
	HTTPAddr        string   `json:"httpAddr,omitempty" yaml:"httpAddr,omitempty"`
	Telemetry       string   `json:"telemetry,omitempty" yaml:"telemetry,omitempty"` // none, honeycomb, otlp
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (*ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes YAML for .yaml and .yml files, JSON for anything else
func LoadConfig(file *os.File) (*ConfigFile, error) {
	config := &ConfigFile{}

	switch strings.ToLower(filepath.Ext(file.Name())) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(config); err != nil {
			slog.Error("could not decode file", slog.Any("Error", err))
			return nil, fmt.Errorf("could not decode %s: %w", file.Name(), err)
		}
	default:
		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(config); err != nil {
			slog.Error("could not decode file", slog.Any("Error", err))
			return nil, fmt.Errorf("could not decode %s: %w", file.Name(), err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides settings from MADRIGAL_* environment variables
func (c *ConfigFile) ApplyEnv() {
	if v := FillEnvVar("MADRIGAL_SHEET"); v != "ENOENT" {
		c.Sheet = v
	}
	if v := FillEnvVar("MADRIGAL_CPS"); v != "ENOENT" {
		c.CPS = v
		c.CPM = 0
	}
	if v := FillEnvVar("MADRIGAL_OUTPUTS"); v != "ENOENT" {
		c.Outputs = strings.Split(v, ",")
	}
	if v := FillEnvVar("MADRIGAL_SAMPLES"); v != "ENOENT" {
		c.Samples = strings.Split(v, ",")
	}
	if v := FillEnvVar("MADRIGAL_BADGER_PATH"); v != "ENOENT" {
		c.BadgerPath = v
	}
	if v := FillEnvVar("MADRIGAL_HTTP_ADDR"); v != "ENOENT" {
		c.HTTPAddr = v
	}
	if v := FillEnvVar("MADRIGAL_TELEMETRY"); v != "ENOENT" {
		c.Telemetry = v
	}
	c.TickMillis = FillEnvVarInt("MADRIGAL_TICK_MILLIS", c.TickMillis)
	c.LookaheadMillis = FillEnvVarInt("MADRIGAL_LOOKAHEAD_MILLIS", c.LookaheadMillis)
	c.MIDIPort = FillEnvVarInt("MADRIGAL_MIDI_PORT", c.MIDIPort)
}

// Validate catches settings the scheduler would refuse
func (c *ConfigFile) Validate() error {
	if _, err := c.Tempo(); err != nil {
		return err
	}
	if c.TickMillis < 0 || c.LookaheadMillis < 0 {
		return fmt.Errorf("tick and lookahead cannot be negative")
	}
	if c.MIDIChannel > 15 {
		return fmt.Errorf("midi channel %d out of range 0-15", c.MIDIChannel)
	}
	return nil
}

// Tempo is the configured cycles per second, DefaultCPS when unset
func (c *ConfigFile) Tempo() (cycle.Fraction, error) {
	if c.CPM != 0 {
		cpm, err := cycle.FromFloat(c.CPM)
		if err != nil {
			return cycle.Fraction{}, err
		}
		if cpm.Sign() <= 0 {
			return cycle.Fraction{}, fmt.Errorf("%w: cpm %v", ErrInvalidCPS, c.CPM)
		}
		return cpm.MustDiv(cycle.Int(60)), nil
	}
	if c.CPS == "" {
		return DefaultCPS, nil
	}
	cps, err := cycle.Parse(c.CPS)
	if err != nil {
		return cycle.Fraction{}, err
	}
	if cps.Sign() <= 0 {
		return cycle.Fraction{}, fmt.Errorf("%w: %s", ErrInvalidCPS, c.CPS)
	}
	return cps, nil
}

func (c *ConfigFile) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

func (c *ConfigFile) Lookahead() time.Duration {
	return time.Duration(c.LookaheadMillis) * time.Millisecond
}
