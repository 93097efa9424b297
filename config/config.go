// Package config loads the simulation's tunable parameters from a YAML
// file and holds the Logger interface every core component is constructed
// with. Loading is two-stage: viper reads the file into an outer envelope,
// then the "def" section is re-marshalled through yaml.v3 into the typed
// config. The indirection lets tunables live under a single top-level YAML
// key alongside other top-level sections (station/vehicle file paths)
// without viper's own struct tags fighting yaml's.
package config

import (
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TunableParams are the recognized simulation options.
type TunableParams struct {
	LinearMaxSpeed             float64 `yaml:"linearMaxSpeed"`
	CurveMaxSpeed              float64 `yaml:"curveMaxSpeed"`
	LinearAcceleration         float64 `yaml:"linearAcceleration"`
	LinearDeceleration         float64 `yaml:"linearDeceleration"`
	CurveAcceleration          float64 `yaml:"curveAcceleration"`
	LinearPreBrakeDeceleration float64 `yaml:"linearPreBrakeDeceleration"`
	MaxDelta                   float64 `yaml:"maxDelta"`
	CollisionCheckInterval     int     `yaml:"collisionCheckInterval"`
	CurvePreBrakeCheckInterval int     `yaml:"curvePreBrakeCheckInterval"`
	BodyLength                 float64 `yaml:"bodyLength"`
	BodyWidth                  float64 `yaml:"bodyWidth"`
	StraightRequestDistance    float64 `yaml:"straightRequestDistance"`
	CurveRequestDistance       float64 `yaml:"curveRequestDistance"`
	ReleaseRatio               float64 `yaml:"releaseRatio"`
	MaxPathFindsPerFrame       int     `yaml:"maxPathFindsPerFrame"`
	MaxAttempts                int     `yaml:"maxAttempts"`
	MaxPathLength              int     `yaml:"maxPathLength"`
	MaxCheckpointsPerVehicle   int     `yaml:"maxCheckpointsPerVehicle"`
	PathCacheCapacity          int     `yaml:"pathCacheCapacity"`
}

// Defaults returns the default value for every tunable, applied for any
// key a loaded file omits.
func Defaults() TunableParams {
	return TunableParams{
		LinearMaxSpeed:             2.0,
		CurveMaxSpeed:              1.0,
		LinearAcceleration:         1.0,
		LinearDeceleration:         1.0,
		CurveAcceleration:          0.5,
		LinearPreBrakeDeceleration: 1.0,
		MaxDelta:                   0.5,
		CollisionCheckInterval:     5,
		CurvePreBrakeCheckInterval: 10,
		BodyLength:                 1.0,
		BodyWidth:                  0.6,
		StraightRequestDistance:    5.1,
		CurveRequestDistance:       1.0,
		ReleaseRatio:               0.01,
		MaxPathFindsPerFrame:       10,
		MaxAttempts:                5,
		MaxPathLength:              100,
		MaxCheckpointsPerVehicle:   256,
		PathCacheCapacity:          2000,
	}
}

// outerConfig is the top-level YAML envelope: a "def" key holding the
// tunables, plus a "kind" discriminator for future config variants.
type outerConfig struct {
	Kind string `mapstructure:"kind"`
	Def  any    `mapstructure:"def"`
}

// FromYaml reads tunables from the YAML file at path, filling any field the
// file omits with its Defaults() value.
func FromYaml(path string) (TunableParams, error) {
	params := Defaults()

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return params, err
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return params, err
	}

	// viper lower-cases every key it reads, so map each yaml tag of
	// TunableParams back from its lower-cased form before the round trip.
	def, _ := outer.Def.(map[string]any)
	keyed := make(map[string]any, len(def))
	fields := reflect.TypeOf(params)
	for i := 0; i < fields.NumField(); i++ {
		tag := fields.Field(i).Tag.Get("yaml")
		if v, ok := def[strings.ToLower(tag)]; ok {
			keyed[tag] = v
		}
	}
	raw, err := yaml.Marshal(keyed)
	if err != nil {
		return params, err
	}

	// Unmarshal onto the already-defaulted struct so omitted keys keep
	// their default value instead of zeroing out.
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return params, err
	}
	return params, nil
}
