package system

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"hostwatch-agent/internal/model"
)

// DefaultSensorsChip is the Apple SMC hwmon chip reported by lm-sensors on Asahi hosts.
const DefaultSensorsChip = "macsmc_hwmon-isa-0000"

type sensorKind int

const (
	sensorVoltage sensorKind = iota
	sensorFan
	sensorTemperature
	sensorPower
	sensorCurrent
)

var sensorFeatures = []struct {
	label string
	kind  sensorKind
}{
	{"AC Input Voltage", sensorVoltage},
	{"Fan", sensorFan},
	{"NAND Flash Temperature", sensorTemperature},
	{"WiFi/BT Module Temp", sensorTemperature},
	{"Total System Power", sensorPower},
	{"AC Input Power", sensorPower},
	{"3.8 V Rail Power", sensorPower},
	{"AC Input Current", sensorCurrent},
}

func ReadSensors(ctx context.Context, src Source, chip string) ([]model.SensorReading, error) {
	raw, err := src.Run(ctx, "sensors", "-j")
	if err != nil {
		return nil, err
	}
	return ParseSensors(raw, chip)
}

// ParseSensors maps the known features of one chip from `sensors -j` to
// readings sorted by name. Unknown features are ignored.
func ParseSensors(raw []byte, chip string) ([]model.SensorReading, error) {
	if chip == "" {
		chip = DefaultSensorsChip
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode sensors output: %w", err)
	}
	chipRaw, ok := root[chip]
	if !ok {
		return nil, fmt.Errorf("%w: sensor chip %q", ErrMissingField, chip)
	}
	var features map[string]json.RawMessage
	if err := json.Unmarshal(chipRaw, &features); err != nil {
		return nil, fmt.Errorf("decode sensor chip %q: %w", chip, err)
	}
	if _, ok := features["Adapter"]; !ok {
		return nil, fmt.Errorf("%w: %s.Adapter", ErrMissingField, chip)
	}

	out := []model.SensorReading{}
	for _, f := range sensorFeatures {
		featureRaw, ok := features[f.label]
		if !ok {
			continue
		}
		var values map[string]float64
		if err := json.Unmarshal(featureRaw, &values); err != nil {
			return nil, fmt.Errorf("decode sensor %q: %w", f.label, err)
		}
		readings, err := sensorReadings(f.label, f.kind, values)
		if err != nil {
			return nil, err
		}
		out = append(out, readings...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func sensorReadings(label string, kind sensorKind, values map[string]float64) ([]model.SensorReading, error) {
	switch kind {
	case sensorVoltage:
		v, ok := values["in0_input"]
		if !ok {
			return nil, fmt.Errorf("%w: %s.in0_input", ErrMissingField, label)
		}
		return []model.SensorReading{{
			Name:    label,
			Value:   strconv.FormatFloat(v, 'f', 2, 64),
			Unit:    "V",
			Current: floatPtr(v),
		}}, nil
	case sensorFan:
		input, okIn := values["fan1_input"]
		minV, okMin := values["fan1_min"]
		maxV, okMax := values["fan1_max"]
		if !okIn || !okMin || !okMax {
			return nil, fmt.Errorf("%w: %s.fan1_input/min/max", ErrMissingField, label)
		}
		return []model.SensorReading{{
			Name:    "Fan Speed",
			Value:   strconv.FormatFloat(input, 'f', 0, 64),
			Unit:    "RPM",
			Min:     floatPtr(minV),
			Max:     floatPtr(maxV),
			Current: floatPtr(input),
		}}, nil
	}

	out := make([]model.SensorReading, 0, len(values))
	for key, v := range values {
		r := model.SensorReading{
			Name:    fmt.Sprintf("%s (%s)", label, key),
			Current: floatPtr(v),
		}
		switch kind {
		case sensorTemperature:
			r.Value = strconv.FormatFloat(v, 'f', 1, 64)
			r.Unit = "°C"
		case sensorPower:
			r.Value = strconv.FormatFloat(v, 'f', 2, 64)
			r.Unit = "W"
		case sensorCurrent:
			r.Value = strconv.FormatFloat(v*1000, 'f', 0, 64)
			r.Unit = "mA"
		}
		out = append(out, r)
	}
	return out, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
