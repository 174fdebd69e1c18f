package visualization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"hermannm.dev/widgets/pivot"
	"hermannm.dev/wrap"
)

// A visualization configuration, tagged by its Type. Every visualization type has its own
// concrete config struct, so code that switches on the concrete type can only read the fields
// that are valid for that type. Configs are passed around as values.
type Config interface {
	Type() Type
	Common() Axes
	Validate() error
}

// Optional fields shared by all visualization types.
type Axes struct {
	XAxis      string   `json:"xAxis,omitempty"`
	YAxes      []string `json:"yAxes,omitempty"`
	Color      string   `json:"color,omitempty"`
	ShowLabels bool     `json:"showLabels,omitempty"`
}

func (axes Axes) Common() Axes {
	return axes
}

func (axes Axes) validate() error {
	for i, yAxis := range axes.YAxes {
		if yAxis == "" {
			return fmt.Errorf("y-axis %d is blank", i)
		}
		if slices.Contains(axes.YAxes[:i], yAxis) {
			return fmt.Errorf("y-axis '%s' is selected more than once", yAxis)
		}
	}
	return nil
}

type TableConfig struct {
	Axes
}

func (TableConfig) Type() Type {
	return TypeTable
}

func (config TableConfig) Validate() error {
	return config.Axes.validate()
}

// Config for the axis-based chart types: bar, line, area, pie, composed and radar.
type ChartConfig struct {
	Kind Type `json:"-"`
	Axes
}

func (config ChartConfig) Type() Type {
	return config.Kind
}

func (config ChartConfig) Validate() error {
	if !config.Kind.IsAxisChart() {
		return fmt.Errorf("'%v' is not an axis chart type", config.Kind)
	}
	return config.Axes.validate()
}

type ScatterConfig struct {
	Axes
}

func (ScatterConfig) Type() Type {
	return TypeScatter
}

func (config ScatterConfig) Validate() error {
	return config.Axes.validate()
}

type KPIConfig struct {
	Axes
	// Evaluated in order, first match wins.
	Rules []KPIRule `json:"rules,omitempty"`
}

func (KPIConfig) Type() Type {
	return TypeKPI
}

func (config KPIConfig) Validate() error {
	for i, rule := range config.Rules {
		if !rule.Operator.IsValid() {
			return fmt.Errorf("KPI rule %d has invalid operator", i)
		}
	}
	return config.Axes.validate()
}

type PivotConfig struct {
	Axes
	Rows     []string        `json:"pivotRows,omitempty"`
	Columns  []string        `json:"pivotCols,omitempty"`
	Measures []pivot.Measure `json:"pivotMeasures,omitempty"`
}

func (PivotConfig) Type() Type {
	return TypePivot
}

func (config PivotConfig) Validate() error {
	for i, measure := range config.Measures {
		if !measure.Aggregation.IsValid() {
			return fmt.Errorf("pivot measure %d has invalid aggregation", i)
		}
		if measure.Field == "" && measure.Aggregation != pivot.AggregationCount {
			return fmt.Errorf("pivot measure %d is missing a field", i)
		}
	}
	return config.Axes.validate()
}

// Measures to aggregate in a preview. An empty measure list degrades to a row count, giving a
// totals grid.
func (config PivotConfig) PreviewMeasures() []pivot.Measure {
	if len(config.Measures) == 0 {
		return []pivot.Measure{pivot.RowCount}
	}
	return config.Measures
}

type TextAlign string

const (
	TextAlignLeft   TextAlign = "left"
	TextAlignCenter TextAlign = "center"
	TextAlignRight  TextAlign = "right"
)

type TextConfig struct {
	Axes
	Content   string    `json:"textContent"`
	Size      string    `json:"textSize,omitempty"`
	Align     TextAlign `json:"textAlign,omitempty"`
	Bold      bool      `json:"textBold,omitempty"`
	Italic    bool      `json:"textItalic,omitempty"`
	Underline bool      `json:"textUnderline,omitempty"`
}

func (TextConfig) Type() Type {
	return TypeText
}

func (config TextConfig) Validate() error {
	switch config.Align {
	case "", TextAlignLeft, TextAlignCenter, TextAlignRight:
	default:
		return fmt.Errorf("invalid text alignment '%s'", config.Align)
	}
	return config.Axes.validate()
}

// Returns an empty config of the given type.
func New(visualizationType Type) (Config, error) {
	return WithType(nil, visualizationType)
}

// Returns an empty config of the given type, carrying over the common axis fields of the
// previous config (if any), so that switching between chart types keeps the selected axes.
func WithType(previous Config, visualizationType Type) (Config, error) {
	var axes Axes
	if previous != nil {
		axes = previous.Common()
		axes.YAxes = slices.Clone(axes.YAxes)
	}

	switch {
	case visualizationType == TypeTable:
		return TableConfig{Axes: axes}, nil
	case visualizationType.IsAxisChart():
		return ChartConfig{Kind: visualizationType, Axes: axes}, nil
	case visualizationType == TypeScatter:
		return ScatterConfig{Axes: axes}, nil
	case visualizationType == TypeKPI:
		return KPIConfig{Axes: axes}, nil
	case visualizationType == TypePivot:
		return PivotConfig{Axes: axes}, nil
	case visualizationType == TypeText:
		return TextConfig{Axes: axes}, nil
	default:
		return nil, fmt.Errorf("unrecognized visualization type '%v'", visualizationType)
	}
}

// Wraps a Config for JSON encoding, using the "type" field as discriminator.
type Envelope struct {
	Config Config
}

func (envelope Envelope) MarshalJSON() ([]byte, error) {
	return Marshal(envelope.Config)
}

func (envelope *Envelope) UnmarshalJSON(bytes []byte) error {
	config, err := Unmarshal(bytes)
	if err != nil {
		return err
	}
	envelope.Config = config
	return nil
}

func Marshal(config Config) ([]byte, error) {
	if config == nil {
		return []byte("null"), nil
	}

	typeJSON, err := config.Type().MarshalJSON()
	if err != nil {
		return nil, wrap.Error(err, "failed to encode visualization type")
	}

	fields, err := json.Marshal(config)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to encode %v visualization config", config.Type())
	}
	if len(fields) < 2 || fields[0] != '{' {
		return nil, fmt.Errorf("%v visualization config did not encode to an object", config.Type())
	}

	var encoded bytes.Buffer
	encoded.WriteString(`{"type":`)
	encoded.Write(typeJSON)
	if len(fields) > 2 {
		encoded.WriteByte(',')
	}
	encoded.Write(fields[1:])
	return encoded.Bytes(), nil
}

func Unmarshal(encoded []byte) (Config, error) {
	if string(bytes.TrimSpace(encoded)) == "null" {
		return nil, nil
	}

	var header struct {
		Type *Type `json:"type"`
	}
	if err := json.Unmarshal(encoded, &header); err != nil {
		return nil, wrap.Error(err, "failed to decode visualization type")
	}
	if header.Type == nil {
		return nil, errors.New("visualization config is missing 'type' field")
	}

	switch visualizationType := *header.Type; {
	case visualizationType == TypeTable:
		return decodeConfig[TableConfig](encoded)
	case visualizationType.IsAxisChart():
		config, err := decodeConfig[ChartConfig](encoded)
		config.Kind = visualizationType
		return config, err
	case visualizationType == TypeScatter:
		return decodeConfig[ScatterConfig](encoded)
	case visualizationType == TypeKPI:
		return decodeConfig[KPIConfig](encoded)
	case visualizationType == TypePivot:
		return decodeConfig[PivotConfig](encoded)
	case visualizationType == TypeText:
		return decodeConfig[TextConfig](encoded)
	default:
		return nil, fmt.Errorf("unrecognized visualization type '%v'", visualizationType)
	}
}

func decodeConfig[ConfigT Config](encoded []byte) (ConfigT, error) {
	var config ConfigT
	if err := json.Unmarshal(encoded, &config); err != nil {
		return config, wrap.Errorf(err, "failed to decode %v visualization config", config.Type())
	}
	return config, nil
}
