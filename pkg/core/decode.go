package core

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// =============================================================================
// Loose decoding
// =============================================================================

// DecodeDataSource decodes a loosely typed map (LLM output, hand-written JSON)
// into a DataSource. Scalars are weakly converted, so "30" fills an int field
// and a single yAxis string becomes a one-element list.
func DecodeDataSource(input map[string]any) (DataSource, error) {
	var ds DataSource
	if err := decodeLoose(input, &ds); err != nil {
		return DataSource{}, fmt.Errorf("failed to decode data source: %w", err)
	}
	return ds, nil
}

// DecodeExtraFields decodes a loosely typed extraFields map.
func DecodeExtraFields(input map[string]any) (ExtraFields, error) {
	var extra ExtraFields
	if err := decodeLoose(input, &extra); err != nil {
		return ExtraFields{}, fmt.Errorf("failed to decode extra fields: %w", err)
	}
	return extra, nil
}

func decodeLoose(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			fieldListHook,
			enumHook,
		),
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var (
	fieldListType   = reflect.TypeOf(FieldList{})
	aggregationType = reflect.TypeOf(Aggregation(""))
	chartTypeType   = reflect.TypeOf(ChartType(""))
	windowUnitType  = reflect.TypeOf(WindowUnit(""))
	granularityType = reflect.TypeOf(Granularity(""))
)

// fieldListHook turns a scalar or a list of scalars into a FieldList, dropping blanks.
func fieldListHook(from, to reflect.Type, data any) (any, error) {
	if to != fieldListType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return FieldList(nil), nil
	case string:
		return FieldList(splitNonEmpty(v)), nil
	case []string:
		return FieldList(compact(v)), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return FieldList(compact(out)), nil
	}
	return data, nil
}

// enumHook normalises enum labels so "count distinct", "Bar" and "months" decode.
// Unknown labels pass through and are rejected by the compiler.
func enumHook(from, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	switch to {
	case aggregationType:
		if a, ok := ParseAggregation(s); ok {
			return a, nil
		}
	case chartTypeType:
		if ct, ok := ParseChartType(s); ok {
			return ct, nil
		}
	case windowUnitType:
		if u, ok := ParseWindowUnit(s); ok {
			return u, nil
		}
	case granularityType:
		return Granularity(strings.ToLower(strings.TrimSpace(s))), nil
	}
	return data, nil
}
