package gateways

import (
	"fmt"
	"sort"
	"time"

	"howett.net/plist"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

// plistDecoder decodes property lists in any encoding howett.net/plist detects
// (binary bplist00, XML, OpenStep and GNUStep text)
type plistDecoder struct{}

// NewPlistDecoder creates a new property-list decoder
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewPlistDecoder() *plistDecoder {
	return &plistDecoder{}
}

// DecodePlist decodes a property list whose root must be a dictionary
func (d *plistDecoder) DecodePlist(data []byte) (*entities.PropertyList, error) {
	list, _, err := d.DecodeWithFormat(data)
	return list, err
}

// DecodeWithFormat decodes a property list and also reports the detected encoding
func (d *plistDecoder) DecodeWithFormat(data []byte) (*entities.PropertyList, string, error) {
	if len(data) == 0 {
		return nil, "", entities.NewScanError(entities.KindPlistFormat, "empty property list")
	}

	var raw interface{}
	format, err := plist.Unmarshal(data, &raw)
	if err != nil {
		return nil, "", entities.WrapScanError(entities.KindPlistFormat, "failed to decode property list", err)
	}

	root, ok := raw.(map[string]interface{})
	if !ok {
		return nil, "", entities.NewScanError(entities.KindPlistFormat,
			fmt.Sprintf("property list root is %T, want a dictionary", raw))
	}

	list, err := convertDict(root)
	if err != nil {
		return nil, "", err
	}
	return list, formatName(format), nil
}

// convertDict inserts keys in sorted order; plist.Unmarshal hands back a Go map, so the
// document order is already gone
func convertDict(m map[string]interface{}) (*entities.PropertyList, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := entities.NewPropertyList()
	for _, k := range keys {
		v, err := convertValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		list.Set(k, v)
	}
	return list, nil
}

func convertValue(raw interface{}) (entities.Value, error) {
	switch v := raw.(type) {
	case string:
		return entities.StringValue(v), nil
	case bool:
		return entities.BoolValue(v), nil
	case int64:
		return entities.IntValue(v), nil
	case uint64:
		return entities.UintValue(v), nil
	case plist.UID:
		return entities.UintValue(uint64(v)), nil
	case float64:
		return entities.RealValue(v), nil
	case float32:
		return entities.RealValue(float64(v)), nil
	case time.Time:
		return entities.DateValue(v), nil
	case []byte:
		return entities.DataValue(v), nil
	case []interface{}:
		items := make([]entities.Value, 0, len(v))
		for i, item := range v {
			converted, err := convertValue(item)
			if err != nil {
				return entities.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, converted)
		}
		return entities.ArrayValue(items...), nil
	case map[string]interface{}:
		dict, err := convertDict(v)
		if err != nil {
			return entities.Value{}, err
		}
		return entities.DictValue(dict), nil
	default:
		return entities.Value{}, entities.NewScanError(entities.KindPlistFormat,
			fmt.Sprintf("unsupported property list value of type %T", raw))
	}
}

func formatName(format int) string {
	switch format {
	case plist.BinaryFormat:
		return "binary"
	case plist.XMLFormat:
		return "xml"
	case plist.OpenStepFormat:
		return "openstep"
	case plist.GNUStepFormat:
		return "gnustep"
	default:
		return "unknown"
	}
}
