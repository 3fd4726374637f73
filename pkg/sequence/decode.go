package sequence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/kv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Decode parses a raw document of the given format ("json" or "yaml") into a Sequence.
// The returned sequence is not validated and has no index yet.
func Decode(data []byte, format string) (*domain.Sequence, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, err
	}

	var seq domain.Sequence
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &seq,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       normalizeNumbers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode sequence: %w", err)
	}

	applyDefaults(&seq)
	return &seq, nil
}

func decodeRaw(data []byte, format string) (map[string]any, error) {
	raw := make(map[string]any)
	switch strings.ToLower(format) {
	case "json", "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return raw, nil
}

// normalizeNumbers turns json.Number, and the plain ints YAML produces for untyped fields
// (choice values, action values), into the store's canonical int64/float64.
func normalizeNumbers(from reflect.Type, to reflect.Type, data any) (any, error) {
	if _, ok := data.(json.Number); ok {
		return kv.Normalize(data)
	}
	if to.Kind() == reflect.Interface {
		if n, err := kv.Normalize(data); err == nil {
			return n, nil
		}
	}
	return data, nil
}

// applyDefaults fills the fields authors usually leave out.
func applyDefaults(seq *domain.Sequence) {
	for i := range seq.Messages {
		m := &seq.Messages[i]
		if m.Kind == "" {
			if len(m.Choices) > 0 {
				m.Kind = domain.KindChoice
			} else {
				m.Kind = domain.KindText
			}
		}
		if m.Sender == "" {
			m.Sender = domain.SenderBot
		}
	}
}
