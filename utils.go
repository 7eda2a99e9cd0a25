package crochet

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// EncodePretty renders data as JSON indented by two spaces
func EncodePretty(data any) (string, error) {
	marshaled, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "json.MarshalIndent")
	}
	return string(marshaled), nil
}

func NewUuid() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// dates decoded from YAML become YYYY-MM-DD strings
func timeToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if t, ok := data.(time.Time); ok && to.Kind() == reflect.String {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02"), nil
		}
		return t.Format(time.RFC3339), nil
	}
	return data, nil
}

// DecodeInterface decodes a loosely typed tree, as produced by the YAML
// and JSON decoders, into a struct using its yaml tags.
func DecodeInterface(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		Metadata:         nil,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       timeToStringHook,
		Result:           output,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return errors.Wrap(err, "decode interface")
	}
	return decoder.Decode(input)
}
