// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

var (
	stringType      = reflect.TypeFor[string]()
	stringSliceType = reflect.TypeFor[[]string]()
	stringMapType   = reflect.TypeFor[map[string]string]()
)

// decode decodes a merged document into a RouteTable.
func decode(doc map[string]any) (*RouteTable, error) {
	var table RouteTable
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &table,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(coerceHook),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return &table, nil
}

// coerceHook accepts the loose scalars found in hand-written tables: a
// "GET|POST" or "html,shtml" string where a list is expected, numbers
// where strings are expected and "true"/"1" where booleans are expected.
func coerceHook(from, to reflect.Type, data any) (any, error) {
	switch {
	case to == stringSliceType:
		if s, ok := data.(string); ok {
			return splitList(s), nil
		}
		return cast.ToStringSliceE(data)
	case to == stringMapType:
		return cast.ToStringMapStringE(data)
	case to == stringType && from.Kind() != reflect.String:
		return cast.ToStringE(data)
	case to.Kind() == reflect.Bool && from.Kind() == reflect.String:
		return cast.ToBoolE(data)
	case to.Kind() == reflect.Int && from.Kind() == reflect.String:
		return cast.ToIntE(data)
	default:
		return data, nil
	}
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// normalize rewrites decoder output to map[string]any and []any so that
// documents from different codecs merge: TOML tables arrays decode as
// []map[string]any and some YAML mappings as map[any]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[cast.ToString(k)] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
