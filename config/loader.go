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
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/errgroup"

	"rivaas.dev/routing/config/codec"
	"rivaas.dev/routing/config/dumper"
	"rivaas.dev/routing/config/source"
)

//go:embed schema.json
var defaultSchema []byte

// ErrNotWatchable is returned by Watch when no source reports changes.
var ErrNotWatchable = errors.New("no watchable source")

// Loader loads route tables from its sources.
//
// Loader is safe for concurrent use.
type Loader struct {
	sources    []Source
	dumpers    []Dumper
	schema     *jsonschema.Schema
	validate   *validator.Validate
	validators []func(*RouteTable) error

	mu     sync.RWMutex
	values map[string]any
	table  *RouteTable
}

// Option configures a Loader.
type Option func(*Loader) error

// WithSource adds a source. Sources are merged in the order they are
// added.
func WithSource(src Source) Option {
	return func(l *Loader) error {
		if src == nil {
			return NewError("source", "configure", errors.New("nil source"))
		}
		l.sources = append(l.sources, src)
		return nil
	}
}

// WithFile adds a file source. The format is taken from the extension.
// The path is expanded with os.ExpandEnv.
func WithFile(path string) Option {
	return func(l *Loader) error {
		path = os.ExpandEnv(path)
		format, err := codec.ForPath(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		return WithFileAs(path, format)(l)
	}
}

// WithFileAs adds a file source of an explicit format.
func WithFileAs(path string, format codec.Type) Option {
	return func(l *Loader) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("file-source", "get-decoder", err)
		}
		l.sources = append(l.sources, source.NewFile(os.ExpandEnv(path), decoder))
		return nil
	}
}

// WithContent adds an in-memory document.
func WithContent(data []byte, format codec.Type) Option {
	return func(l *Loader) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("content-source", "get-decoder", err)
		}
		l.sources = append(l.sources, source.NewFileContent(data, decoder))
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix.
// ROUTES_OPTIONS__ROOT_DOMAIN sets options.root_domain.
func WithEnv(prefix string) Option {
	return func(l *Loader) error {
		l.sources = append(l.sources, source.NewOSEnvVar(prefix))
		return nil
	}
}

// WithConsul adds a Consul KV source. The format is taken from the key
// extension. The option is skipped when CONSUL_HTTP_ADDR is not set.
func WithConsul(path string) Option {
	return func(l *Loader) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		path = os.ExpandEnv(path)
		format, err := codec.ForPath(path)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}
		return consulSource(l, path, format, nil)
	}
}

// WithConsulAs is WithConsul with an explicit format.
func WithConsulAs(path string, format codec.Type) Option {
	return func(l *Loader) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		return consulSource(l, os.ExpandEnv(path), format, nil)
	}
}

// WithConsulKV adds a Consul source reading from kv. It is not skipped
// without CONSUL_HTTP_ADDR.
func WithConsulKV(path string, format codec.Type, kv source.ConsulKV) Option {
	return func(l *Loader) error {
		return consulSource(l, path, format, kv)
	}
}

func consulSource(l *Loader, path string, format codec.Type, kv source.ConsulKV) error {
	decoder, err := codec.GetDecoder(format)
	if err != nil {
		return NewError("consul-source", "get-decoder", err)
	}
	src, err := source.NewConsul(path, decoder, kv)
	if err != nil {
		return NewError("consul-source", "create-client", err)
	}
	l.sources = append(l.sources, src)
	return nil
}

// WithDumper adds a dumper used by Dump.
func WithDumper(d Dumper) Option {
	return func(l *Loader) error {
		if d == nil {
			return NewError("dumper", "configure", errors.New("nil dumper"))
		}
		l.dumpers = append(l.dumpers, d)
		return nil
	}
}

// WithFileDumper dumps the merged document to a file. The format is taken
// from the extension.
func WithFileDumper(path string) Option {
	return func(l *Loader) error {
		format, err := codec.ForPath(path)
		if err != nil {
			return NewError("file-dumper", "detect-format", err)
		}
		return WithFileDumperAs(path, format)(l)
	}
}

// WithFileDumperAs dumps the merged document to a file in an explicit
// format.
func WithFileDumperAs(path string, format codec.Type) Option {
	return func(l *Loader) error {
		encoder, err := codec.GetEncoder(format)
		if err != nil {
			return NewError("file-dumper", "get-encoder", err)
		}
		l.dumpers = append(l.dumpers, dumper.NewFile(os.ExpandEnv(path), encoder))
		return nil
	}
}

// WithJSONSchema replaces the built-in route table schema.
func WithJSONSchema(schema []byte) Option {
	return func(l *Loader) error {
		s, err := compileSchema("custom.json", schema)
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		l.schema = s
		return nil
	}
}

// WithValidator adds a check run on every loaded table.
func WithValidator(fn func(*RouteTable) error) Option {
	return func(l *Loader) error {
		if fn != nil {
			l.validators = append(l.validators, fn)
		}
		return nil
	}
}

// New returns a Loader. Option errors are joined; the Loader is returned
// even when some options failed.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		validate: newValidate(),
		values:   map[string]any{},
	}

	var errs error
	schema, err := compileSchema("route-table.json", defaultSchema)
	if err != nil {
		errs = NewError("json-schema", "compile", err)
	}
	l.schema = schema

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return l, errs
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Loader {
	l, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create loader: %v", err))
	}
	return l
}

// Load reads and merges every source, then checks, decodes and validates
// the result. The loaded document and table replace the previous ones
// only when every step succeeded.
func (l *Loader) Load(ctx context.Context) (*RouteTable, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	doc := make(map[string]any)
	for i, src := range l.sources {
		values, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(sourceName(i, src), "load", err)
		}
		normalized, _ := normalize(values).(map[string]any)
		if err := mergo.Merge(&doc, normalized, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return nil, NewError(sourceName(i, src), "merge", err)
		}
	}

	if err := l.checkSchema(doc); err != nil {
		return nil, NewError("json-schema", "validate", err)
	}

	table, err := decode(doc)
	if err != nil {
		return nil, NewError("decode", "decode", err)
	}

	if err := l.validateTable(table); err != nil {
		return nil, err
	}

	for i, fn := range l.validators {
		var verr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					verr = fmt.Errorf("validator panic: %v", r)
				}
			}()
			verr = fn(table)
		}()
		if verr != nil {
			return nil, NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", verr)
		}
	}

	l.mu.Lock()
	l.values = doc
	l.table = table
	l.mu.Unlock()

	return table, nil
}

// MustLoad is like Load but panics on error.
func (l *Loader) MustLoad(ctx context.Context) *RouteTable {
	t, err := l.Load(ctx)
	if err != nil {
		panic(err)
	}
	return t
}

// Values returns a copy of the last merged document.
func (l *Loader) Values() map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.values)
}

// Table returns the last loaded table, or nil before the first Load.
func (l *Loader) Table() *RouteTable {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table
}

// Dump writes the last merged document to every dumper.
func (l *Loader) Dump(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}
	values := l.Values()
	for i, d := range l.dumpers {
		if err := d.Dump(ctx, values); err != nil {
			return NewError(fmt.Sprintf("dumper[%d]", i), "dump", err)
		}
	}
	return nil
}

// Watch reloads the table whenever a watchable source changes and passes
// the result to fn. A failed reload keeps the previous table; fn receives
// the error. Watch blocks until ctx is done or a watcher fails.
func (l *Loader) Watch(ctx context.Context, fn func(*RouteTable, error)) error {
	var watchers []Watcher
	for _, src := range l.sources {
		if w, ok := src.(Watcher); ok {
			watchers = append(watchers, w)
		}
	}
	if len(watchers) == 0 {
		return ErrNotWatchable
	}

	var reload sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range watchers {
		g.Go(func() error {
			err := w.Watch(gctx, func() {
				reload.Lock()
				defer reload.Unlock()
				fn(l.Load(gctx))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func (l *Loader) checkSchema(doc map[string]any) error {
	if l.schema == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return l.schema.Validate(inst)
}

func (l *Loader) validateTable(t *RouteTable) error {
	err := l.validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError("validate", "validate", err)
	}
	var errs error
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "RouteTable.")
		errs = errors.Join(errs, NewFieldError("validate", field, "validate", fieldError(fe)))
	}
	return errs
}

func fieldError(fe validator.FieldError) error {
	if fe.Param() != "" {
		return fmt.Errorf("value %v fails %s=%s", fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("value %v fails %s", fe.Value(), fe.Tag())
}

func sourceName(i int, src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return fmt.Sprintf("source[%d] %s", i, s)
	}
	return fmt.Sprintf("source[%d]", i)
}

func compileSchema(name string, schema []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, err
	}
	return c.Compile(name)
}

var httpMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	"*":                true,
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("config"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("method", func(fl validator.FieldLevel) bool {
		return httpMethods[strings.ToUpper(fl.Field().String())]
	})
	return v
}
