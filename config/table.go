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

// RouteTable is a decoded route table.
type RouteTable struct {
	Options  Options           `config:"options"`
	Patterns map[string]string `config:"patterns"`

	// Rest adds or replaces REST actions; with RestReplace the listed
	// actions are the whole table.
	Rest        []RestAction `config:"rest" validate:"dive"`
	RestReplace bool         `config:"rest_replace"`

	Rules     []Rule     `config:"rules" validate:"dive"`
	Groups    []Group    `config:"groups" validate:"dive"`
	Resources []Resource `config:"resources" validate:"dive"`
	Aliases   []Alias    `config:"aliases" validate:"dive"`
	Domains   []Domain   `config:"domains" validate:"dive"`
	Bind      *Binding   `config:"bind"`
	Miss      string     `config:"miss"`
}

// Options are the router options of a table.
type Options struct {
	Root            string   `config:"root"`
	Suffix          []string `config:"suffix"`
	SuffixStrip     *bool    `config:"suffix_strip"`
	RootDomain      string   `config:"root_domain" validate:"omitempty,fqdn|hostname"`
	Scheme          string   `config:"scheme" validate:"omitempty,oneof=http https"`
	StrictResources bool     `config:"strict_resources"`
	LenientBuild    bool     `config:"lenient_build"`
	URLConvert      *bool    `config:"url_convert"`
	Conventional    *bool    `config:"conventional"`
	CompleteMatch   *bool    `config:"complete_match"`
	PathVars        bool     `config:"path_vars"`
	Defaults        Defaults `config:"defaults"`
}

// Defaults are the module, controller and action of empty dispatches.
type Defaults struct {
	Module     string `config:"module"`
	Controller string `config:"controller"`
	Action     string `config:"action"`
}

// RestAction is one REST table entry.
type RestAction struct {
	Name   string `config:"name" validate:"required"`
	Method string `config:"method" validate:"required,method"`
	Path   string `config:"path"`
	Action string `config:"action" validate:"required"`
}

// Rule is one route rule. Target is a target string: a module path, an
// "@controller" reference, a `\Class@method` reference or a redirect.
type Rule struct {
	Pattern  string            `config:"pattern"`
	Target   string            `config:"target" validate:"required"`
	Methods  []string          `config:"methods" validate:"dive,method"`
	Name     string            `config:"name"`
	Where    map[string]string `config:"where"`
	Ext      []string          `config:"ext"`
	NoExt    bool              `config:"no_ext"`
	DenyExt  []string          `config:"deny_ext"`
	HTTPS    bool              `config:"https"`
	Merge    bool              `config:"merge_extra_vars"`
	Status   int               `config:"status" validate:"omitempty,min=300,max=399"`
	Complete *bool             `config:"complete"`
}

// Group is a rule group with a path prefix.
type Group struct {
	Prefix     string            `config:"prefix" validate:"required"`
	NamePrefix string            `config:"name_prefix"`
	Where      map[string]string `config:"where"`
	Ext        []string          `config:"ext"`
	DenyExt    []string          `config:"deny_ext"`
	Methods    []string          `config:"methods" validate:"dive,method"`
	HTTPS      bool              `config:"https"`
	Merge      bool              `config:"merge_extra_vars"`
	Miss       string            `config:"miss"`
	Rules      []Rule            `config:"rules" validate:"dive"`
	Resources  []Resource        `config:"resources" validate:"dive"`
	Groups     []Group           `config:"groups" validate:"dive"`
}

// Resource is a REST resource.
type Resource struct {
	Name   string            `config:"name" validate:"required"`
	Target string            `config:"target" validate:"required"`
	Only   []string          `config:"only"`
	Except []string          `config:"except"`
	Vars   map[string]string `config:"vars"`
	Where  map[string]string `config:"where"`
	Ext    []string          `config:"ext"`
	HTTPS  bool              `config:"https"`
}

// Alias maps a first path segment to a target.
type Alias struct {
	Name    string   `config:"name" validate:"required,excludes=/"`
	Target  string   `config:"target" validate:"required"`
	Only    []string `config:"only"`
	Except  []string `config:"except"`
	Methods []string `config:"methods" validate:"dive,method"`
}

// Domain binds a host. A domain has either a Target, which binds the host
// like router.Domain, or rules and resources scoped to the host.
type Domain struct {
	Host      string     `config:"host" validate:"required"`
	Target    string     `config:"target" validate:"required_without_all=Rules Resources,excluded_with=Rules Resources"`
	Rules     []Rule     `config:"rules" validate:"dive"`
	Resources []Resource `config:"resources" validate:"dive"`
	Miss      string     `config:"miss"`
}

// Binding is the global binding. Kind is one of "module", "namespace",
// "class" or "controller"; when empty it is taken from the target prefix
// like router.Domain does.
type Binding struct {
	Target string `config:"target" validate:"required"`
	Kind   string `config:"kind" validate:"omitempty,oneof=module namespace class controller"`
}
