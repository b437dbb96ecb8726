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

// Command routectl loads a route table, inspects it and serves it.
//
//	routectl -c routes.yaml rules
//	routectl -c routes.yaml check GET http://blog.example.com/blog/5.html
//	routectl -c routes.yaml build blog id=5
//	routectl -c routes.yaml -c overrides.toml export --format json
//	routectl -c routes.yaml serve --addr :8080 --metrics :9090 --watch
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		fmt.Fprintf(os.Stderr, "%s %s\n", errStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
