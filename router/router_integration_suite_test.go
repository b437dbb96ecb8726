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

// Package router_test holds the integration suite of the routing engine.
//
// The suite wires rules, domains, aliases and URL building together and
// drives them through real HTTP servers.
//
// Run only the integration suite:
//
//	go test -tags integration -run TestRouterIntegration ./router/...

//go:build integration

package router_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

//nolint:paralleltest // Integration test suite
func TestRouterIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Router Integration Suite")
}
