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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

// bannerInfo is what the startup banner shows.
type bannerInfo struct {
	addr      string
	rules     int
	watch     bool
	h2c       bool
	metrics   string // scrape URL, empty when disabled
	tracing   string // provider, empty when disabled
	accessLog bool
}

var gradientColors = []string{"12", "14", "10", "11"}

// printBanner writes the startup banner to w.
func printBanner(w io.Writer, info bannerInfo) {
	cw := colorWriter(w)

	var art strings.Builder
	for _, line := range figure.NewFigure("routectl", "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, char := range line {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(gradientColors[i%len(gradientColors)])).
				Bold(true)
			art.WriteString(style.Render(string(char)))
		}
		art.WriteString("\n")
	}

	addr := info.addr
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	protocol := "http"
	if info.h2c {
		protocol = "h2c"
	}

	var out strings.Builder
	out.WriteString(categoryStyle.Render("Server") + "\n")
	out.WriteString(labelStyle.Render("Version:") + "  " + valueStyle.Foreground(lipgloss.Color("14")).Render(version) + "\n")
	out.WriteString(labelStyle.Render("Address:") + "  " + valueStyle.Foreground(lipgloss.Color("10")).Render(protocol+"://"+addr) + "\n")
	out.WriteString(labelStyle.Render("Rules:") + "  " + valueStyle.Render(fmt.Sprint(info.rules)) + "\n")
	out.WriteString(labelStyle.Render("Reload:") + "  " + valueStyle.Render(reloadMode(info.watch)) + "\n")

	out.WriteString("\n" + categoryStyle.Render("Observability") + "\n")
	out.WriteString(feature("Metrics", info.metrics, "13"))
	out.WriteString(feature("Tracing", info.tracing, "12"))
	accessLog := ""
	if info.accessLog {
		accessLog = "enabled"
	}
	out.WriteString(feature("Access log", accessLog, "11"))

	_, _ = fmt.Fprintln(cw)
	_, _ = fmt.Fprint(cw, art.String())
	_, _ = fmt.Fprintln(cw)
	_, _ = fmt.Fprint(cw, out.String())
	_, _ = fmt.Fprintln(cw)
}

func feature(name, value, color string) string {
	if value == "" {
		return labelStyle.Render(name+":") + "  " + dimStyle.Render("disabled") + "\n"
	}
	return labelStyle.Render(name+":") + "  " + valueStyle.Foreground(lipgloss.Color(color)).Render(value) + "\n"
}

func reloadMode(watch bool) string {
	if watch {
		return "SIGHUP, source changes"
	}
	return "SIGHUP"
}
