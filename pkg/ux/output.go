// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides rich terminal output styling for the chem CLI.
package ux

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/AleutianChem/services/chemist/datatypes"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	// Primary palette (brightest to darkest)
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	// Semantic colors (keeping standard conventions for clarity)
	ColorSuccess = lipgloss.Color("#2CD7C7") // Bright teal for success
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
	ErrorBox  lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
	IconFlask   Icon = "⚗"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Print helpers that respect personality level

// Title prints a styled title
func Title(text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(os.Stdout, "OK: %s\n", text)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", IconSuccess.Render(), text)
	default:
		fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func Warning(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", IconWarning.Render(), text)
	default:
		fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func Error(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", IconError.Render(), text)
	default:
		fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	p := GetPersonality()
	switch p.Level {
	case PersonalityMachine:
		fmt.Println(text)
	default:
		fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
	}
}

// Muted prints muted/secondary text
func Muted(text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func Box(title, content string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(72)
	titleLine := Styles.Title.Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// =============================================================================
// Report Rendering
// =============================================================================

// FormatProperties renders a property vector as aligned key-value lines.
//
// Returns the empty string for nil or invalid vectors.
func FormatProperties(props *datatypes.PropertyVector) string {
	if props == nil || !props.Valid {
		return ""
	}

	var b strings.Builder
	line := func(label string, value string) {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", label, value))
	}

	line("MW", fmt.Sprintf("%.2f Da", props.MW))
	line("LogP", fmt.Sprintf("%.2f", props.LogP))
	line("TPSA", fmt.Sprintf("%.2f", props.TPSA))
	line("QED", fmt.Sprintf("%.3f", props.QED))
	line("SA score", fmt.Sprintf("%.2f", props.SAScore))
	line("Aromatic rings", fmt.Sprintf("%d", props.AromaticRings))
	line("HBD / HBA", fmt.Sprintf("%d / %d", props.HBD, props.HBA))
	line("Rotatable bonds", fmt.Sprintf("%d", props.RotatableBonds))
	line("Lipinski violations", fmt.Sprintf("%d", props.LipinskiViolations))
	if props.Similarity != nil {
		line("Similarity", fmt.Sprintf("%.4f", *props.Similarity))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderReport prints a final optimization report.
//
// Machine personality emits a stable line-oriented format for scripting.
// Other personalities render a styled summary box.
func RenderReport(report *datatypes.FinalReport) {
	if report == nil {
		return
	}

	if GetPersonality().Level == PersonalityMachine {
		fmt.Printf("STATUS: %s\n", report.Status)
		fmt.Printf("SMILES: %s\n", report.FinalSMILES)
		fmt.Printf("ATTEMPTS: %d\n", report.Attempts)
		if report.ExecutiveSummary != "" {
			fmt.Printf("SUMMARY: %s\n", report.ExecutiveSummary)
		}
		return
	}

	var b strings.Builder
	if report.Status == datatypes.StatusSuccess {
		b.WriteString(fmt.Sprintf("%s %s\n", IconSuccess.Render(), Styles.Success.Render("Optimization succeeded")))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", IconError.Render(), Styles.Error.Render("Optimization failed")))
	}
	b.WriteString(fmt.Sprintf("  %-18s %s\n", "Final SMILES", Styles.Highlight.Render(report.FinalSMILES)))
	b.WriteString(fmt.Sprintf("  %-18s %d\n", "Attempts", report.Attempts))

	if report.Validation.Valid {
		b.WriteString("\n")
		b.WriteString(FormatProperties(&report.Validation.PropertyVector))
		b.WriteString("\n")
	}
	if report.ExecutiveSummary != "" {
		b.WriteString("\n")
		b.WriteString(Styles.Subtitle.Render(report.ExecutiveSummary))
	}

	Box("Final Report", strings.TrimRight(b.String(), "\n"))
}
