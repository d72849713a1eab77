// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import "testing"

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		in   string
		want PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"f", PersonalityFull},
		{"FULL", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{"bogus", PersonalityStandard},
		{"", PersonalityStandard},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParsePersonalityLevel(tt.in); got != tt.want {
				t.Errorf("ParsePersonalityLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetPersonalityLevel(t *testing.T) {
	original := GetPersonality().Level
	defer SetPersonalityLevel(original)

	SetPersonalityLevel(PersonalityMachine)
	if got := GetPersonality().Level; got != PersonalityMachine {
		t.Errorf("GetPersonality().Level = %v, want machine", got)
	}
}

func TestInitPersonality_EnvOverride(t *testing.T) {
	original := GetPersonality().Level
	defer SetPersonalityLevel(original)

	t.Setenv("CHEM_PERSONALITY", "minimal")
	InitPersonality()
	if got := GetPersonality().Level; got != PersonalityMinimal {
		t.Errorf("GetPersonality().Level = %v, want minimal", got)
	}
}
