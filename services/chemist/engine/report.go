// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import "github.com/AleutianAI/AleutianChem/services/chemist/datatypes"

// FallbackSummary is the fixed narrative used when the narrator model fails
// or returns nothing. Report assembly itself never fails.
const FallbackSummary = "Error: could not generate summary"

// AssembleReport builds the final report from a terminal iteration state.
//
// It is a pure function of its inputs: calling it twice on the same state
// yields identical reports (the narrative is passed in, so regeneration
// variance lives with the narrator, not here). The history slice is copied
// so the report stays immutable even if the caller keeps the state around.
func AssembleReport(st *IterationState, status string, narrative string) datatypes.FinalReport {
	history := make([]string, len(st.History))
	copy(history, st.History)

	return datatypes.FinalReport{
		Status:           status,
		FinalSMILES:      st.ProposedSMILES,
		Validation:       st.validationRecord(),
		History:          history,
		Attempts:         st.Attempts,
		ExecutiveSummary: narrative,
	}
}
