package llm

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strList(desc string) map[string]any {
	return map[string]any{"type": "array", "description": desc, "items": map[string]any{"type": "string"}}
}

func object(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func codeOutputSchema() map[string]any {
	return object(map[string]any{
		"reasoning":               str("Why this code was selected or created."),
		"code":                    str("The assigned or generated code name."),
		"quote":                   str("Exact quote from the passage the code is attached to."),
		"code_description":        str("How the code relates to the quote."),
		"is_new_code":             map[string]any{"type": "boolean", "description": "True for a new code, false when reusing an existing one."},
		"existing_code_rationale": str("When reusing an existing code, why it fits. Empty otherwise."),
		"confidence":              map[string]any{"type": "integer", "description": "Confidence 0-100."},
	}, "reasoning", "code", "quote", "code_description", "is_new_code", "existing_code_rationale", "confidence")
}

func multipleCodesSchema() map[string]any {
	return object(map[string]any{
		"codes": map[string]any{
			"type":        "array",
			"description": "Every significant concept found in the text.",
			"items":       codeOutputSchema(),
		},
		"analysis_notes": str("Notes on the overall analysis of this text."),
	}, "codes", "analysis_notes")
}

func deductiveCodingSchema() map[string]any {
	return object(map[string]any{
		"reasoning":      str("Why these codes were assigned."),
		"assigned_codes": strList("Code names from the codebook assigned to this text."),
		"quote":          str("Exact quote from the passage the codes are attached to."),
		"confidence_scores": map[string]any{
			"type":        "array",
			"description": "Confidence 0-1 for each assigned code, same order.",
			"items":       map[string]any{"type": "number"},
		},
		"rationale": str("Why these specific codes fit this text."),
	}, "reasoning", "assigned_codes", "quote", "confidence_scores", "rationale")
}

func themeSchema() map[string]any {
	return object(map[string]any{
		"reasoning":         str("Why this theme was derived."),
		"theme_name":        str("Name of the theme."),
		"theme_description": str("Detailed description of the theme."),
		"related_codes":     strList("Code names that relate to this theme."),
	}, "reasoning", "theme_name", "theme_description", "related_codes")
}

func refinementSchema() map[string]any {
	return object(map[string]any{
		"action": map[string]any{
			"type":        "string",
			"description": "keep, modify or delete",
			"enum":        []string{string(ActionKeep), string(ActionModify), string(ActionDelete)},
		},
		"reasoning":                str("Why this decision was made."),
		"refined_code_name":        str("New code name when action is modify. Empty otherwise."),
		"refined_code_description": str("New description when action is modify. Empty otherwise."),
		"confidence":               map[string]any{"type": "number", "description": "Confidence 0-1."},
	}, "action", "reasoning", "refined_code_name", "refined_code_description", "confidence")
}

func groupingSchema() map[string]any {
	group := object(map[string]any{
		"group_name":        str("Name of the group, like a sub-theme."),
		"group_description": str("What this group represents."),
		"code_names":        strList("Code names that belong to this group."),
		"rationale":         str("Why these codes belong together."),
	}, "group_name", "group_description", "code_names", "rationale")
	return object(map[string]any{
		"reasoning":       str("Overall grouping strategy."),
		"groups":          map[string]any{"type": "array", "items": group},
		"ungrouped_codes": strList("Codes that fit no group."),
	}, "reasoning", "groups", "ungrouped_codes")
}
