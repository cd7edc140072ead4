package llm

import (
	"strconv"
	"strings"
)

func promptInitialCoding(in InitialCodingInput) (system string, user string) {
	system = `You are a qualitative researcher doing inductive thematic coding.
Identify every meaningful concept in the text, not only the most prominent one.
For each concept give a concise code name, a description, and the exact quote from the text it is attached to.
Reuse an existing code when it fits and set is_new_code accordingly.
Quotes must be copied verbatim from the text. Confidence is an integer 0-100.
Return ONLY JSON matching the schema.`
	user = "Research Context:\n" + in.ResearchContext + "\n\n" +
		"Existing Codes (use these if they fit, or create new ones):\n" + in.ExistingCodes + "\n\n" +
		"Text to Analyze:\n" + in.Text
	return system, user
}

func promptDeductiveCoding(in DeductiveCodingInput) (system string, user string) {
	system = `You are a qualitative researcher doing deductive coding against a fixed codebook.
Assign only codes that appear in the provided codebook. Never invent new codes.
Copy the supporting quote verbatim from the text and give one confidence score (0-1) per assigned code, in the same order.
If no code applies, return an empty assigned_codes list.
Return ONLY JSON matching the schema.`
	user = "Research Context:\n" + in.ResearchContext + "\n\n" +
		"Available Codes from Codebook:\n" + in.AvailableCodes + "\n\n" +
		"Text to Analyze:\n" + in.Text
	return system, user
}

func promptTheme(in ThemeInput) (system string, user string) {
	system = `You are a qualitative researcher synthesising codes into a higher-level theme.
Name the theme, describe it, and list the code names (verbatim) that support it.
Return ONLY JSON matching the schema.`
	user = in.CodesText
	return system, user
}

func promptRefine(in RefineInput) (system string, user string) {
	system = `You review one qualitative code against every passage it was assigned to.
Choose keep when the code fits all passages, modify when a better name or description would fit them, and delete when the code is incoherent or irrelevant.
For modify, fill refined_code_name and refined_code_description. Otherwise leave them empty.
Return ONLY JSON matching the schema.`
	var b strings.Builder
	for i, q := range in.Assignments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". \"")
		b.WriteString(q)
		b.WriteString("\"\n")
	}
	user = "Code to Review:\nName: " + in.CodeName + "\nDescription: " + in.CodeDescription + "\n\n" +
		"All Text Assignments for this Code:\n" + b.String() + "\n" +
		"Total number of assignments: " + strconv.Itoa(len(in.Assignments))
	return system, user
}

func promptGrouping(in GroupingInput) (system string, user string) {
	system = `You cluster qualitative codes into named groups, like sub-themes.
Create between 3 and 7 groups of conceptually related codes. Use the code names exactly as given.
Codes that fit no group go in ungrouped_codes.
Return ONLY JSON matching the schema.`
	user = "Codes to Group:\n" + in.CodesSummary + "\n\n" +
		"Sample assignments for context:\n" + in.AssignmentSamples
	return system, user
}
