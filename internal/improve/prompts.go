package improve

import (
	"fmt"
	"strings"
)

func targetedPrompt(req Request, fullResume string) string {
	target := fmt.Sprintf("%s -> %s", req.Section, req.Field)
	if req.Identifier != "" {
		target = fmt.Sprintf("%s (ID/Index: %s) -> %s", req.Section, req.Identifier, req.Field)
	}
	instruction := "Task: Improve the specific part identified below for better quality, professional impact, and clarity."
	if req.Instruction != "" {
		instruction = "User Request: " + req.Instruction + "\nTask: Edit the specific part defined below solely based on the User Request above."
	}
	jd := ""
	if strings.TrimSpace(req.JobDescription) != "" {
		jd = "Relevant Job Description: " + req.JobDescription
	}
	return `You are an expert professional assistant.
Context: The following is a full professional resume.
` + instruction + `

Target Part: "` + target + `"
` + jd + `

Full Resume Context for reference:
` + fullResume + `

Strict Requirements:
1. Return ONLY the edited/improved content for the specified target part.
2. For list fields (e.g. bullet points), return a valid JSON array of strings: ["bullet 1", "bullet 2"].
3. For string fields (e.g. summary), return ONLY the text as a raw string.
4. DO NOT return the full resume JSON.
5. DO NOT use markdown code blocks or formatting.
6. DO NOT include any conversational filler or explanation.
`
}

const scratchSkeleton = `{
  "personal": {
    "firstName": "",
    "lastName": "",
    "headline": "",
    "email": "",
    "phone": "",
    "location": "",
    "linkedin": "",
    "summary": "",
    "image": ""
  },
  "experience": [
    {
      "id": "1",
      "company": "",
      "position": "",
      "location": "",
      "startDate": "",
      "endDate": "",
      "current": false,
      "description": []
    }
  ],
  "education": [
    {
      "id": "1",
      "institution": "",
      "degree": "",
      "field": "",
      "startDate": "",
      "endDate": ""
    }
  ],
  "skills": {
    "technical": [],
    "languages": []
  }
}`

func scratchPrompt(info string) string {
	source := "Generate a professional resume structure. Since no specific information was provided, create a template with empty fields."
	if strings.TrimSpace(info) != "" {
		source = "Information provided:\n" + info + "\n\nGenerate a resume tailored to this information. Use the information provided to fill in relevant sections. For any information NOT provided, leave those fields empty (empty strings for text fields, empty arrays for list fields)."
	}
	return `You are an expert resume writer and ATS optimization specialist.
Your task is to generate a professional resume based on the provided information.

` + source + `

Return ONLY valid JSON matching this exact structure:
` + scratchSkeleton + `

CRITICAL: Only fill in fields for which you have clear information from the provided input. Leave all other fields empty. Do NOT make up information.
Do NOT use markdown formatting (like ` + "```json" + `).
Do NOT include any explanations or conversational text.
`
}

func globalPrompt(fullResume, jobDescription string) string {
	hasJD := strings.TrimSpace(jobDescription) != ""
	focus := "Improve the resume for general best practices, focusing on ATS optimization, stronger action verbs, and quantifiable impact."
	jd := ""
	if hasJD {
		focus = "Tailor the resume specifically for the provided Job Description (JD). Use keywords from the JD, highlight relevant skills, and rewrite bullet points to align with the role."
		jd = "\nJob Description:\n" + jobDescription + "\n"
	}
	return `You are an expert resume writer and ATS optimization specialist.
Your task is to improve the following resume content.
` + focus + `

Current Resume:
` + fullResume + `
` + jd + `
Return ONLY valid JSON matching the exact structure of the input resume.
Do NOT use markdown formatting(like ` + "```json" + `).
Do NOT include any explanations or conversational text.
Ensure all fields from the input resume are present in the output, even if unchanged.
Improve the content within the "experience", "education", "skills", and "summary" sections.
Maintain the same "id" values for experience and education entries.
`
}
