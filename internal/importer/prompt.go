package importer

func structurePrompt(text string) string {
	return `You are a resume parser. Convert the following resume text into a structured JSON format.

Resume Text:
` + text + `

Return ONLY valid JSON matching this exact structure (no markdown, no commentary):
{
  "personal": {
    "firstName": "string",
    "lastName": "string",
    "headline": "string or empty",
    "email": "string",
    "phone": "string or empty",
    "location": "string or empty",
    "linkedin": "string or empty",
    "summary": "string or empty"
  },
  "experience": [
    {
      "id": "unique-id",
      "company": "string",
      "position": "string",
      "location": "string or empty",
      "startDate": "YYYY-MM-DD or empty",
      "endDate": "YYYY-MM-DD or empty",
      "current": false,
      "description": ["bullet point 1", "bullet point 2"]
    }
  ],
  "education": [
    {
      "id": "unique-id",
      "institution": "string",
      "degree": "string",
      "field": "string",
      "startDate": "YYYY-MM-DD or empty",
      "endDate": "YYYY-MM-DD or empty"
    }
  ],
  "skills": {
    "technical": ["skill1", "skill2"],
    "languages": ["language1", "language2"]
  }
}

Important:
- Extract all information accurately
- Use empty strings for missing data (not null)
- Generate unique IDs for experience and education entries
- Format dates as YYYY-MM-DD (use YYYY-01-01 if only year is available)
- Separate technical skills from languages
- Return ONLY the JSON object, no other text`
}
