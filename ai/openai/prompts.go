package openai

import "fmt"

const segmentSystemPrompt = "You analyze PDF content to identify interview boundaries. Return valid JSON."

const segmentPromptTemplate = `Analyze this document content and decide whether it contains more than one separate interview transcript.

Signals of a new interview include:
- Sections starting with "Company:", "Interview with:", "Candidate:", "Round" and similar headings
- Clear separators between interviews
- A different company or interviewee name appearing

If there are several interviews, give the approximate character position where each one starts and ends.

Return a JSON object with:
- "has_multiple_interviews": boolean
- "interviews": array of objects with integer "start_char" and "end_char"

For a single interview return:
{"has_multiple_interviews": false, "interviews": [{"start_char": 0, "end_char": %d}]}

Sample text:
%s
`

const extractSystemPrompt = "You extract structured information from interview transcripts. Always return valid JSON."

const extractPromptTemplate = `You are analyzing an interview transcript. Extract:

1. Company Name: the company conducting the interview (for example "KPMG" or "Aditya Birla Group"). If it cannot be found, return "Unknown".

2. Interviewee Name: the full name of the candidate being interviewed. Look for labels such as "Candidate:" or "Interviewee:" or names mentioned in the conversation. If it cannot be found, return "Unknown".

Return a JSON object with exactly these keys:
- "company": string
- "interviewee": string

Transcript excerpt:
%s
`

const cleanSystemPrompt = "You clean and normalize interview transcript text. Return only the cleaned text."

const cleanPromptTemplate = `Clean and normalize this interview transcript chunk. Fix broken spacing (for example "v i e w e r" becomes "viewer") and remove excessive whitespace. Keep the conversation structure between Interviewer and Candidate intact.

Raw text chunk:
%s

Return only the cleaned text, nothing else.`

func buildSegmentPrompt(sample string, totalChars int) string {
	return fmt.Sprintf(segmentPromptTemplate, totalChars, sample)
}

func buildExtractPrompt(text string) string {
	return fmt.Sprintf(extractPromptTemplate, text)
}

func buildCleanPrompt(chunk string) string {
	return fmt.Sprintf(cleanPromptTemplate, chunk)
}
