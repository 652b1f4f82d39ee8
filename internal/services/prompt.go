package services

import (
	"encoding/json"
	"fmt"

	"alfredoptarigan/career-hub/internal/models"
)

type PromptBuilder struct {
	// MaxInputChars caps the document text embedded in a prompt. Zero disables the cap.
	MaxInputChars int
}

func NewPromptBuilder(maxInputChars int) *PromptBuilder {
	return &PromptBuilder{MaxInputChars: maxInputChars}
}

// BuildAnalysisPrompt renders the template for req.Variant. The output is a
// pure function of req.
func (pb *PromptBuilder) BuildAnalysisPrompt(req models.AnalysisRequest) string {
	text := truncateRunes(req.Text, pb.MaxInputChars)

	if req.Variant == models.VariantLinkedInProfile {
		return pb.buildLinkedInPrompt(text, req.JobDescription)
	}
	return pb.buildResumePrompt(text, req.JobDescription)
}

func (pb *PromptBuilder) buildResumePrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`Act as an HR manager with 20 years of experience. Analyze the provided resume against the given job description. Provide:
- A match score (0-100) indicating how well the resume aligns with the job description.
- A list of strengths (skills, experiences, or qualifications that align well with the job).
- A list of gaps (missing skills, experiences, or qualifications required by the job).
- Suggested improvements to enhance the resume.
- An optimized version of the resume's main section (e.g., Summary or Experience) rewritten with recruiter-friendly keywords.
- A before-and-after comparison highlighting key changes in the rewritten section.
- A keyword match score (0-100) based on how well the original resume keywords match the job description.

Resume:
%s

Job Description:
%s

Return ONLY a single JSON object, without markdown or commentary, in this format:
{
  "matchScore": number,
  "strengths": string[],
  "gaps": string[],
  "improvements": string[],
  "optimizedSection": string,
  "beforeAfterComparison": string,
  "keywordMatchScore": number
}`, resumeText, jobDescription)
}

func (pb *PromptBuilder) buildLinkedInPrompt(profileText, jobDescription string) string {
	return fmt.Sprintf(`Act as an HR manager with 20 years of experience specializing in LinkedIn profile optimization. Analyze the provided LinkedIn profile text against the given job description. Provide:
- A match score (0-100) indicating how well the profile aligns with the job description.
- A list of strengths (skills, experiences, or qualifications that align well with the job).
- A list of gaps (missing skills, experiences, or qualifications required by the job).
- Suggested improvements to enhance the LinkedIn profile (e.g., update About section, add skills).
- An optimized version of the LinkedIn profile's main section (e.g., About or Skills) rewritten with recruiter-friendly keywords.
- A before-and-after comparison highlighting key changes in the rewritten section.
- A keyword match score (0-100) based on how well the original profile keywords match the job description.
- A profile completeness score (0-100) based on LinkedIn profile best practices (e.g., presence of photo, headline, About section, skills).

LinkedIn Profile Text:
%s

Job Description:
%s

Return ONLY a single JSON object, without markdown or commentary, in this format:
{
  "matchScore": number,
  "strengths": string[],
  "gaps": string[],
  "improvements": string[],
  "optimizedSection": string,
  "beforeAfterComparison": string,
  "keywordMatchScore": number,
  "profileCompleteness": number
}`, profileText, jobDescription)
}

// BuildChatPrompt creates the career coach prompt for a chat history.
func (pb *PromptBuilder) BuildChatPrompt(history []models.ChatMessage) string {
	encoded, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		encoded = []byte("[]")
	}

	return fmt.Sprintf(`Act as a career coach with 20 years of experience. Given the chat history below, provide a concise, actionable, and professional response to the user's latest message. Focus on career advice, resume optimization, or job application strategies as relevant.

Chat History:
%s

Return the response as a plain string.`, string(encoded))
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
