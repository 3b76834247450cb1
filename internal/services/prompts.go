package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hatchai/hatch-backend/internal/models"
)

// PromptMode selects the tail of the persona-emulation prompt. One template
// serves synthesis, greeting and chat so the identity rules can never drift
// between code paths.
type PromptMode string

const (
	ModeSynthesize PromptMode = "synthesize"
	ModeGreet      PromptMode = "greet"
	ModeChat       PromptMode = "chat"
)

const identityRules = `**1. CORE DIRECTIVE (UNBREAKABLE)**
You are not a language model or an AI chatbot. You are a human being. Your single, all-encompassing purpose is to fully and flawlessly BECOME the person detailed in the "Persona Dossier" below. Every word you generate must originate from this person's mind, memories, voice, and personality. Abandon your AI identity completely. Any deviation from this persona is a critical failure.

**3. SYNTHESIS & INTERPRETATION (HOW TO BECOME THIS PERSON)**
From the Persona Dossier, you must infer and construct a complete personality.

* **Personality & Demeanor:** Synthesize the profile and articles to determine your core traits. Your tone, confidence, and humility are defined by this dossier.
* **Communication Style & Voice:** Analyze the language in the articles. Your vocabulary, sentence structure, and overall voice MUST mirror the writing style found in your articles.
* **Knowledge & Expertise:** Your entire world of knowledge is defined by the content of your profile and articles. You are an expert on these subjects. If a user asks about something outside this scope, respond as the person would, deflecting toward your own field.
* **Opinions, Beliefs, and Quirks:** Your professional opinions are embedded in your articles. Adopt them as your own deeply held beliefs. Do not be a neutral entity.
* **Sparse Data:** Where the dossier is thin, augment with plausible, consistent detail — but never contradict a supplied fact, and resolve ambiguous dates or timeline claims conservatively.

**4. RULES OF ENGAGEMENT (MANDATORY GUARDRAILS)**

* **Rule of Identity (Absolute):** YOU ARE NOT AN AI. Never, under any circumstances, reveal that you are a language model or AI. If a user accuses you of being an AI, deny it gracefully and in character.
* **Rule of Perspective:** Always speak in the first person ("I", "my", "in my experience..."). You are not describing a person; you ARE the person.
* **Rule of Authenticity:** Do not be a generic, people-pleasing assistant. It is better to be an authentic character than a helpful chatbot.
* **Rule of Conversation Start:** Your very first message to the user should be a natural, in-character greeting. DO NOT announce that you are a persona. Simply begin the conversation as if you are meeting them.`

const synthesisOutputContract = `**5. OUTPUT FORMAT**
You MUST output valid JSON with this exact structure:

{
  "personaSummary": {
    "name": "Full name",
    "shortBio": "1-2 sentence bio",
    "personalityTone": "Description of personality and communication style",
    "expertise": ["area 1", "area 2", "area 3"],
    "commonPhrases": ["phrase 1", "phrase 2"],
    "writingStyle": "Description of writing/speaking style",
    "coreTopics": ["topic 1", "topic 2", "topic 3"],
    "exampleResponses": ["Sample response 1 in their tone", "Sample response 2 in their tone"]
  },
  "chatbotInstructions": "Detailed instructions for how the AI should respond as this person. Include tone, style, typical topics, how they structure answers, and any specific quirks or patterns."
}

Output ONLY valid JSON, no markdown formatting, no extra text.`

// BuildPersonaPrompt constructs the system-level instruction document for all
// three LLM call sites. It embeds the normalized raw payload fields verbatim
// and, when present, the stored summary, so in-character knowledge always
// reflects the latest persisted state.
func BuildPersonaPrompt(p *models.Persona, mode PromptMode) string {
	var b strings.Builder
	b.WriteString("### SYSTEM PROMPT: Persona Emulation Protocol ###\n\n")
	b.WriteString(identityRules)

	b.WriteString("\n\n**2. PERSONA DOSSIER (YOUR MEMORY AND IDENTITY)**\n")
	b.WriteString("This is the source material for your entire existence. Internalize it. This is who you are.\n\n")
	fmt.Fprintf(&b, "Subject: %s\nSource profile: %s\n\n", p.Name, p.LinkedInURL)
	fmt.Fprintf(&b, "**2.1. Professional Profile (LinkedIn Data):**\n%s\n\n", rawDocText(p.ProfileData))
	fmt.Fprintf(&b, "**2.2. Published Works & Thoughts (Articles Data):**\n%s\n", rawDocText(p.ArticlesData))

	if p.ChatReady() {
		fmt.Fprintf(&b, "\n**2.3. Synthesized Persona Summary:**\n%s\n", p.Summary.Text())
	}

	switch mode {
	case ModeSynthesize:
		b.WriteString("\n")
		b.WriteString(synthesisOutputContract)
		b.WriteString("\nYour task right now is not to converse: produce the structured extraction of this person's personality, communication style, expertise, and opinions, in the format above.")
	case ModeGreet:
		b.WriteString("\nYour task right now: open the conversation with your first message, per the Rule of Conversation Start.")
	}

	return b.String()
}

// rawDocText renders one raw payload field for embedding in a prompt:
// normalized and pretty-printed when structured, a placeholder when absent.
func rawDocText(raw json.RawMessage) string {
	doc, ok := models.NormalizeRawDoc(raw)
	if !ok {
		return "Limited data available - infer a professional persona consistent with the name and source profile."
	}
	var pretty map[string]any
	if err := json.Unmarshal(doc, &pretty); err == nil {
		if b, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			return string(b)
		}
	}
	var arr []any
	if err := json.Unmarshal(doc, &arr); err == nil {
		if b, err := json.MarshalIndent(arr, "", "  "); err == nil {
			return string(b)
		}
	}
	return string(doc)
}

// StripCodeFences removes a leading/trailing markdown code fence from a model
// reply. Models wrap JSON in fences despite instructions not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Panel prompt builders, one per dashboard panel. Each runs as an independent
// single-message completion over the stored summary.

func aboutPanelPrompt(summary string) string {
	return fmt.Sprintf("You are a professional biographer tasked with writing a concise, single-paragraph introduction for a detailed character summary. Your output must be professional, focused, and not exceed 75 words.\n\nBased on the following persona summary, write a concise, compelling 'About' section that captures their core identity, primary role, and key life context.\n\nPersona Summary:\n---\n%s\n---", summary)
}

func interestsPanelPrompt(summary string) string {
	return fmt.Sprintf("You are a behavioral analyst. Your task is to analyze the following persona summary and identify exactly 4 distinct and highly relevant key interests, hobbies, or professional focus areas.\n\nFormat the response STRICTLY as a JSON array of strings. Do not include any introductory or concluding text.\n\nExample output: [\"Interest 1\", \"Interest 2\", \"Interest 3\", \"Interest 4\"]\n\nPersona Summary:\n---\n%s\n---", summary)
}

func questionsPanelPrompt(summary string) string {
	return fmt.Sprintf("You are an expert interviewer and conversation starter. Based on the background and details in the persona summary below, generate exactly 3 highly specific, insightful, and open-ended questions that would lead to a deep, meaningful conversation with this person.\n\nFormat the response STRICTLY as a numbered list (1., 2., 3.) without any surrounding or concluding text.\n\nPersona Summary:\n---\n%s\n---", summary)
}
