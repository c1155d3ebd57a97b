package generate

import "fmt"

// Request describes one generation call after the transport layer has
// resolved the source (PDF text already extracted).
type Request struct {
	SourceType   string // mcq.SourceText, SourcePDF, or SourceTopic
	Text         string // source text for text/pdf generation
	Topic        string // topic for topic generation
	NumQuestions int
	Difficulty   string
	Title        string
}

// rawMCQ mirrors the JSON shape the model is asked to produce.
type rawMCQ struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// sourceCharLimit bounds how much source text goes into the prompt.
const sourceCharLimit = 3000

const textSystemPrompt = "You are an expert educator who creates high-quality multiple choice questions. " +
	"Always return valid JSON arrays only, with no additional formatting or text."

const topicSystemPrompt = "You are an expert educator who creates high-quality, factually accurate multiple choice questions. " +
	"You have comprehensive knowledge across all subjects. " +
	"Always return valid JSON arrays only, with no additional formatting or text. " +
	"Ensure all facts in your questions are accurate and verifiable."

var difficultyInstructions = map[string]string{
	"easy":   "Create basic, straightforward questions that test fundamental understanding. Questions should be simple and direct.",
	"medium": "Create moderately challenging questions that test deeper understanding. Include some questions that require application of concepts.",
	"hard":   "Create challenging questions that test advanced understanding. Include questions requiring analysis, synthesis, or application of multiple concepts.",
}

func textPrompt(text string, count int, difficulty string) string {
	if len(text) > sourceCharLimit {
		text = text[:sourceCharLimit]
	}
	return fmt.Sprintf(`Generate exactly %d multiple choice questions from the following text.

Difficulty level: %s

Rules:
- Create exactly 4 options (A, B, C, D) for each question
- Only ONE option should be correct
- Questions should test understanding of the content
- Return ONLY valid JSON array, no additional text
- No markdown formatting, no code blocks

Required JSON format:
[
  {
    "question": "Question text here?",
    "options": ["Option A text", "Option B text", "Option C text", "Option D text"],
    "answer": "The correct option text (must match exactly one of the options)"
  }
]

Text to generate questions from:
%s`, count, difficulty, text)
}

func topicPrompt(topic string, count int, difficulty string) string {
	instr := difficultyInstructions[difficulty]
	if instr == "" {
		instr = difficultyInstructions["medium"]
	}
	return fmt.Sprintf(`You are an expert educator creating a quiz about "%s".

Generate exactly %d high-quality multiple choice questions about %s.

Difficulty level: %s
%s

IMPORTANT RULES:
1. Create exactly 4 options (A, B, C, D) for each question
2. Only ONE option should be the correct answer
3. Questions should be factually accurate and educational
4. Cover different aspects/subtopics of "%s"
5. Make incorrect options plausible but clearly wrong
6. Return ONLY valid JSON array, no additional text or markdown

Required JSON format:
[
  {
    "question": "Question text here?",
    "options": ["Option A text", "Option B text", "Option C text", "Option D text"],
    "answer": "The correct option text (must match exactly one of the options)"
  }
]

Generate %d questions about: %s`, topic, count, topic, difficulty, instr, topic, count, topic)
}
