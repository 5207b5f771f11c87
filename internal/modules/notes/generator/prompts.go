package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
)

// promptInput feeds the user template. Missing fields render empty strings.
type promptInput struct {
	Transcript string
}

type promptSpec struct {
	Mode   notes.Mode
	System string
	User   string
}

type prompt struct {
	system string
	user   *template.Template
}

func (p prompt) render(in promptInput) (string, string, error) {
	var b bytes.Buffer
	if err := p.user.Execute(&b, in); err != nil {
		return "", "", err
	}
	return p.system, strings.TrimSpace(b.String()), nil
}

const sentinelRule = `IMPORTANT: If you are unable to read the lecture or generate notes for any reason, you MUST return the following JSON object and nothing else: {"error": true, "errorMessage": "Failed to access or process the lecture content."}
Your entire output and all generated text within the JSON MUST be exclusively in English.`

var promptSpecs = []promptSpec{
	{
		Mode: notes.ModeDigital,
		System: `
You are an expert academic assistant. Your task is to generate structured study notes from a lecture transcript.
Your response MUST be a valid JSON object. Do not include any text, explanation, or markdown formatting before or after the JSON object.

Generate the JSON object based on the following structure:
- title: A concise, engaging title for the lecture notes.
- summary: A 2-3 paragraph summary of the entire lecture.
- keyTopics: An array of 3-4 main topics. Each topic object should have:
  - topicTitle: The title of the topic.
  - content: An array of content items, which can be of type "bullet" (with a "point" string), "paragraph" (with a "text" string), or "image_idea" (with a "description" string suitable for an image generation AI). Include at least two "image_idea" blocks.
- chartsAndGraphs: An array of at least one "flowchart" and one "bar_chart". Each chart object should have:
  - title: The chart's title.
  - type: "flowchart" or "bar_chart".
  - data: For a flowchart, an array of strings representing the steps. For a bar_chart, an array of {"label": string, "value": number} objects.
  - description: A brief description of the chart.
- practiceQuestions: An array of 3-5 practice question objects, each with a "question" string and a "type" string.

` + sentinelRule,
		User: `
LECTURE TRANSCRIPT:
{{.Transcript}}`,
	},
	{
		Mode: notes.ModePhysical,
		System: `
You are an expert note-taker. Your task is to create a layout for handwritten notes from a lecture transcript.
Your response MUST be a valid JSON object. Do not include any text, explanation, or markdown formatting before or after the JSON object.

Keep text concise for easy writing. Use bullet points extensively. Diagram ideas must be extremely simple, using basic shapes (boxes, circles, arrows).

Generate the JSON object based on the following structure:
- title: A clear and simple title for the notes.
- mainSummary: A brief, 1-2 sentence summary.
- sections: An array of section objects. Each section should have:
  - heading: The section heading.
  - points: An array of strings for bullet points.
  - diagramIdea: (Optional) An object with a "title" and a "description" for a simple drawing.

` + sentinelRule,
		User: `
LECTURE TRANSCRIPT:
{{.Transcript}}`,
	},
}

func compilePrompts() (map[notes.Mode]prompt, error) {
	out := make(map[notes.Mode]prompt, len(promptSpecs))
	for _, s := range promptSpecs {
		userT, err := template.New(string(s.Mode)).Option("missingkey=zero").Parse(s.User)
		if err != nil {
			return nil, fmt.Errorf("%s user template parse: %w", s.Mode, err)
		}
		out[s.Mode] = prompt{system: strings.TrimSpace(s.System), user: userT}
	}
	return out, nil
}
