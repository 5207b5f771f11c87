package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
)

const validDigital = `{
  "title": "  Relational Databases ",
  "summary": "Tables, keys and joins.",
  "keyTopics": [
    {"topicTitle": "Keys", "content": [
      {"type": "bullet", "point": "Primary keys identify rows"},
      {"type": "paragraph", "text": "Foreign keys reference other tables."},
      {"type": "image_idea", "description": "Two tables linked by an arrow"}
    ]}
  ],
  "chartsAndGraphs": [
    {"title": "Query flow", "type": "flowchart", "data": ["Parse", "Plan", "Execute"], "description": "d"},
    {"title": "Latency", "type": "bar_chart", "data": [{"label": "index", "value": 2}, {"label": "scan", "value": 9.5}], "description": "d"},
    {"title": "Empty", "type": "bar_chart", "data": [], "description": "d"}
  ],
  "practiceQuestions": [{"question": "What is 3NF?", "type": "short answer"}]
}`

func TestValidateDigital(t *testing.T) {
	doc, err := Validate(validDigital, notes.ModeDigital)
	require.NoError(t, err)
	d, ok := doc.(notes.DigitalNotes)
	require.True(t, ok)

	assert.Equal(t, "Relational Databases", d.Title)
	require.Len(t, d.KeyTopics, 1)
	require.Len(t, d.KeyTopics[0].Content, 3)
	assert.Equal(t, notes.ImageIdea{Description: "Two tables linked by an arrow"}, d.KeyTopics[0].Content[2])

	require.Len(t, d.ChartsAndGraphs, 3)
	assert.Equal(t, notes.ChartFlowchart, d.ChartsAndGraphs[0].Type())
	assert.Equal(t, []string{"Parse", "Plan", "Execute"}, d.ChartsAndGraphs[0].Data.(notes.FlowchartData).Steps)
	assert.Equal(t, 9.5, d.ChartsAndGraphs[1].Data.(notes.BarChartData).Bars[1].Value)
	assert.Empty(t, d.ChartsAndGraphs[2].Data.(notes.BarChartData).Bars)
}

func TestValidateRejectsChartShapeMismatch(t *testing.T) {
	raw := `{"title":"t","summary":"s","keyTopics":[],"practiceQuestions":[],
	  "chartsAndGraphs":[
	    {"title":"c","type":"bar_chart","data":["a","b"],"description":"d"},
	    {"title":"f","type":"flowchart","data":[{"label":"x","value":1}],"description":"d"}
	  ]}`
	_, err := Validate(raw, notes.ModeDigital)
	require.Error(t, err)
	if !errors.Is(err, notes.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	var se *notes.Error
	require.True(t, errors.As(err, &se))
	joined := strings.Join(se.Issues, "\n")
	assert.Contains(t, joined, "chartsAndGraphs[0].data[0]")
	assert.Contains(t, joined, "chartsAndGraphs[1].data[0]")
}

func TestValidateRejectsMissingKeyTopics(t *testing.T) {
	_, err := Validate(`{"title":"t","summary":"s","chartsAndGraphs":[],"practiceQuestions":[]}`, notes.ModeDigital)
	if !errors.Is(err, notes.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	assert.Contains(t, err.Error(), "keyTopics: required")
}

func TestValidateRejectsUnknownContentType(t *testing.T) {
	raw := `{"title":"t","summary":"s","chartsAndGraphs":[],"practiceQuestions":[],
	  "keyTopics":[{"topicTitle":"a","content":[{"type":"bullet","point":"p"},{"type":"video","url":"x"}]}]}`
	_, err := Validate(raw, notes.ModeDigital)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `keyTopics[0].content[1].type: unrecognized "video"`)
}

func TestValidatePhysicalNullDiagramIdeaIsAbsent(t *testing.T) {
	raw := map[string]any{
		"title":       "Cells",
		"mainSummary": "Cells are the unit of life.",
		"sections": []any{
			map[string]any{"heading": "Membrane", "points": []any{" lipid bilayer "}, "diagramIdea": nil},
			map[string]any{"heading": "Nucleus", "points": []any{}, "diagramIdea": map[string]any{"title": "Cell", "description": "circle in circle"}},
		},
	}
	doc, err := Validate(raw, notes.ModePhysical)
	require.NoError(t, err)
	p := doc.(notes.PhysicalNotes)
	require.Len(t, p.Sections, 2)
	assert.Nil(t, p.Sections[0].DiagramIdea)
	assert.Equal(t, []string{"lipid bilayer"}, p.Sections[0].Points)
	require.NotNil(t, p.Sections[1].DiagramIdea)
	assert.Equal(t, "Cell", p.Sections[1].DiagramIdea.Title)
}

func TestValidateWrongModeShape(t *testing.T) {
	_, err := Validate(validDigital, notes.ModePhysical)
	if !errors.Is(err, notes.ErrSchema) {
		t.Fatalf("expected ErrSchema for digital payload validated as physical, got %v", err)
	}
}

func TestValidateNonObject(t *testing.T) {
	_, err := Validate([]byte(`[1,2]`), notes.ModeDigital)
	if !errors.Is(err, notes.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestDocumentRoundTripsThroughMarshal(t *testing.T) {
	doc, err := Validate(validDigital, notes.ModeDigital)
	require.NoError(t, err)
	enriched := doc.(notes.DigitalNotes).Clone()
	enriched.KeyTopics[0].Content[2] = notes.GeneratedImage{Description: "Two tables linked by an arrow", ImageURL: "data:image/png;base64,AAAA"}

	data, err := json.Marshal(enriched)
	require.NoError(t, err)
	again, err := DecodeDocument(data, notes.ModeDigital)
	require.NoError(t, err)
	assert.Equal(t, enriched, again)
}
