// Package graphgen produces the connections graph: a batch of entities
// related to a source, normalized into typed nodes with star-topology
// edges back to the source node.
package graphgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/llm"
	"github.com/sourcelens/sourcelens/internal/models"
)

// SourceNodeID is the fixed id of the hub node every edge points to.
const SourceNodeID = "source"

const (
	minBatch = 8
	maxBatch = 10
)

// typeColors assigns a deterministic color per node type.
var typeColors = map[string]string{
	models.NodePerson:       "#4f46e5",
	models.NodeEvent:        "#dc2626",
	models.NodeConcept:      "#0891b2",
	models.NodePlace:        "#16a34a",
	models.NodeWork:         "#d97706",
	models.NodeOrganization: "#7c3aed",
	models.NodeFact:         "#be185d",
	models.NodeSource:       "#334155",
}

const connectionsPrompt = `You are building a knowledge graph around a primary source.

DOCUMENT METADATA:
%s
DOCUMENT EXCERPT:
%s

Identify %d to %d entities (people, events, concepts, places, works, organizations, or facts) connected to this source.

Respond with a JSON array only. Each element must have exactly these fields:
{
  "name": "entity name",
  "type": "person|event|concept|place|work|organization|fact",
  "relationship": "direct|indirect",
  "distance": 1,
  "description": "one sentence on how it connects to the source",
  "emoji": "a single representative emoji",
  "year": "associated year or range, if known",
  "location": "associated place, if any",
  "wikipediaTitle": "exact Wikipedia article title, if one exists",
  "field": "academic field this entity belongs to"
}
"distance" is an integer from 1 (directly present in the source) to 5 (distant context).`

const expandPrompt = `You are expanding a knowledge graph around a primary source.

THE GRAPH IS CENTERED ON THIS SOURCE:
%s

THE RESEARCHER SELECTED THIS NODE TO EXPAND:
%s (%s): %s

Identify %d to %d further entities connected to the selected node, in the context of the source.

Respond with a JSON array only, each element shaped exactly as:
{
  "name": "...", "type": "person|event|concept|place|work|organization|fact",
  "relationship": "direct|indirect", "distance": 1, "description": "...",
  "emoji": "...", "year": "...", "location": "...", "wikipediaTitle": "...", "field": "..."
}
"distance" is an integer from 1 to 5, measured from the original source.`

// Generator builds connection graphs through the Gemini provider.
type Generator struct {
	registry *llm.Registry
}

// NewGenerator creates a Generator.
func NewGenerator(registry *llm.Registry) *Generator {
	return &Generator{registry: registry}
}

// Result is a generated batch of nodes plus their edges to the source.
type Result struct {
	Nodes []models.Connection `json:"nodes"`
	Edges []models.GraphEdge  `json:"edges"`
}

// rawNode is the shape the model is asked to emit.
type rawNode struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Relationship   string `json:"relationship"`
	Distance       int    `json:"distance"`
	Description    string `json:"description"`
	Emoji          string `json:"emoji"`
	Year           string `json:"year"`
	Location       string `json:"location"`
	WikipediaTitle string `json:"wikipediaTitle"`
	Field          string `json:"field"`
}

// Generate produces the first batch of connections for a source.
func (g *Generator) Generate(ctx context.Context, source string, md *models.SourceMetadata) (*Result, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source is required: %w", apperr.ErrInvalidInput)
	}
	if md == nil {
		return nil, fmt.Errorf("metadata is required: %w", apperr.ErrInvalidInput)
	}

	meta := metadataLines(md)
	excerpt, _ := llm.Truncate(source, geminiModel().CharBudget)
	prompt := fmt.Sprintf(connectionsPrompt, meta, excerpt, minBatch, maxBatch)

	return g.run(ctx, prompt)
}

// Expand produces a further batch seeded from one existing node. The
// caller concatenates results; nothing here deduplicates against nodes
// from earlier calls.
func (g *Generator) Expand(ctx context.Context, sourceTitle string, node models.Connection) (*Result, error) {
	if strings.TrimSpace(node.Name) == "" {
		return nil, fmt.Errorf("node name is required: %w", apperr.ErrInvalidInput)
	}
	if sourceTitle == "" {
		sourceTitle = "the primary source under analysis"
	}

	prompt := fmt.Sprintf(expandPrompt, sourceTitle,
		node.Name, node.Type, node.Description, minBatch, maxBatch)

	return g.run(ctx, prompt)
}

func (g *Generator) run(ctx context.Context, prompt string) (*Result, error) {
	provider, err := g.registry.Provider(llm.ProviderGemini)
	if err != nil {
		return nil, err
	}
	model := geminiModel()

	raw, err := provider.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Model:       model.APIModel,
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	return buildResult(raw)
}

func geminiModel() llm.Model {
	m, _ := llm.LookupModel("gemini-flash")
	return m
}

// SourceNode builds the hub node for a source; every generated edge
// targets this node's fixed id.
func SourceNode(md *models.SourceMetadata) models.Connection {
	name := "Primary Source"
	if md != nil && md.Title != "" {
		name = md.Title
	}
	return models.Connection{
		ID:           SourceNodeID,
		Name:         name,
		Type:         models.NodeSource,
		Relationship: models.RelationshipDirect,
		Distance:     0,
		Emoji:        "📜",
		Color:        typeColors[models.NodeSource],
		Size:         26,
	}
}

func metadataLines(md *models.SourceMetadata) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Title", md.Title)
	line("Author", md.Author)
	line("Date", md.Date)
	line("Research goals", md.ResearchGoals)
	if b.Len() == 0 {
		b.WriteString("(none provided)\n")
	}
	return b.String()
}
