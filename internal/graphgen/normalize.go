package graphgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sourcelens/sourcelens/internal/apperr"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/respparse"
)

// buildResult parses the raw model output and normalizes every node:
// unknown types fall back to concept, relationships to indirect, and
// distance is clamped to [1,5]. Node size decreases with distance.
func buildResult(raw string) (*Result, error) {
	var nodes []rawNode
	if err := respparse.ExtractJSON(raw, &nodes); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("graphgen: model returned no entities: %w", apperr.ErrParse)
	}
	// Only the upper bound is enforced here. The minBatch floor lives
	// in the prompt; a short batch is still usable output.
	if len(nodes) > maxBatch {
		nodes = nodes[:maxBatch]
	}

	res := &Result{
		Nodes: make([]models.Connection, 0, len(nodes)),
		Edges: make([]models.GraphEdge, 0, len(nodes)),
	}
	for _, n := range nodes {
		if strings.TrimSpace(n.Name) == "" {
			continue
		}
		node := normalize(n)
		res.Nodes = append(res.Nodes, node)
		res.Edges = append(res.Edges, models.GraphEdge{Source: SourceNodeID, Target: node.ID})
	}
	if len(res.Nodes) == 0 {
		return nil, fmt.Errorf("graphgen: no usable entities in response: %w", apperr.ErrParse)
	}
	return res, nil
}

func normalize(n rawNode) models.Connection {
	typ := strings.ToLower(strings.TrimSpace(n.Type))
	if !models.ValidNodeType(typ) || typ == models.NodeSource {
		typ = models.NodeConcept
	}

	rel := strings.ToLower(strings.TrimSpace(n.Relationship))
	if rel != models.RelationshipDirect {
		rel = models.RelationshipIndirect
	}

	dist := n.Distance
	switch {
	case dist == 0:
		dist = 3
	case dist < 1:
		dist = 1
	case dist > 5:
		dist = 5
	}

	return models.Connection{
		ID:             nodeID(n.Name),
		Name:           n.Name,
		Type:           typ,
		Relationship:   rel,
		Distance:       dist,
		Description:    n.Description,
		Emoji:          n.Emoji,
		Year:           n.Year,
		Location:       n.Location,
		WikipediaTitle: n.WikipediaTitle,
		Field:          n.Field,
		Color:          typeColors[typ],
		Size:           22 - 3*dist,
	}
}

// nodeID derives a stable-looking id from the entity name with a short
// random suffix. Repeated expansion can emit the same entity twice;
// the suffix keeps ids unique without merging duplicates.
func nodeID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "node"
	}
	return slug + "-" + uuid.NewString()[:8]
}
