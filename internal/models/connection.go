package models

// Connection node types.
const (
	NodePerson       = "person"
	NodeEvent        = "event"
	NodeConcept      = "concept"
	NodePlace        = "place"
	NodeWork         = "work"
	NodeOrganization = "organization"
	NodeFact         = "fact"
	NodeSource       = "source"
)

// Relationship values.
const (
	RelationshipDirect   = "direct"
	RelationshipIndirect = "indirect"
)

// ValidNodeType reports whether t is a known connection node type.
func ValidNodeType(t string) bool {
	switch t {
	case NodePerson, NodeEvent, NodeConcept, NodePlace,
		NodeWork, NodeOrganization, NodeFact, NodeSource:
		return true
	}
	return false
}

// Connection is an entity related to the source, rendered as a graph node.
type Connection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Relationship   string `json:"relationship"`
	Distance       int    `json:"distance"`
	Description    string `json:"description"`
	Emoji          string `json:"emoji,omitempty"`
	Year           string `json:"year,omitempty"`
	Location       string `json:"location,omitempty"`
	WikipediaTitle string `json:"wikipediaTitle,omitempty"`
	Field          string `json:"field,omitempty"`
	Color          string `json:"color"`
	Size           int    `json:"size"`
}

// GraphEdge links a connection node back to the source node.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
