package loam

// EntryMetadata is the frontmatter of a lexicon entry document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type EntryMetadata struct {
	// Name defaults to the document ID without extension.
	Name                string   `json:"name" mapstructure:"name"`
	PhonologicalContent string   `json:"phonological_content" mapstructure:"phonological_content"`
	ConceptualContent   []string `json:"conceptual_content" mapstructure:"conceptual_content"`

	// Tree is either bracket notation ("DP(D, V)") or a structured tree
	// document ({root: {type: PhrasalNode, ...}}).
	Tree any `json:"tree" mapstructure:"tree"`

	// Order positions the entry in the lexicon. A missing order is 0; ties
	// fall back to the ID.
	Order int `json:"order" mapstructure:"order"`
}
