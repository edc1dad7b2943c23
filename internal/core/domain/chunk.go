package domain

// Chunk is an indexed passage of institutional text. The embedding lives in the chunk store.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries the fields enrichment passes may add. Missing fields decode to
// zero values: no keywords and IsStructured=false.
type ChunkMetadata struct {
	DocumentID   string   `json:"document_id,omitempty"`
	Category     string   `json:"category,omitempty"`
	Source       string   `json:"source,omitempty"`
	Section      string   `json:"section,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	IsStructured bool     `json:"is_structured"`
	TokenCount   int      `json:"token_count,omitempty"`
	Department   string   `json:"departamento,omitempty"`
	Topic        string   `json:"tema,omitempty"`
}

// ScoredChunk is a nearest-neighbour hit. Distance is cosine distance in [0,2].
type ScoredChunk struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// Passage is a chunker output before ids, enrichment and embeddings are attached.
type Passage struct {
	Section    string
	Text       string
	Structured bool
}
