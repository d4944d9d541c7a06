package models

import "time"

// Resume represents a candidate resume after text extraction. The raw
// content may be stored compressed; Content is always populated on reads
// through the document store.
type Resume struct {
	ID                string     `bson:"_id" json:"id"`
	CandidateName     string     `bson:"candidate_name" json:"candidate_name"`
	Content           string     `bson:"content,omitempty" json:"content,omitempty"`
	CompressedContent []byte     `bson:"compressed_content,omitempty" json:"-"`
	Compression       string     `bson:"compression,omitempty" json:"-"`
	Embedding         []float32  `bson:"embedding,omitempty" json:"-"`
	EmbeddedAt        *time.Time `bson:"embedded_at,omitempty" json:"embedded_at,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

// EmbeddableText returns the text that feeds the embedding model.
func (r *Resume) EmbeddableText() string {
	return r.Content
}
