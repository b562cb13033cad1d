package content

import "gorm.io/datatypes"

// Keyword identity is the single derived keyword_id (canonical
// "<chunk_id>::<slug>", or the legacy sha384 hash); the composite
// (chunk_id, keyword_name) scheme from the old schema was dropped.
type Keyword struct {
	KeywordID   string `gorm:"column:keyword_id;type:varchar(96);primaryKey" json:"keyword_id"`
	KeywordName string `gorm:"column:keyword_name;type:text;not null" json:"keyword_name"`

	// Embedding is the provider vector as a jsonb float array; null when
	// the row predates embedding backfill.
	Embedding         datatypes.JSON `gorm:"column:keyword_embedding;type:jsonb" json:"keyword_embedding,omitempty"`
	EmbeddingProvider string         `gorm:"column:embedding_provider;type:varchar(32)" json:"embedding_provider,omitempty"`

	MongoID *string `gorm:"column:mongo_id;type:char(24)" json:"mongo_id,omitempty"`

	ChunkID string `gorm:"column:chunk_id;type:varchar(64);not null;index" json:"chunk_id"`
	Chunk   *Chunk `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChunkID;references:ChunkID" json:"chunk,omitempty"`
}

func (Keyword) TableName() string { return "keyword" }
