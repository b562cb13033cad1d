package content

type Chunk struct {
	ChunkID   string  `gorm:"column:chunk_id;type:varchar(64);primaryKey" json:"chunk_id"`
	ChunkName string  `gorm:"column:chunk_name;type:text;not null" json:"chunk_name"`
	ChunkType string  `gorm:"column:chunk_type;type:varchar(32)" json:"chunk_type,omitempty"`
	MongoID   *string `gorm:"column:mongo_id;type:char(24);uniqueIndex" json:"mongo_id,omitempty"`

	LessonID string  `gorm:"column:lesson_id;type:varchar(64);not null;index" json:"lesson_id"`
	Lesson   *Lesson `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:LessonID" json:"lesson,omitempty"`
}

func (Chunk) TableName() string { return "chunk" }
