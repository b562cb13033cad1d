package content

type Lesson struct {
	LessonID   string  `gorm:"column:lesson_id;type:varchar(64);primaryKey" json:"lesson_id"`
	LessonName string  `gorm:"column:lesson_name;type:text;not null" json:"lesson_name"`
	MongoID    *string `gorm:"column:mongo_id;type:char(24);uniqueIndex" json:"mongo_id,omitempty"`

	TopicID string `gorm:"column:topic_id;type:varchar(64);not null;index" json:"topic_id"`
	Topic   *Topic `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:TopicID" json:"topic,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }
