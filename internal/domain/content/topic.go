package content

type Topic struct {
	TopicID   string  `gorm:"column:topic_id;type:varchar(64);primaryKey" json:"topic_id"`
	TopicName string  `gorm:"column:topic_name;type:text;not null" json:"topic_name"`
	MongoID   *string `gorm:"column:mongo_id;type:char(24);uniqueIndex" json:"mongo_id,omitempty"`

	SubjectID string   `gorm:"column:subject_id;type:varchar(32);not null;index" json:"subject_id"`
	Subject   *Subject `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

func (Topic) TableName() string { return "topic" }
