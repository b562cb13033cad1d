package content

type Subject struct {
	SubjectID   string  `gorm:"column:subject_id;type:varchar(32);primaryKey" json:"subject_id"`
	SubjectName string  `gorm:"column:subject_name;type:text;not null" json:"subject_name"`
	MongoID     *string `gorm:"column:mongo_id;type:char(24);uniqueIndex" json:"mongo_id,omitempty"`

	ClassID string `gorm:"column:class_id;type:varchar(32);not null;index" json:"class_id"`
	Class   *Class `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
}

func (Subject) TableName() string { return "subject" }
