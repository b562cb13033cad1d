// Package content holds the relational rows for the five-level teaching
// hierarchy. Primary keys are derived strings (canonical map-derived ids
// for new writes, legacy hashed ids for rows synced before the canonical
// scheme); mongo_id links each row back to its document-store record.
package content

type Class struct {
	ClassID   string  `gorm:"column:class_id;type:varchar(32);primaryKey" json:"class_id"`
	ClassName string  `gorm:"column:class_name;type:text;not null" json:"class_name"`
	MongoID   *string `gorm:"column:mongo_id;type:char(24);uniqueIndex" json:"mongo_id,omitempty"`
}

func (Class) TableName() string { return "class" }
