package content

import "github.com/google/uuid"

type User struct {
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;default:uuid_generate_v4();primaryKey" json:"user_id"`
	Username string    `gorm:"column:username;type:varchar(50);uniqueIndex;not null" json:"username"`
	Password string    `gorm:"column:password;type:text;not null" json:"-"`
	UserRole string    `gorm:"column:user_role;type:varchar(20);not null;default:'user'" json:"user_role"`
	IsActive bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	MongoID  *string   `gorm:"column:mongo_id;type:char(24)" json:"mongo_id,omitempty"`
}

func (User) TableName() string { return "app_user" }
