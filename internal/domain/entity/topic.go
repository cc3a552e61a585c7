package entity

import "time"

// Topic представляет тему курса. Order задаёт полный порядок прохождения тем.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Subject   string    `gorm:"size:200;not null;default:''" json:"subject"`
	Order     int       `gorm:"column:position;not null;uniqueIndex" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Topic) TableName() string {
	return "topics"
}
