package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AssignedQuestion — метаданные назначения вопроса на игровой слот.
// TrackingID — идентификатор вопроса в актуальной схеме; CategoryID и QuestionID
// сохраняются отдельно, чтобы запись можно было нормализовать, если TrackingID пуст.
type AssignedQuestion struct {
	TrackingID string `json:"tracking_id"`
	CategoryID string `json:"category_id"`
	QuestionID string `json:"question_id"`
}

// AssignedQuestionMap - пользовательский тип для работы с JSONB:
// отображение ключа слота в метаданные назначенного вопроса
type AssignedQuestionMap map[string]AssignedQuestion

// Scan реализует интерфейс sql.Scanner для AssignedQuestionMap
// Используется GORM для чтения JSONB данных из базы
func (m *AssignedQuestionMap) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*m = AssignedQuestionMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*m = AssignedQuestionMap{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Value реализует интерфейс driver.Valuer для AssignedQuestionMap
func (m AssignedQuestionMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil // Пустой JSON объект вместо null
	}
	return json.Marshal(m)
}

// StringArray - пользовательский тип для работы с JSONB массивом строк
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Game хранит авторитетную запись сыгранной игры.
// AssignedQuestions заполняется при создании игры; UsedQuestions — плоский
// список ключей слотов, оставшийся от игр старого формата (только чтение).
type Game struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	PublicID          string              `gorm:"size:36;uniqueIndex;not null" json:"public_id"`
	AccountID         string              `gorm:"size:128;not null;index" json:"account_id"`
	Name              string              `gorm:"size:200" json:"name"`
	AssignedQuestions AssignedQuestionMap `gorm:"type:jsonb" json:"assigned_questions"`
	UsedQuestions     StringArray         `gorm:"type:jsonb" json:"used_questions"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// TableName задает имя таблицы для GORM
func (Game) TableName() string {
	return "games"
}
