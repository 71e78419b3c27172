package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
	apperrors "github.com/Meldroq8/trivia-game-sub006/internal/pkg/errors"
)

// localAccountKey — фиксированный ключ строки для данных без привязанного аккаунта
const localAccountKey = "__local__"

// LocalStore реализует repository.UsageStore поверх SQLite.
// Это резервное хранилище на устройстве: основное хранилище — удаленное,
// сюда данные попадают, когда аккаунт не привязан или удаленная запись не удалась.
type LocalStore struct {
	conn *sql.DB
}

// NewLocalStore открывает файл БД и создает таблицу при необходимости
func NewLocalStore(dbPath string) (*LocalStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if _, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS usage_store (
			account_id   TEXT PRIMARY KEY,
			usage_data   TEXT NOT NULL DEFAULT '{}',
			pool_size    INTEGER NOT NULL DEFAULT 0,
			last_updated INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create usage_store table: %w", err)
	}

	return &LocalStore{conn: db}, nil
}

// Close закрывает соединение с БД
func (s *LocalStore) Close() error {
	return s.conn.Close()
}

// rowKey подменяет пустой accountID фиксированным локальным ключом
func rowKey(accountID string) string {
	if accountID == "" {
		return localAccountKey
	}
	return accountID
}

// LoadDocument читает документ аккаунта целиком
func (s *LocalStore) LoadDocument(accountID string) (*entity.UsageDocument, error) {
	var raw string
	var poolSize int
	var lastUpdated int64

	err := s.conn.QueryRow(
		"SELECT usage_data, pool_size, last_updated FROM usage_store WHERE account_id = ?",
		rowKey(accountID),
	).Scan(&raw, &poolSize, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc := entity.NewUsageDocument()
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.UsageData); err != nil {
			return nil, fmt.Errorf("failed to decode usage_data for account %s: %w", accountID, err)
		}
	}
	doc.PoolSize = poolSize
	if lastUpdated > 0 {
		doc.LastUpdated = time.Unix(lastUpdated, 0)
	}
	return doc, nil
}

// SaveUsageData записывает карту использования, сохраняя pool_size
func (s *LocalStore) SaveUsageData(accountID string, usage map[string]int) error {
	data, err := json.Marshal(usage)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(`
		INSERT INTO usage_store (account_id, usage_data, last_updated) VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET usage_data = excluded.usage_data, last_updated = excluded.last_updated
	`, rowKey(accountID), string(data), time.Now().Unix())
	return err
}

// LoadPoolSize читает сохраненный размер пула
func (s *LocalStore) LoadPoolSize(accountID string) (int, error) {
	var poolSize int
	err := s.conn.QueryRow(
		"SELECT pool_size FROM usage_store WHERE account_id = ?",
		rowKey(accountID),
	).Scan(&poolSize)
	if err == sql.ErrNoRows {
		return 0, apperrors.ErrNotFound
	}
	return poolSize, err
}

// SavePoolSize записывает размер пула, сохраняя карту использования
func (s *LocalStore) SavePoolSize(accountID string, size int) error {
	_, err := s.conn.Exec(`
		INSERT INTO usage_store (account_id, pool_size, last_updated) VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET pool_size = excluded.pool_size, last_updated = excluded.last_updated
	`, rowKey(accountID), size, time.Now().Unix())
	return err
}

// Clear удаляет документ аккаунта целиком
func (s *LocalStore) Clear(accountID string) error {
	_, err := s.conn.Exec("DELETE FROM usage_store WHERE account_id = ?", rowKey(accountID))
	return err
}
