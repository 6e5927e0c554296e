package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"GoLetterAI/app/letters"
	"GoLetterAI/app/teams"
)

// Fixed-width UTC timestamps keep text ordering chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ Interface = &SQLiteStorage{}

type SQLiteStorage struct {
	db *sql.DB
}

// DefaultDBPath is $DB_PATH, or data/letters.db under the working directory.
func DefaultDBPath() string {
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		return dbPath
	}
	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = "."
	}
	defaultPath := filepath.Join(projectDir, "data", "letters.db")
	log.Printf("📂 DB_PATH not set, using default: %s", defaultPath)
	return defaultPath
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db at %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS letters (
            id TEXT PRIMARY KEY,
            doc_type TEXT NOT NULL DEFAULT 'letter',
            customer_name TEXT NOT NULL,
            policy_number TEXT NOT NULL,
            letter_type TEXT NOT NULL,
            content TEXT NOT NULL,
            compliance_status TEXT NOT NULL,
            user_prompt TEXT NOT NULL,
            approval_details TEXT NOT NULL,
            total_rounds INTEGER NOT NULL,
            created_at TEXT NOT NULL,
            updated_at TEXT NULL,
            deleted INTEGER NOT NULL DEFAULT 0,
            deleted_at TEXT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_letters_customer ON letters (customer_name);
        CREATE INDEX IF NOT EXISTS idx_letters_type ON letters (letter_type);
        CREATE TABLE IF NOT EXISTS conversations (
            letter_id TEXT NOT NULL,
            seq INTEGER NOT NULL,
            round INTEGER NOT NULL,
            agent TEXT NOT NULL,
            message TEXT NOT NULL,
            created_at TEXT NOT NULL,
            PRIMARY KEY (letter_id, seq)
        );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) SaveLetter(ctx context.Context, doc letters.Document) error {
	details, err := json.Marshal(doc.ApprovalDetails)
	if err != nil {
		return err
	}
	if doc.Type == "" {
		doc.Type = "letter"
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO letters (id, doc_type, customer_name, policy_number, letter_type, content,
		 compliance_status, user_prompt, approval_details, total_rounds, created_at, updated_at, deleted, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Type, doc.CustomerName, doc.PolicyNumber, string(doc.LetterType), doc.Content,
		string(doc.ComplianceStatus), doc.UserPrompt, string(details), doc.TotalRounds,
		doc.CreatedAt.UTC().Format(timeLayout), formatOptional(doc.UpdatedAt), doc.Deleted, formatOptional(doc.DeletedAt),
	)
	if err != nil {
		log.Printf("⚠️ Error saving letter %s: %v", doc.ID, err)
		return err
	}
	log.Printf("✅ Letter saved: %s (%s, %s)", doc.ID, doc.LetterType, doc.ComplianceStatus)
	return nil
}

const selectLetter = `SELECT id, doc_type, customer_name, policy_number, letter_type, content, compliance_status,
	user_prompt, approval_details, total_rounds, created_at, updated_at, deleted, deleted_at FROM letters`

// GetLetter ignores soft-deleted letters.
func (s *SQLiteStorage) GetLetter(ctx context.Context, id string) (*letters.Document, error) {
	row := s.db.QueryRowContext(ctx, selectLetter+` WHERE id = ? AND deleted = 0`, id)
	doc, err := scanLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStorage) ListLetters(ctx context.Context, filter Filter) ([]letters.Document, error) {
	var where []string
	var args []any
	if !filter.IncludeDeleted {
		where = append(where, "deleted = 0")
	}
	if filter.CustomerName != "" {
		where = append(where, "customer_name = ?")
		args = append(args, filter.CustomerName)
	}
	if filter.PolicyNumber != "" {
		where = append(where, "policy_number = ?")
		args = append(args, filter.PolicyNumber)
	}
	if filter.LetterType != "" {
		where = append(where, "letter_type = ?")
		args = append(args, string(filter.LetterType))
	}
	if filter.Status != "" {
		where = append(where, "compliance_status = ?")
		args = append(args, string(filter.Status))
	}

	query := selectLetter
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]letters.Document, 0)
	for rows.Next() {
		doc, err := scanLetter(rows)
		if err != nil {
			log.Printf("⚠️ Error scanning letter row: %v", err)
			continue
		}
		out = append(out, *doc)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStorage) UpdateStatus(ctx context.Context, id string, status letters.ComplianceStatus) (*letters.Document, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE letters SET compliance_status = ?, updated_at = ? WHERE id = ? AND deleted = 0`,
		string(status), now, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	log.Printf("✅ Letter %s status updated to %s", id, status)
	return s.GetLetter(ctx, id)
}

// DeleteLetter is a soft delete: the row stays, flagged and timestamped.
func (s *SQLiteStorage) DeleteLetter(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE letters SET deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ? AND deleted = 0`,
		now, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	log.Printf("🗑️ Letter %s soft-deleted", id)
	return nil
}

// SaveConversation replaces any conversation stored for letterID.
func (s *SQLiteStorage) SaveConversation(ctx context.Context, letterID string, conversation []teams.ConversationEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations WHERE letter_id = ?`, letterID); err != nil {
		return err
	}
	for i, entry := range conversation {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversations (letter_id, seq, round, agent, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			letterID, i, entry.Round, entry.Role.String(), entry.Message, entry.Timestamp.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("save conversation entry %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) GetConversation(ctx context.Context, letterID string) ([]teams.ConversationEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, agent, message, created_at FROM conversations WHERE letter_id = ? ORDER BY seq ASC`,
		letterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]teams.ConversationEntry, 0)
	for rows.Next() {
		var entry teams.ConversationEntry
		var agent, createdAt string
		if err = rows.Scan(&entry.Round, &agent, &entry.Message, &createdAt); err != nil {
			return nil, err
		}
		if entry.Role, err = teams.ParseRole(agent); err != nil {
			return nil, err
		}
		entry.Timestamp, _ = time.Parse(timeLayout, createdAt)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLetter(row scanner) (*letters.Document, error) {
	var doc letters.Document
	var letterType, status, details, createdAt string
	var updatedAt, deletedAt sql.NullString
	err := row.Scan(&doc.ID, &doc.Type, &doc.CustomerName, &doc.PolicyNumber, &letterType, &doc.Content,
		&status, &doc.UserPrompt, &details, &doc.TotalRounds, &createdAt, &updatedAt, &doc.Deleted, &deletedAt)
	if err != nil {
		return nil, err
	}
	doc.LetterType = letters.LetterType(letterType)
	doc.ComplianceStatus = letters.ComplianceStatus(status)
	if err = json.Unmarshal([]byte(details), &doc.ApprovalDetails); err != nil {
		return nil, fmt.Errorf("decode approval details of %s: %w", doc.ID, err)
	}
	doc.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	doc.UpdatedAt = parseOptional(updatedAt)
	doc.DeletedAt = parseOptional(deletedAt)
	return &doc, nil
}

func formatOptional(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseOptional(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
