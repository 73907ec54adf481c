package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/namvu/mentorchat/internal/domain"
	_ "modernc.org/sqlite"
)

// Store implements domain.ConversationRepository over an embedded SQLite
// file. Used for local development in place of the hosted Postgres table;
// the contract is identical, including last-write-wins on ReplaceMessages.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the store at the given path
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database file path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			messages        TEXT NOT NULL,
			created_at      TEXT NOT NULL,
			updated_at      TEXT,
			lead_analysis   TEXT
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the store
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping verifies the store is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, messages, created_at, updated_at, lead_analysis
		FROM conversations
		WHERE conversation_id = ?
	`
	var (
		c            domain.Conversation
		messagesJSON string
		createdAt    string
		updatedAt    sql.NullString
		leadAnalysis sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&c.SessionID,
		&messagesJSON,
		&createdAt,
		&updatedAt,
		&leadAnalysis,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if err := s.hydrate(&c, messagesJSON, createdAt, updatedAt, leadAnalysis); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (conversation_id, messages, created_at)
		VALUES (?, ?, ?)
	`
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		conv.SessionID,
		string(messagesJSON),
		conv.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (s *Store) ReplaceMessages(ctx context.Context, sessionID string, messages []domain.Message, updatedAt time.Time) error {
	query := `
		UPDATE conversations
		SET messages = ?, updated_at = ?
		WHERE conversation_id = ?
	`
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query,
		string(messagesJSON),
		updatedAt.UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM conversations WHERE conversation_id = ?`
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Conversation, error) {
	query := `
		SELECT conversation_id, messages, created_at, updated_at, lead_analysis
		FROM conversations
		ORDER BY updated_at DESC NULLS LAST
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var (
			c            domain.Conversation
			messagesJSON string
			createdAt    string
			updatedAt    sql.NullString
			leadAnalysis sql.NullString
		)
		if err := rows.Scan(&c.SessionID, &messagesJSON, &createdAt, &updatedAt, &leadAnalysis); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if err := s.hydrate(&c, messagesJSON, createdAt, updatedAt, leadAnalysis); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (s *Store) hydrate(c *domain.Conversation, messagesJSON, createdAt string, updatedAt, leadAnalysis sql.NullString) error {
	if err := json.Unmarshal([]byte(messagesJSON), &c.Messages); err != nil {
		return fmt.Errorf("failed to unmarshal messages: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	c.CreatedAt = created

	if updatedAt.Valid {
		updated, err := time.Parse(time.RFC3339Nano, updatedAt.String)
		if err != nil {
			return fmt.Errorf("failed to parse updated_at: %w", err)
		}
		c.UpdatedAt = &updated
	}
	if leadAnalysis.Valid {
		c.LeadAnalysis = json.RawMessage(leadAnalysis.String)
	}
	return nil
}
