package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hatchai/hatch-backend/internal/config"
	"github.com/hatchai/hatch-backend/internal/core"
	"github.com/hatchai/hatch-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		// Append SSL params to the provided DATABASE_URL safely.
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// Ensure bootstrap once
	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for user

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the db interface for Persona

func (c *DatabaseClient) CreatePersona(ctx context.Context, p *models.Persona) error {
	if p == nil {
		return errors.New("nil persona")
	}
	const q = `
		INSERT INTO personas (id, user_id, name, linkedin_url, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q, p.ID, p.UserID, p.Name, p.LinkedInURL, p.CreatedAt)
	return err
}

func (c *DatabaseClient) GetPersonaByID(ctx context.Context, id string) (*models.Persona, error) {
	const q = `
		SELECT id, user_id, name, linkedin_url, profile_data, articles_data, summary, created_at
		FROM personas
		WHERE id = $1
	`
	var (
		p       models.Persona
		profile []byte
		arts    []byte
		summary []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.UserID, &p.Name, &p.LinkedInURL, &profile, &arts, &summary, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ProfileData = json.RawMessage(profile)
	p.ArticlesData = json.RawMessage(arts)
	if len(summary) > 0 {
		var s models.PersonaSummary
		if err := json.Unmarshal(summary, &s); err != nil {
			return nil, fmt.Errorf("decode summary for persona %s: %w", id, err)
		}
		p.Summary = &s
	}
	return &p, nil
}

func (c *DatabaseClient) ListPersonasByUser(ctx context.Context, userID string) ([]models.Persona, error) {
	const q = `
		SELECT id, user_id, name, linkedin_url, summary, created_at
		FROM personas
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Persona
	for rows.Next() {
		var (
			p       models.Persona
			summary []byte
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.LinkedInURL, &summary, &p.CreatedAt); err != nil {
			return nil, err
		}
		if len(summary) > 0 {
			var s models.PersonaSummary
			if err := json.Unmarshal(summary, &s); err != nil {
				return nil, fmt.Errorf("decode summary for persona %s: %w", p.ID, err)
			}
			p.Summary = &s
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdatePersonaRawData(ctx context.Context, id string, profileData, articlesData []byte) error {
	const q = `
		UPDATE personas
		SET profile_data = $2, articles_data = $3
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, profileData, articlesData)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("persona not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) UpdatePersonaSummary(ctx context.Context, id string, summary *models.PersonaSummary) error {
	if summary == nil {
		return errors.New("nil summary")
	}
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	const q = `
		UPDATE personas
		SET summary = $2
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, body)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("persona not found: %s", id)
	}
	return nil
}

// DeletePersona removes the persona and its conversation rows in one
// transaction, conversations first so no turn ever references a missing row.
func (c *DatabaseClient) DeletePersona(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE persona_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("persona not found: %s", id)
	}
	return tx.Commit()
}

// Implementing the db interface for conversation turns

func (c *DatabaseClient) AppendTurn(ctx context.Context, turn *models.ConversationTurn) error {
	if turn == nil {
		return errors.New("nil turn")
	}
	const q = `
		INSERT INTO conversations (id, persona_id, user_id, session_id, by_ai, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		turn.ID, turn.PersonaID, turn.UserID, turn.SessionID, turn.ByAI, turn.Message, turn.CreatedAt)
	return err
}

func (c *DatabaseClient) ListTurns(ctx context.Context, personaID, sessionID string) ([]models.ConversationTurn, error) {
	const q = `
		SELECT id, persona_id, user_id, session_id, by_ai, message, created_at
		FROM conversations
		WHERE persona_id = $1 AND session_id = $2
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, personaID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.ID, &t.PersonaID, &t.UserID, &t.SessionID, &t.ByAI, &t.Message, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
