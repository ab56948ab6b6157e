package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/recruitment"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	id            TEXT PRIMARY KEY,
	position_name TEXT NOT NULL,
	payload       JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	position_id    TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	status         TEXT NOT NULL,
	stages         JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ranking_runs (
	id                UUID PRIMARY KEY,
	offer_title       TEXT NOT NULL,
	offer_description TEXT NOT NULL,
	threshold         DOUBLE PRECISION NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ranking_verdicts (
	run_id       UUID NOT NULL REFERENCES ranking_runs(id) ON DELETE CASCADE,
	candidate_id INTEGER NOT NULL,
	score        DOUBLE PRECISION,
	rejected     BOOLEAN NOT NULL,
	reason       TEXT NOT NULL,
	PRIMARY KEY (run_id, candidate_id)
);
`

// Postgres stores sessions, positions and ranking results.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var (
	_ SessionStore           = (*Postgres)(nil)
	_ PositionStore          = (*Postgres)(nil)
	_ recruitment.ResultSink = (*Postgres)(nil)
)

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// Close closes the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Migrate creates the tables when they are missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) CreateSession(ctx context.Context, id, positionID, candidateName string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sessions (id, position_id, candidate_name, status)
		 VALUES ($1, $2, $3, $4)`,
		id, positionID, candidateName, StatusInitialized,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	p.logger.Info("session created", zap.String("session_id", id), zap.String("position_id", positionID))
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Session, error) {
	var (
		session Session
		stages  []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, position_id, candidate_name, status, stages, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.PositionID, &session.CandidateName, &session.Status, &stages, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	session.Stages, err = decodeStages(stages)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return &session, nil
}

func (p *Postgres) SetStage(ctx context.Context, id, stage string, value any) error {
	data, err := encodeStage(value)
	if err != nil {
		return fmt.Errorf("stage %s: %w", stage, err)
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE sessions
		 SET stages = jsonb_set(stages, ARRAY[$2::text], $3::jsonb, true), updated_at = NOW()
		 WHERE id = $1`,
		id, stage, data,
	)
	if err != nil {
		return fmt.Errorf("save stage %s of session %s: %w", stage, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	p.logger.Debug("stage saved", zap.String("session_id", id), zap.String("stage", stage))
	return nil
}

func (p *Postgres) UpsertPosition(ctx context.Context, position Position) error {
	payload, err := json.Marshal(position.Payload)
	if err != nil {
		return fmt.Errorf("marshal position payload: %w", err)
	}
	if position.Payload == nil {
		payload = []byte("{}")
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO positions (id, position_name, payload)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET position_name = $2, payload = $3, updated_at = NOW()`,
		position.ID, position.Name, payload,
	)
	if err != nil {
		return fmt.Errorf("upsert position %s: %w", position.ID, err)
	}
	return nil
}

// ListPositions returns all positions sorted by name.
func (p *Postgres) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, position_name FROM positions ORDER BY position_name`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var position Position
		if err := rows.Scan(&position.ID, &position.Name); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// GetPosition returns nil, nil when the position does not exist.
func (p *Postgres) GetPosition(ctx context.Context, id string) (*Position, error) {
	var (
		position Position
		payload  []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, position_name, payload FROM positions WHERE id = $1`, id,
	).Scan(&position.ID, &position.Name, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get position %s: %w", id, err)
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &position.Payload); err != nil {
			return nil, fmt.Errorf("decode position %s: %w", id, err)
		}
	}
	return &position, nil
}

func (p *Postgres) Name() string { return "postgres" }

// SaveResults stores a ranking run and its verdicts in one transaction.
func (p *Postgres) SaveResults(ctx context.Context, run *recruitment.Run) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO ranking_runs (id, offer_title, offer_description, threshold, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, run.Offer.Title, run.Offer.Description, run.Threshold, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	scores := make(map[int]float64, len(run.Qualified))
	for _, item := range run.Qualified {
		scores[item.ID] = item.Score
	}

	batch := &pgx.Batch{}
	for _, v := range run.Verdicts {
		var score *float64
		if s, ok := scores[v.ID]; ok {
			score = &s
		}
		batch.Queue(
			`INSERT INTO ranking_verdicts (run_id, candidate_id, score, rejected, reason)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (run_id, candidate_id) DO UPDATE SET rejected = $4, reason = $5`,
			id, v.ID, score, v.Rejected, v.Reason,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert verdicts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encodeStage(value any) ([]byte, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, errors.New("invalid JSON")
		}
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func decodeStages(data []byte) (map[string]json.RawMessage, error) {
	stages := map[string]json.RawMessage{}
	if len(data) == 0 {
		return stages, nil
	}
	if err := json.Unmarshal(data, &stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	return stages, nil
}
