package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/store"
)

// Open creates a database handle and ensures the schema is up to date.
// The pool is limited to one connection: SQLite serializes writers anyway,
// and an in-memory DSN would otherwise hand each connection its own
// empty database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// ReviewStore implements store.ReviewStore on SQLite.
type ReviewStore struct {
	db     store.DBTX
	sqlDB  *sql.DB
	logger *slog.Logger
}

var _ store.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore wraps a handle returned by Open.
func NewReviewStore(db *sql.DB, logger *slog.Logger) *ReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "sqlite_review_store")),
	}
}

// WithTx returns a store whose queries run inside tx.
func (s *ReviewStore) WithTx(tx *sql.Tx) *ReviewStore {
	return &ReviewStore{db: tx, logger: s.logger}
}

const stateColumns = `s.id, s.card_id, s.user_id, s.ease_factor, s.interval_days, s.repetitions,
	s.due_date, s.last_reviewed, s.last_grade, s.created_at, s.updated_at`

const cardColumns = `c.id, c.knowledge_id, c.card_type, c.front, c.back, c.difficulty,
	c.metadata, c.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// ListDue implements store.DueCardLister.
func (s *ReviewStore) ListDue(ctx context.Context, q store.DueQuery) ([]store.DueRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + `, ` + stateColumns + `
		FROM schedule_states s
		JOIN cards c ON c.id = s.card_id
		WHERE s.due_date <= ?`
	args := []any{toMillis(q.Now)}

	if q.UserID.Valid {
		query += ` AND s.user_id = ?`
		args = append(args, q.UserID.UUID.String())
	}
	query += ` ORDER BY s.due_date ASC, s.card_id ASC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due cards", slog.String("error", err.Error()))
		return nil, store.NewStoreError("schedule_state", "list_due", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []store.DueRecord
	for rows.Next() {
		var rec store.DueRecord
		if err := scanCard(rows, &rec.Card, &rec.State); err != nil {
			return nil, store.NewStoreError("schedule_state", "list_due", "scan failed", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("schedule_state", "list_due", "row iteration failed", err)
	}

	log.Debug("due cards listed", slog.Int("count", len(records)))
	return records, nil
}

// GetByCardID implements store.ScheduleStateStore.
func (s *ReviewStore) GetByCardID(
	ctx context.Context,
	cardID uuid.UUID,
	userID uuid.NullUUID,
) (*domain.ScheduleState, error) {
	query := `SELECT ` + stateColumns + ` FROM schedule_states s
		WHERE s.card_id = ? AND s.user_id IS ?`

	var state domain.ScheduleState
	err := scanState(s.db.QueryRowContext(ctx, query, cardID.String(), nullUUID(userID)), &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrScheduleStateNotFound
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get schedule state",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, store.NewStoreError("schedule_state", "get", "query failed", MapError(err))
	}
	return &state, nil
}

// Update implements store.ScheduleStateStore.
func (s *ReviewStore) Update(ctx context.Context, state *domain.ScheduleState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE schedule_states
		SET ease_factor = ?, interval_days = ?, repetitions = ?, due_date = ?,
			last_reviewed = ?, last_grade = ?, updated_at = ?
		WHERE id = ?`,
		state.EaseFactor,
		state.Interval,
		state.Repetitions,
		toMillis(state.DueDate),
		nullMillis(state.LastReviewed),
		nullInt(state.LastGrade),
		toMillis(state.UpdatedAt),
		state.ID.String(),
	)
	if err != nil {
		log.Error("failed to update schedule state",
			slog.String("error", err.Error()),
			slog.String("state_id", state.ID.String()))
		return store.NewStoreError("schedule_state", "update", "exec failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("schedule_state", "update", "rows affected", err)
	}
	if n == 0 {
		return store.ErrScheduleStateNotFound
	}

	return nil
}

// ListByUser implements store.ScheduleStateLister.
func (s *ReviewStore) ListByUser(ctx context.Context, userID uuid.NullUUID) ([]domain.ScheduleState, error) {
	query := `SELECT ` + stateColumns + ` FROM schedule_states s`
	var args []any
	if userID.Valid {
		query += ` WHERE s.user_id = ?`
		args = append(args, userID.UUID.String())
	}
	query += ` ORDER BY s.due_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("schedule_state", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var states []domain.ScheduleState
	for rows.Next() {
		var state domain.ScheduleState
		if err := scanState(rows, &state); err != nil {
			return nil, store.NewStoreError("schedule_state", "list", "scan failed", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// CreateCard implements store.CardCreator.
func (s *ReviewStore) CreateCard(ctx context.Context, card *domain.Card, state *domain.ScheduleState) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if state.CardID != card.ID {
		return fmt.Errorf("%w: schedule state belongs to a different card", store.ErrInvalidEntity)
	}

	if s.sqlDB == nil {
		return s.insert(ctx, card, state)
	}
	return store.RunInTransaction(ctx, s.sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).insert(ctx, card, state)
	})
}

func (s *ReviewStore) insert(ctx context.Context, card *domain.Card, state *domain.ScheduleState) error {
	metadata := card.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: metadata: %w", store.ErrInvalidEntity, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, knowledge_id, card_type, front, back, difficulty, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID.String(),
		card.KnowledgeID.String(),
		string(card.Type),
		card.Front,
		card.Back,
		card.Difficulty,
		string(raw),
		toMillis(card.CreatedAt),
	); err != nil {
		return store.NewStoreError("card", "create", "insert failed", MapError(err))
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_states (id, card_id, user_id, ease_factor, interval_days, repetitions,
			due_date, last_reviewed, last_grade, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.ID.String(),
		state.CardID.String(),
		nullUUID(state.UserID),
		state.EaseFactor,
		state.Interval,
		state.Repetitions,
		toMillis(state.DueDate),
		nullMillis(state.LastReviewed),
		nullInt(state.LastGrade),
		toMillis(state.CreatedAt),
		toMillis(state.UpdatedAt),
	); err != nil {
		return store.NewStoreError("schedule_state", "create", "insert failed", MapError(err))
	}

	return nil
}

// scanCard reads a card row followed by its schedule state columns.
func scanCard(row rowScanner, card *domain.Card, state *domain.ScheduleState) error {
	var (
		cardType  string
		metadata  string
		createdAt int64
		st        stateRow
	)

	dest := []any{
		&card.ID, &card.KnowledgeID, &cardType, &card.Front, &card.Back,
		&card.Difficulty, &metadata, &createdAt,
	}
	if err := row.Scan(append(dest, st.dest()...)...); err != nil {
		return err
	}

	card.Type = domain.CardType(cardType)
	card.CreatedAt = fromMillis(createdAt)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &card.Metadata); err != nil {
			return fmt.Errorf("decode card metadata: %w", err)
		}
	}

	st.into(state)
	return nil
}

func scanState(row rowScanner, state *domain.ScheduleState) error {
	var st stateRow
	if err := row.Scan(st.dest()...); err != nil {
		return err
	}
	st.into(state)
	return nil
}

// stateRow holds the raw column values of a schedule_states row.
type stateRow struct {
	id, cardID   uuid.UUID
	userID       uuid.NullUUID
	ease         float64
	interval     int
	repetitions  int
	due          int64
	lastReviewed sql.NullInt64
	lastGrade    sql.NullInt64
	createdAt    int64
	updatedAt    int64
}

func (r *stateRow) dest() []any {
	return []any{
		&r.id, &r.cardID, &r.userID, &r.ease, &r.interval, &r.repetitions,
		&r.due, &r.lastReviewed, &r.lastGrade, &r.createdAt, &r.updatedAt,
	}
}

func (r *stateRow) into(state *domain.ScheduleState) {
	*state = domain.ScheduleState{
		ID:          r.id,
		CardID:      r.cardID,
		UserID:      r.userID,
		EaseFactor:  r.ease,
		Interval:    r.interval,
		Repetitions: r.repetitions,
		DueDate:     fromMillis(r.due),
		CreatedAt:   fromMillis(r.createdAt),
		UpdatedAt:   fromMillis(r.updatedAt),
	}
	if r.lastReviewed.Valid {
		t := fromMillis(r.lastReviewed.Int64)
		state.LastReviewed = &t
	}
	if r.lastGrade.Valid {
		g := int(r.lastGrade.Int64)
		state.LastGrade = &g
	}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullUUID(id uuid.NullUUID) any {
	if !id.Valid {
		return nil
	}
	return id.UUID.String()
}
