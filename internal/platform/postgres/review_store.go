package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/store"
)

// ReviewStore implements store.ReviewStore on PostgreSQL.
type ReviewStore struct {
	db     store.DBTX
	sqlDB  *sql.DB // nil when bound to a transaction
	logger *slog.Logger
}

// Ensure ReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore creates a store backed by db.
// If logger is nil, a default logger will be used.
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
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// WithTx returns a store whose queries run inside tx.
func (s *ReviewStore) WithTx(tx *sql.Tx) *ReviewStore {
	return &ReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

const selectStateColumns = `
	s.id, s.card_id, s.user_id, s.ease_factor, s.interval_days, s.repetitions,
	s.due_date, s.last_reviewed, s.last_grade, s.created_at, s.updated_at`

const selectCardColumns = `
	c.id, c.knowledge_id, c.card_type, c.front, c.back, c.difficulty,
	c.metadata, c.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// ListDue implements store.DueCardLister.
func (s *ReviewStore) ListDue(ctx context.Context, q store.DueQuery) ([]store.DueRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var sb strings.Builder
	sb.WriteString("SELECT")
	sb.WriteString(selectCardColumns)
	sb.WriteString(",")
	sb.WriteString(selectStateColumns)
	sb.WriteString(`
		FROM schedule_states s
		JOIN cards c ON c.id = s.card_id
		WHERE s.due_date <= $1`)

	args := []any{q.Now.UTC()}
	if q.UserID.Valid {
		args = append(args, q.UserID.UUID)
		fmt.Fprintf(&sb, " AND s.user_id = $%d", len(args))
	}
	sb.WriteString(" ORDER BY s.due_date ASC, s.card_id ASC")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to query due cards", slog.String("error", err.Error()))
		return nil, store.NewStoreError("schedule_state", "list_due", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []store.DueRecord
	for rows.Next() {
		var rec store.DueRecord
		if err := scanDueRecord(rows, &rec); err != nil {
			log.Error("failed to scan due card", slog.String("error", err.Error()))
			return nil, store.NewStoreError("schedule_state", "list_due", "scan failed", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("schedule_state", "list_due", "row iteration failed", MapError(err))
	}

	log.Debug("due cards listed",
		slog.Int("count", len(records)),
		slog.Bool("user_filtered", q.UserID.Valid))
	return records, nil
}

// GetByCardID implements store.ScheduleStateStore.
func (s *ReviewStore) GetByCardID(
	ctx context.Context,
	cardID uuid.UUID,
	userID uuid.NullUUID,
) (*domain.ScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + selectStateColumns + `
		FROM schedule_states s
		WHERE s.card_id = $1 AND s.user_id IS NOT DISTINCT FROM $2`

	var state domain.ScheduleState
	err := scanState(s.db.QueryRowContext(ctx, query, cardID, userID), &state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("schedule state not found", slog.String("card_id", cardID.String()))
			return nil, store.ErrScheduleStateNotFound
		}
		log.Error("failed to get schedule state",
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
		log.Warn("schedule state validation failed during update",
			slog.String("error", err.Error()),
			slog.String("state_id", state.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE schedule_states
		SET ease_factor = $1, interval_days = $2, repetitions = $3, due_date = $4,
			last_reviewed = $5, last_grade = $6, updated_at = $7
		WHERE id = $8`,
		state.EaseFactor,
		state.Interval,
		state.Repetitions,
		state.DueDate.UTC(),
		nullTime(state),
		nullGrade(state),
		state.UpdatedAt.UTC(),
		state.ID,
	)
	if err != nil {
		log.Error("failed to update schedule state",
			slog.String("error", err.Error()),
			slog.String("state_id", state.ID.String()))
		return store.NewStoreError("schedule_state", "update", "exec failed", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrScheduleStateNotFound); err != nil {
		log.Warn("schedule state update affected no rows", slog.String("state_id", state.ID.String()))
		return err
	}

	log.Debug("schedule state updated",
		slog.String("state_id", state.ID.String()),
		slog.Int("interval", state.Interval),
		slog.Time("due_date", state.DueDate))
	return nil
}

// ListByUser implements store.ScheduleStateLister.
func (s *ReviewStore) ListByUser(ctx context.Context, userID uuid.NullUUID) ([]domain.ScheduleState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + selectStateColumns + ` FROM schedule_states s`
	var args []any
	if userID.Valid {
		query += ` WHERE s.user_id = $1`
		args = append(args, userID.UUID)
	}
	query += ` ORDER BY s.due_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list schedule states", slog.String("error", err.Error()))
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
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("schedule_state", "list", "row iteration failed", MapError(err))
	}

	return states, nil
}

// CreateCard implements store.CardCreator. The card and its schedule are
// written in one transaction.
func (s *ReviewStore) CreateCard(ctx context.Context, card *domain.Card, state *domain.ScheduleState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if state.CardID != card.ID {
		return fmt.Errorf("%w: schedule state belongs to a different card", store.ErrInvalidEntity)
	}

	insert := func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.WithTx(tx)
		if err := txStore.insertCard(ctx, card); err != nil {
			return err
		}
		return txStore.insertState(ctx, state)
	}

	var err error
	if s.sqlDB != nil {
		err = store.RunInTransaction(ctx, s.sqlDB, insert)
	} else {
		err = s.insertCard(ctx, card)
		if err == nil {
			err = s.insertState(ctx, state)
		}
	}
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	log.Info("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("card_type", string(card.Type)))
	return nil
}

func (s *ReviewStore) insertCard(ctx context.Context, card *domain.Card) error {
	metadata, err := json.Marshal(nonNilMetadata(card.Metadata))
	if err != nil {
		return fmt.Errorf("%w: metadata: %w", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (id, knowledge_id, card_type, front, back, difficulty, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		card.ID,
		card.KnowledgeID,
		string(card.Type),
		card.Front,
		card.Back,
		card.Difficulty,
		metadata,
		card.CreatedAt.UTC(),
	)
	if err != nil {
		return store.NewStoreError("card", "create", "insert failed", MapError(err))
	}
	return nil
}

func (s *ReviewStore) insertState(ctx context.Context, state *domain.ScheduleState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_states (id, card_id, user_id, ease_factor, interval_days, repetitions,
			due_date, last_reviewed, last_grade, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		state.ID,
		state.CardID,
		state.UserID,
		state.EaseFactor,
		state.Interval,
		state.Repetitions,
		state.DueDate.UTC(),
		nullTime(state),
		nullGrade(state),
		state.CreatedAt.UTC(),
		state.UpdatedAt.UTC(),
	)
	if err != nil {
		return store.NewStoreError("schedule_state", "create", "insert failed", MapError(err))
	}
	return nil
}

func scanState(row rowScanner, state *domain.ScheduleState) error {
	var (
		lastReviewed sql.NullTime
		lastGrade    sql.NullInt32
	)

	if err := row.Scan(
		&state.ID,
		&state.CardID,
		&state.UserID,
		&state.EaseFactor,
		&state.Interval,
		&state.Repetitions,
		&state.DueDate,
		&lastReviewed,
		&lastGrade,
		&state.CreatedAt,
		&state.UpdatedAt,
	); err != nil {
		return err
	}

	normalizeState(state, lastReviewed, lastGrade)
	return nil
}

func scanDueRecord(row rowScanner, rec *store.DueRecord) error {
	var (
		cardType     string
		metadata     []byte
		lastReviewed sql.NullTime
		lastGrade    sql.NullInt32
	)

	if err := row.Scan(
		&rec.Card.ID,
		&rec.Card.KnowledgeID,
		&cardType,
		&rec.Card.Front,
		&rec.Card.Back,
		&rec.Card.Difficulty,
		&metadata,
		&rec.Card.CreatedAt,
		&rec.State.ID,
		&rec.State.CardID,
		&rec.State.UserID,
		&rec.State.EaseFactor,
		&rec.State.Interval,
		&rec.State.Repetitions,
		&rec.State.DueDate,
		&lastReviewed,
		&lastGrade,
		&rec.State.CreatedAt,
		&rec.State.UpdatedAt,
	); err != nil {
		return err
	}

	rec.Card.Type = domain.CardType(cardType)
	rec.Card.CreatedAt = rec.Card.CreatedAt.UTC()
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Card.Metadata); err != nil {
			return fmt.Errorf("decode card metadata: %w", err)
		}
	}

	normalizeState(&rec.State, lastReviewed, lastGrade)
	return nil
}

func normalizeState(state *domain.ScheduleState, lastReviewed sql.NullTime, lastGrade sql.NullInt32) {
	state.DueDate = state.DueDate.UTC()
	state.CreatedAt = state.CreatedAt.UTC()
	state.UpdatedAt = state.UpdatedAt.UTC()
	state.LastReviewed = nil
	state.LastGrade = nil

	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		state.LastReviewed = &t
	}
	if lastGrade.Valid {
		g := int(lastGrade.Int32)
		state.LastGrade = &g
	}
}

func nullTime(state *domain.ScheduleState) sql.NullTime {
	if state.LastReviewed == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: state.LastReviewed.UTC(), Valid: true}
}

func nullGrade(state *domain.ScheduleState) sql.NullInt32 {
	if state.LastGrade == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*state.LastGrade), Valid: true}
}

func nonNilMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
