package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	knowledge_id TEXT NOT NULL,
	card_type TEXT NOT NULL CHECK (card_type IN ('qa', 'cloze', 'image_hotspot')),
	front TEXT NOT NULL CHECK (front <> ''),
	back TEXT NOT NULL DEFAULT '',
	difficulty REAL NOT NULL DEFAULT 0,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schedule_states (
	id TEXT PRIMARY KEY,
	card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	user_id TEXT,
	ease_factor REAL NOT NULL CHECK (ease_factor >= 1.3),
	interval_days INTEGER NOT NULL CHECK (interval_days >= 1),
	repetitions INTEGER NOT NULL CHECK (repetitions >= 0),
	due_date INTEGER NOT NULL,
	last_reviewed INTEGER,
	last_grade INTEGER CHECK (last_grade BETWEEN 0 AND 5),
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS schedule_states_card_user_idx
	ON schedule_states (card_id, IFNULL(user_id, ''));
CREATE INDEX IF NOT EXISTS schedule_states_due_date_idx ON schedule_states (due_date);
CREATE INDEX IF NOT EXISTS schedule_states_user_due_date_idx ON schedule_states (user_id, due_date);
`
