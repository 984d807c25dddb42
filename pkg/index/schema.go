package index

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game TEXT NOT NULL,
    system_id TEXT NOT NULL,
    resolution TEXT NOT NULL,
    run_number INTEGER NOT NULL,
    captured_at TEXT NOT NULL,
    average_fps REAL NOT NULL,
    low_1_fps REAL NOT NULL,
    low_0_1_fps REAL NOT NULL,
    stutter_percent REAL NOT NULL,
    stutter_tier TEXT NOT NULL,
    settings TEXT NOT NULL,
    UNIQUE (game, system_id, resolution, run_number)
);

CREATE INDEX IF NOT EXISTS idx_runs_game ON runs(game);
CREATE INDEX IF NOT EXISTS idx_runs_partition ON runs(game, system_id, resolution);
`
