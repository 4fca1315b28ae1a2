package journal

// Decimal columns are TEXT so values round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	symbol TEXT NOT NULL,
	dataset TEXT NOT NULL,
	params TEXT NOT NULL,
	fee_rate TEXT NOT NULL,
	starting_cash TEXT NOT NULL,
	final_cash TEXT NOT NULL,
	final_equity TEXT NOT NULL,
	bars INTEGER NOT NULL,
	total_return_pct TEXT NOT NULL,
	max_drawdown_pct TEXT NOT NULL,
	buy_and_hold_pct TEXT NOT NULL,
	total_trades INTEGER NOT NULL,
	round_trips INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	win_rate_pct TEXT NOT NULL,
	gross_profit TEXT NOT NULL,
	gross_loss TEXT NOT NULL,
	total_fees TEXT NOT NULL,
	profit_factor TEXT
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	fee TEXT NOT NULL,
	time DATETIME NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	equity TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS opt_results (
	opt_id TEXT NOT NULL,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	symbol TEXT NOT NULL,
	rank_by TEXT NOT NULL,
	position INTEGER NOT NULL,
	grid_index INTEGER NOT NULL,
	params TEXT NOT NULL,
	total_return_pct TEXT,
	max_drawdown_pct TEXT,
	win_rate_pct TEXT,
	profit_factor TEXT,
	trades INTEGER,
	failure TEXT,
	PRIMARY KEY (opt_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
