package sqlite

// schema is idempotent, so that it can be applied on every start and from the initialisation route.
// Poem dependents are deleted explicitly by the poems store; foreign keys only forbid orphans.
const schema = `
CREATE TABLE
	IF NOT EXISTS writers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		social TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT ''
	);

CREATE TABLE
	IF NOT EXISTS poems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL CHECK (length(trim(title)) > 0),
		body TEXT NOT NULL CHECK (length(trim(body)) > 0),
		date_added datetime NOT NULL,
		background_image TEXT NOT NULL DEFAULT '',
		view_count INTEGER NOT NULL DEFAULT 0
	);

CREATE INDEX IF NOT EXISTS "Poems Date Index" ON "poems" ("date_added" DESC);

CREATE TABLE
	IF NOT EXISTS subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE CHECK (length(email) > 0),
		name TEXT NOT NULL DEFAULT '',
		created_at datetime NOT NULL
	);

CREATE TABLE
	IF NOT EXISTS reactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		poem_id INTEGER NOT NULL,
		subscriber_id INTEGER NOT NULL,
		is_like BOOLEAN NOT NULL,
		CONSTRAINT uniq_reaction UNIQUE (poem_id, subscriber_id),
		FOREIGN KEY (poem_id) REFERENCES poems (id),
		FOREIGN KEY (subscriber_id) REFERENCES subscribers (id)
	);

CREATE TABLE
	IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		poem_id INTEGER NOT NULL,
		subscriber_id INTEGER NOT NULL,
		text TEXT NOT NULL CHECK (length(trim(text)) > 0),
		created_at datetime NOT NULL,
		FOREIGN KEY (poem_id) REFERENCES poems (id),
		FOREIGN KEY (subscriber_id) REFERENCES subscribers (id)
	);

CREATE INDEX IF NOT EXISTS "Comments Poem Index" ON "comments" ("poem_id", "created_at" DESC);

CREATE TABLE
	IF NOT EXISTS site_stats (
		key TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);
`
