package database

const schema = `
CREATE TABLE blobs (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// migrations holds incremental schema changes applied in order based on
// user_version. migrations[0] is empty because version 0 uses the base schema.
var migrations = []string{
	"",
}
