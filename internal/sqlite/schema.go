package sqlite

// Schema DDL for the records table. Executed on every Attach; the
// statements are idempotent.
const (
	createRecords = `CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL
);`
)

// schemaDDL lists all CREATE statements in dependency order.
var schemaDDL = []string{
	createRecords,
}

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Column lists shared by the query layer.
const (
	recordColumns = "id, title, description"
	selectRecords = "SELECT " + recordColumns + " FROM records"
)
