package builder

// Dialect is the set of quoting, escaping and keyword rules of one database engine.
// Implementations live in the dialect package; the client wraps one to add
// table-prefix escaping.
type Dialect interface {
	Name() string
	// Escape escapes s for use inside a string literal, without the surrounding quotes.
	Escape(s string) (string, error)
	// QuoteEscaped wraps an already escaped string in literal quotes.
	QuoteEscaped(escaped string) string
	// QuoteIdentifier quotes a single identifier segment.
	QuoteIdentifier(name string) string
	Bool(b bool) string
	// Limit renders the body of a LIMIT clause (without the keyword).
	Limit(offset, count string) string
	// BindStyle is the sqlx bind type (sqlx.QUESTION, sqlx.DOLLAR, ...).
	BindStyle() int
	// BindTypeName documents how a bind type is declared to the engine.
	BindTypeName(t BindType) string
	Capabilities() Capabilities
}

// Capabilities describes the dialect-specific keywords of the statement assemblers.
// An empty keyword means the feature is not supported.
type Capabilities struct {
	InsertIgnore string // keyword after INSERT, "IGNORE" or "OR IGNORE"
	IgnoreSuffix string // appended after the INSERT body, e.g. "ON CONFLICT DO NOTHING"
	UpdateIgnore string // keyword after UPDATE
	DeleteIgnore string // keyword after DELETE
	Upsert       string // clause before the assignment list
	RowLimit     bool   // UPDATE/DELETE accept LIMIT n
	LikeEscape   string // appended after an escaped LIKE pattern when the engine has no default escape character
	// BackslashEscapes is set when a backslash escapes a quote inside string
	// literals (MySQL). Standard-conforming engines only double the quote.
	BackslashEscapes bool
}
