package query

// Collection is an ordered set of rows assembled from one or more pages.
type Collection struct {
	rows []Row
	page Page

	// truncated is set when the limit dropped rows of the last page. Its
	// token would skip them, so none is handed out.
	truncated bool
}

// NewCollection returns a collection over rows, optionally remembering the
// page it was read from.
func NewCollection(rows []Row, page Page) *Collection {
	return &Collection{rows: rows, page: page}
}

// Rows returns the collected rows.
func (c *Collection) Rows() []Row { return c.rows }

// Len returns the number of rows.
func (c *Collection) Len() int { return len(c.rows) }

// Page returns the last page consumed, or nil.
func (c *Collection) Page() Page { return c.page }

// NextToken returns the token that resumes after the last consumed page, or
// "" when the result is exhausted or the limit cut the last page short.
func (c *Collection) NextToken() string {
	if c.truncated || c.page == nil || c.page.IsLastPage() {
		return ""
	}
	return c.page.Token()
}

// append adds rows up to limit (0 = unlimited) and reports whether the limit
// was reached.
func (c *Collection) append(rows []Row, limit int) bool {
	for _, r := range rows {
		if limit > 0 && len(c.rows) >= limit {
			c.truncated = true
			return true
		}
		c.rows = append(c.rows, r)
	}
	return limit > 0 && len(c.rows) >= limit
}
