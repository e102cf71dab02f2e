package record

import "github.com/jacentio/tessera/query"

// Collection is an ordered set of records read from one or more pages.
type Collection struct {
	records []*Record
	rows    *query.Collection
}

// Records returns the records in result order.
func (c *Collection) Records() []*Record { return c.records }

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.records) }

// First returns the first record, or nil.
func (c *Collection) First() *Record {
	if len(c.records) == 0 {
		return nil
	}
	return c.records[0]
}

// Page returns the last page consumed, or nil.
func (c *Collection) Page() query.Page { return c.rows.Page() }

// NextToken returns the token that resumes after this collection, or "".
func (c *Collection) NextToken() string { return c.rows.NextToken() }
