package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Pagination captures list metadata for API responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListQuery carries paging input for list endpoints.
type ListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Limit normalizes the page size into the allowed window.
func (q ListQuery) Limit() int {
	if q.PageSize <= 0 || q.PageSize > 100 {
		return 20
	}
	return q.PageSize
}

// Offset computes the row offset for the normalized page.
func (q ListQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.Limit()
}

// Paginate builds the response metadata for a total row count.
func (q ListQuery) Paginate(total int) Pagination {
	size := q.Limit()
	pages := (total + size - 1) / size
	page := q.Page
	if page < 1 {
		page = 1
	}
	return Pagination{Page: page, PageSize: size, Total: total, TotalPages: pages}
}

// EntryFilter narrows timetable entry listings to one teacher or section.
type EntryFilter struct {
	TeacherID *int64
	SectionID *int64
}

// StringList is a JSON-encoded list of strings stored in a json column.
// The loosely-typed JSON containers of the source schema become typed
// sequences validated here, at the persistence boundary.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encode string list: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSONList(src, (*[]string)(l), "string list")
}

// Int64List is a JSON-encoded list of integer ids stored in a json column.
type Int64List []int64

// Value implements driver.Valuer.
func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, fmt.Errorf("encode id list: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *Int64List) Scan(src interface{}) error {
	return scanJSONList(src, (*[]int64)(l), "id list")
}

func scanJSONList(src, dest interface{}, label string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		if err := json.Unmarshal(v, dest); err != nil {
			return fmt.Errorf("decode %s: %w", label, err)
		}
		return nil
	case string:
		if v == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(v), dest); err != nil {
			return fmt.Errorf("decode %s: %w", label, err)
		}
		return nil
	default:
		return fmt.Errorf("decode %s: unsupported source %T", label, src)
	}
}
