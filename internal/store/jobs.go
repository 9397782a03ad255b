package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"mailhunt-engine/internal/dedup"
	"mailhunt-engine/internal/domain"
)

// Job is a persisted posting: an IngestCandidate plus the store-assigned
// id, the user-state flags, and the creation timestamp.
type Job struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	Tags      []string  `json:"tags"`
	EmailID   string    `json:"emailId"`
	Received  time.Time `json:"received"`
	Saved     bool      `json:"saved"`
	Applied   bool      `json:"applied"`
	Read      bool      `json:"read"`
	Badges    []string  `json:"badges"`
	CreatedAt time.Time `json:"createdAt"`
}

// Flags are the mutable user-state bits on a persisted job.
type Flags struct {
	Saved   *bool `json:"saved,omitempty"`
	Applied *bool `json:"applied,omitempty"`
	Read    *bool `json:"read,omitempty"`
}

// Snapshot reads the dedup-relevant slice of every persisted job. The
// URL comes back already truncated to the indexable key length.
func Snapshot(ctx context.Context, db *sql.DB) ([]dedup.Seed, error) {
	rows, err := db.QueryContext(ctx, `SELECT title, company, url FROM jobs;`)
	if err != nil {
		return nil, fmt.Errorf("snapshot jobs: %w", err)
	}
	defer rows.Close()

	var out []dedup.Seed
	for rows.Next() {
		var s dedup.Seed
		if err := rows.Scan(&s.Title, &s.Company, &s.URL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Insert persists a candidate, assigning the id and creation timestamp.
// The URL is truncated to the key length before it hits the table so the
// stored value always equals what the dedup cache compared against.
func Insert(ctx context.Context, db *sql.DB, c domain.IngestCandidate) (Job, error) {
	now := time.Now().UTC()

	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsB, _ := json.Marshal(tags)

	j := Job{
		Title:     c.Title,
		Company:   c.Company,
		Location:  c.Location,
		URL:       dedup.TruncateURL(c.URL),
		Source:    c.Source,
		Type:      c.Type,
		Tags:      tags,
		EmailID:   c.EmailID,
		Received:  c.DateReceived,
		Badges:    []string{},
		CreatedAt: now,
	}
	if j.Received.IsZero() {
		j.Received = now
	}

	res, err := db.ExecContext(ctx, `
INSERT INTO jobs(title, company, location, url, source, type, tags, email_id, received, created_at)
VALUES(?,?,?,?,?,?,?,?,?,?);`,
		j.Title, j.Company, j.Location, j.URL, j.Source, j.Type,
		string(tagsB), j.EmailID,
		j.Received.Format(time.RFC3339), j.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	j.ID, _ = res.LastInsertId()
	return j, nil
}

func List(ctx context.Context, db *sql.DB, limit int) ([]Job, error) {
	if limit <= 0 || limit > 50000 {
		limit = 500
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, title, company, location, url, source, type, tags, email_id, received,
       saved, applied, is_read, badges, created_at
FROM jobs
ORDER BY received DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		var tagsJSON, badgesJSON, receivedStr, createdStr string
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Company, &j.Location, &j.URL, &j.Source, &j.Type,
			&tagsJSON, &j.EmailID, &receivedStr,
			&j.Saved, &j.Applied, &j.Read, &badgesJSON, &createdStr,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &j.Tags)
		_ = json.Unmarshal([]byte(badgesJSON), &j.Badges)
		j.Received, _ = time.Parse(time.RFC3339, receivedStr)
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		out = append(out, j)
	}
	return out, rows.Err()
}

// SetFlags updates the user-state bits that are present in the patch.
func SetFlags(ctx context.Context, db *sql.DB, id int64, f Flags) error {
	set := ""
	args := []any{}
	add := func(col string, v *bool) {
		if v == nil {
			return
		}
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, *v)
	}
	add("saved", f.Saved)
	add("applied", f.Applied)
	add("is_read", f.Read)
	if set == "" {
		return nil
	}
	args = append(args, id)

	res, err := db.ExecContext(ctx, `UPDATE jobs SET `+set+` WHERE id = ?;`, args...)
	if err != nil {
		return fmt.Errorf("update job flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func Delete(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	return err
}
