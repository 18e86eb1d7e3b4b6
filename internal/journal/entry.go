package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

// Entry is one recorded reducer dispatch.
type Entry struct {
	Session     string
	Seq         int64
	Model       string
	Type        string
	Payload     []value.Value
	Nested      bool
	Fingerprint string // snapshot fingerprint after the reducer
}

// SessionInfo summarizes one recorded session.
type SessionInfo struct {
	ID       string
	Entries  int
	FirstSeq int64
	LastSeq  int64
}

// EntryFor builds the entry for d. state is the model snapshot observed
// right after the reducer returned.
func EntryFor(session string, d model.Descriptor, state value.Value) (Entry, error) {
	fp, err := value.Fingerprint(state)
	if err != nil {
		return Entry{}, fmt.Errorf("fingerprint %s/%s: %w", d.Model, d.Type, err)
	}
	return Entry{
		Session:     session,
		Seq:         d.Seq,
		Model:       d.Model,
		Type:        d.Type,
		Payload:     d.Payload,
		Nested:      d.Nested,
		Fingerprint: fp,
	}, nil
}

// Record appends e. Recording the same (session, seq) twice keeps the
// first entry.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	payload, err := value.MarshalCanonical(value.OwnList(e.Payload))
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO entries (session, seq, model, type, payload, nested, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`,
		e.Session,
		e.Seq,
		e.Model,
		e.Type,
		string(payload),
		e.Nested,
		e.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// Entries returns the entries of session in seq order. A session with no
// entries yields an empty slice.
func (j *Journal) Entries(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session, seq, model, type, payload, nested, fingerprint
		FROM entries
		WHERE session = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Sessions lists recorded sessions in the order they were first written.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session, COUNT(*), MIN(seq), MAX(seq)
		FROM entries
		GROUP BY session
		ORDER BY MIN(rowid) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var s SessionInfo
		if err := rows.Scan(&s.ID, &s.Entries, &s.FirstSeq, &s.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LatestSession returns the most recently started session.
func (j *Journal) LatestSession(ctx context.Context) (string, error) {
	var id string
	err := j.db.QueryRowContext(ctx, `
		SELECT session FROM entries ORDER BY rowid DESC LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("journal is empty")
	}
	if err != nil {
		return "", fmt.Errorf("query latest session: %w", err)
	}
	return id, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e       Entry
		payload string
	)
	if err := rows.Scan(&e.Session, &e.Seq, &e.Model, &e.Type, &payload, &e.Nested, &e.Fingerprint); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	decoded, err := value.Unmarshal([]byte(payload))
	if err != nil {
		return Entry{}, fmt.Errorf("decode payload of seq %d: %w", e.Seq, err)
	}
	list, ok := decoded.(*value.List)
	if !ok {
		return Entry{}, fmt.Errorf("payload of seq %d is %s, want list", e.Seq, value.KindOf(decoded))
	}
	e.Payload = list.Items()
	return e, nil
}
