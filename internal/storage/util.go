package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix marks API keys issued by the server.
const KeyPrefix = "zpl_key_"

// defaultLimit is used when pagination carries no limit.
const defaultLimit = 20

// generateID generates a new UUID
func generateID() string {
	return uuid.New().String()
}

// generateAPIKey generates a new API key
func generateAPIKey() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return KeyPrefix + hex.EncodeToString(b)
}

// hashAPIKey hashes an API key for storage
func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// normalizeLimit applies the default page size.
func normalizeLimit(p PaginationParams) int {
	if p.Limit <= 0 {
		return defaultLimit
	}
	return p.Limit
}

// parseCursor decodes a sequence cursor. An empty cursor means no bound.
func parseCursor(cursor string) (int64, bool, error) {
	if cursor == "" {
		return 0, false, nil
	}
	seq, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || seq < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return seq, true, nil
}

// where accumulates filter clauses for a dialect's placeholder style.
type where struct {
	placeholder func(n int) string
	clauses     []string
	args        []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.Replace(clause, "?", w.placeholder(len(w.args)), 1))
}

func (w *where) addIf(cond bool, clause string, arg any) {
	if cond {
		w.add(clause, arg)
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// next returns the placeholder for one more argument.
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return w.placeholder(len(w.args))
}

func sqlitePlaceholder(int) string { return "?" }

func postgresPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// transactionWhere builds the filter and cursor clauses of a transaction listing.
func transactionWhere(placeholder func(int) string, filter TransactionFilter, pagination PaginationParams) (*where, string, error) {
	w := &where{placeholder: placeholder}
	cursor, ok, err := parseCursor(pagination.Cursor)
	if err != nil {
		return nil, "", err
	}
	order := "DESC"
	if filter.Ascending {
		order = "ASC"
		w.addIf(ok, "seq > ?", cursor)
	} else {
		w.addIf(ok, "seq < ?", cursor)
	}
	w.addIf(filter.Contract != "", "contract = ?", filter.Contract)
	w.addIf(filter.Method != "", "method = ?", filter.Method)
	w.addIf(filter.Caller != "", "LOWER(caller) = LOWER(?)", filter.Caller)
	w.addIf(filter.Status != "", "status = ?", filter.Status)
	return w, order, nil
}

// eventWhere builds the filter and cursor clauses of an event listing. The
// cursor is "<seq>:<logIndex>" of the last event returned.
func eventWhere(placeholder func(int) string, filter EventFilter, pagination PaginationParams) (*where, error) {
	w := &where{placeholder: placeholder}
	if pagination.Cursor != "" {
		seqPart, idxPart, found := strings.Cut(pagination.Cursor, ":")
		seq, err := strconv.ParseInt(seqPart, 10, 64)
		idx, err2 := strconv.Atoi(idxPart)
		if !found || err != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCursor, pagination.Cursor)
		}
		a, b, c := w.next(seq), w.next(seq), w.next(idx)
		w.clauses = append(w.clauses, fmt.Sprintf("(tx_seq > %s OR (tx_seq = %s AND log_index > %s))", a, b, c))
	}
	w.addIf(filter.Contract != "", "contract = ?", filter.Contract)
	w.addIf(filter.Name != "", "name = ?", filter.Name)
	w.addIf(filter.TxHash != "", "LOWER(tx_hash) = LOWER(?)", filter.TxHash)
	return w, nil
}

// eventCursor encodes the position of e for the next page.
func eventCursor(e Event) string {
	return strconv.FormatInt(e.TxSeq, 10) + ":" + strconv.Itoa(e.LogIndex)
}

func encodeFields(fields map[string]string) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding event fields: %w", err)
	}
	return string(b), nil
}

func decodeFields(raw string) (map[string]string, error) {
	fields := map[string]string{}
	if raw == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decoding event fields: %w", err)
	}
	return fields, nil
}

// page trims a limit+1 result set and computes the next cursor.
func page[T any](items []T, limit int, cursor func(T) string) *PaginatedResult[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	var next string
	if len(items) > 0 {
		next = cursor(items[len(items)-1])
	}
	return &PaginatedResult[T]{Data: items, HasMore: hasMore, NextCursor: next}
}

func seqCursor(tx Transaction) string {
	return strconv.FormatInt(tx.Seq, 10)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) sql.NullString {
	return sql.NullString{String: string(b), Valid: len(b) > 0}
}
