package sqlite

import (
	"database/sql"
	"time"

	"wifiutils/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeToNull stores a time as unix nanoseconds; the zero time is NULL
func timeToNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// nullToTime converts unix nanoseconds back to a UTC time
func nullToTime(ni sql.NullInt64) time.Time {
	if !ni.Valid {
		return time.Time{}
	}
	return time.Unix(0, ni.Int64).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// Row Types
// ============================================================================

// transitionRow holds the nullable columns of a transitions row
type transitionRow struct {
	id         int64
	kind       string
	state      string
	code       int
	iface      sql.NullString
	source     string
	observedAt sql.NullInt64
}

func (r *transitionRow) scanArgs() []interface{} {
	return []interface{}{&r.id, &r.kind, &r.state, &r.code, &r.iface, &r.source, &r.observedAt}
}

func (r *transitionRow) toDomain() domain.Transition {
	return domain.Transition{
		ID:         r.id,
		Kind:       domain.TransitionKind(r.kind),
		State:      r.state,
		Code:       r.code,
		Interface:  nullToString(r.iface),
		Source:     r.source,
		ObservedAt: nullToTime(r.observedAt),
	}
}

func transitionInsertArgs(t *domain.Transition) []interface{} {
	observed := t.ObservedAt
	if observed.IsZero() {
		observed = time.Now()
	}
	return []interface{}{
		string(t.Kind),
		t.State,
		t.Code,
		stringToNull(t.Interface),
		t.Source,
		observed.UnixNano(),
	}
}

// neighborRow holds the nullable columns of a neighbors row
type neighborRow struct {
	ip       string
	mac      sql.NullString
	vendor   sql.NullString
	hostname sql.NullString
	lastSeen sql.NullInt64
}

func (r *neighborRow) scanArgs() []interface{} {
	return []interface{}{&r.ip, &r.mac, &r.vendor, &r.hostname, &r.lastSeen}
}

func (r *neighborRow) toDomain() domain.Neighbor {
	return domain.Neighbor{
		IP:       r.ip,
		MAC:      nullToString(r.mac),
		Vendor:   nullToString(r.vendor),
		Hostname: nullToString(r.hostname),
		LastSeen: nullToTime(r.lastSeen),
	}
}

func neighborInsertArgs(n *domain.Neighbor) []interface{} {
	seen := n.LastSeen
	if seen.IsZero() {
		seen = time.Now()
	}
	return []interface{}{
		n.IP,
		stringToNull(n.MAC),
		stringToNull(n.Vendor),
		stringToNull(n.Hostname),
		seen.UnixNano(),
	}
}
