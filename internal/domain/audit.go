package domain

import (
	"encoding/json"
	"time"
)

type AuditOperation string

const (
	AuditInsert AuditOperation = "INSERT"
	AuditUpdate AuditOperation = "UPDATE"
)

type AuditEntry struct {
	ID        int64           `json:"id"`
	TableName string          `json:"table_name"`
	RecordID  int64           `json:"record_id"`
	Operation AuditOperation  `json:"operation"`
	OldData   json.RawMessage `json:"old_data,omitempty"`
	NewData   json.RawMessage `json:"new_data,omitempty"`
	ChangedAt time.Time       `json:"changed_at"`
}

// NewAuditEntry snapshots old and new values as JSON. A nil value is stored as NULL.
func NewAuditEntry(table string, recordID int64, op AuditOperation, oldValue, newValue any) (*AuditEntry, error) {
	entry := &AuditEntry{TableName: table, RecordID: recordID, Operation: op}
	if oldValue != nil {
		raw, err := json.Marshal(oldValue)
		if err != nil {
			return nil, err
		}
		entry.OldData = raw
	}
	if newValue != nil {
		raw, err := json.Marshal(newValue)
		if err != nil {
			return nil, err
		}
		entry.NewData = raw
	}
	return entry, nil
}
