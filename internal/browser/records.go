package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/slopewatch/slopewatch-go/internal/api"
	"github.com/slopewatch/slopewatch-go/internal/errors"
)

// FindRecord locates a cached record by table and id. JSON numbers
// decode as float64, so the id field is compared numerically.
func (b *Browser) FindRecord(table string, id int64) (api.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.records {
		if r[TableKey] != table {
			continue
		}
		if recordID(r) == id {
			out := make(api.Record, len(r))
			for k, v := range r {
				out[k] = v
			}
			return out, true
		}
	}
	return nil, false
}

func recordID(r api.Record) int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return -1
	}
}

// SaveRecord replaces one record with operator-edited JSON. The text is
// parsed before anything touches the network: malformed JSON is rejected
// locally and no request is sent. The table tag and id are stripped from
// the payload, and the cache reloads after a successful write.
func (b *Browser) SaveRecord(ctx context.Context, table string, id int64, jsonText string) error {
	var record api.Record
	if err := json.Unmarshal([]byte(jsonText), &record); err != nil {
		b.notifier.Error("record is not valid JSON: " + err.Error())
		return errors.New(err).
			Category(errors.CategoryJSONParse).
			Context("table", table).
			Build()
	}
	delete(record, TableKey)
	delete(record, "id")

	if err := b.api.UpdateDBRecord(ctx, table, id, record); err != nil {
		if errors.IsAuth(err) {
			return err
		}
		b.log.Error("failed to save record", "table", table, "record_id", id, "error", err)
		b.notifier.Error(userMessage(err, "could not save record"))
		return err
	}

	b.log.Info("record updated", "table", table, "record_id", id)
	b.notifier.Success(fmt.Sprintf("%s record %d saved", table, id))
	return b.LoadAll(ctx)
}

// DeleteRecord removes one record after explicit confirmation and
// reloads the cache.
func (b *Browser) DeleteRecord(ctx context.Context, table string, id int64) error {
	if !b.confirm(fmt.Sprintf("Delete %s record %d?", table, id)) {
		b.notifier.Info("delete cancelled")
		return nil
	}

	if err := b.api.DeleteDBRecord(ctx, table, id); err != nil {
		if errors.IsAuth(err) {
			return err
		}
		b.log.Error("failed to delete record", "table", table, "record_id", id, "error", err)
		b.notifier.Error(userMessage(err, "could not delete record"))
		return err
	}

	b.log.Info("record deleted", "table", table, "record_id", id)
	b.notifier.Success(fmt.Sprintf("%s record %d deleted", table, id))
	return b.LoadAll(ctx)
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// Export renders the entire cache, table tags included, in the given
// format. The export always covers the full cache regardless of any
// filter the operator is viewing through.
func (b *Browser) Export(format ExportFormat) ([]byte, error) {
	records := b.Records()

	switch format {
	case ExportJSON, "":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryJSONParse).
				Context("operation", "export").
				Build()
		}
		return data, nil
	case ExportYAML:
		data, err := yaml.Marshal(records)
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryJSONParse).
				Context("operation", "export").
				Build()
		}
		return data, nil
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown export format %q", format))
	}
}

// userMessage extracts the backend-supplied detail for user display.
func userMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
