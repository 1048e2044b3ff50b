// Package repository exposes typed access to the application's tables.
//
// Repositories never write SQL. Every operation goes through the database
// façade, which builds and executes the statements; this layer only shapes
// conditions, decodes row maps into models, and names the operations the
// service layer needs.
package repository

import (
	"context"
	"fmt"

	"github.com/emupost/backend/internal/database"
	"github.com/go-viper/mapstructure/v2"
)

// Store is the subset of the database façade repositories depend on.
// *database.Database satisfies it; tests substitute a fake.
type Store interface {
	Create(ctx context.Context, table string, data map[string]any, returning string) (any, error)
	Read(ctx context.Context, table string, conds database.Conditions, opts database.ReadOptions) (any, error)
	Update(ctx context.Context, table string, data map[string]any, conds database.Conditions, returning string) (any, error)
	Delete(ctx context.Context, table string, conds database.Conditions, returning string) (any, error)
	Count(ctx context.Context, table string, conds database.Conditions) (int64, error)
	BulkCreate(ctx context.Context, table string, rows []map[string]any, chunkSize int, returning string) (int, []any, error)
}

// decodeRow maps a façade row (map[string]any) into a model struct using
// its mapstructure tags.
func decodeRow[T any](row map[string]any) (*T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build row decoder: %w", err)
	}
	if err := decoder.Decode(row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return &out, nil
}

// decodeRows maps a slice of façade rows into models.
func decodeRows[T any](rows []map[string]any) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		decoded, err := decodeRow[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, *decoded)
	}
	return out, nil
}

// asRow asserts a ReadRow result. A nil result means no match.
func asRow(result any) (map[string]any, bool) {
	row, ok := result.(map[string]any)
	return row, ok && row != nil
}

// asRows asserts a ReadAll result.
func asRows(result any) []map[string]any {
	rows, _ := result.([]map[string]any)
	return rows
}
