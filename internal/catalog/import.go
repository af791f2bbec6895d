package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/medikart/medikart/internal/audit"
)

// ImportResult summarizes a CSV catalog import.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// expected CSV header, in order
var csvHeader = []string{"sku", "name", "category", "price_cents", "stock"}

// ImportCSV bulk-creates products from a CSV stream. Rows that fail
// validation or collide on SKU are skipped and reported; the import never
// aborts mid-file.
func (s *Service) ImportCSV(ctx context.Context, tenantID, actorID string, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("unexpected CSV header: want %s", strings.Join(csvHeader, ","))
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		params, err := parseRow(record)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if _, err := s.Create(ctx, tenantID, actorID, params); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): %v", line, params.SKU, err))
			continue
		}
		result.Created++
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeProductImported,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "catalog_csv",
		Metadata: map[string]any{"created": result.Created, "skipped": result.Skipped},
	})

	return result, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) != csvHeader[i] {
			return false
		}
	}
	return true
}

func parseRow(record []string) (CreateParams, error) {
	if len(record) != len(csvHeader) {
		return CreateParams{}, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(record))
	}

	price, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return CreateParams{}, fmt.Errorf("invalid price %q", record[3])
	}
	stock, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return CreateParams{}, fmt.Errorf("invalid stock %q", record[4])
	}

	return CreateParams{
		SKU:        strings.TrimSpace(record[0]),
		Name:       strings.TrimSpace(record[1]),
		Category:   strings.TrimSpace(record[2]),
		PriceCents: price,
		StockQty:   stock,
	}, nil
}
