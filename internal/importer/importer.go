package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"customerhub/internal/domain"
	customersvc "customerhub/internal/service/customer"
)

// CustomerWriter is the part of the customer service the importer drives.
type CustomerWriter interface {
	Create(ctx context.Context, in customersvc.CustomerInput) (*domain.Customer, error)
	AddAddress(ctx context.Context, customerID string, in customersvc.AddressInput) (*domain.Customer, error)
}

// Result summarises an import run.
type Result struct {
	Imported int
	Skipped  int
}

// CSVImporter reads customer rows and creates them through the service, so
// validation applies as it does for API requests. Welcome emails go out only
// if the service was built with a notifier.
type CSVImporter struct {
	reader *csv.Reader
	svc    CustomerWriter
}

func NewCSVImporter(r io.Reader, svc CustomerWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // address columns are optional
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader: csvr,
		svc:    svc,
	}
}

var requiredColumns = []string{"firstName", "lastName", "email", "phone"}

var addressColumns = []string{"street", "city", "state", "zipCode", "country"}

// Run imports every row. Rows whose email is already registered are skipped;
// any other failure stops the run and reports the line it happened on.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return res, fmt.Errorf("missing column %q", col)
		}
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		in := customersvc.CustomerInput{
			FirstName: pick(record, index, "firstName"),
			LastName:  pick(record, index, "lastName"),
			Email:     pick(record, index, "email"),
			Phone:     pick(record, index, "phone"),
		}
		created, err := i.svc.Create(ctx, in)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("line %d: create %s: %w", line, in.Email, err)
		}

		res.Imported++

		if addr, ok := parseAddress(record, index); ok {
			if _, err := i.svc.AddAddress(ctx, created.ID, addr); err != nil {
				return res, fmt.Errorf("line %d: customer %s was created without its address: %w", line, in.Email, err)
			}
		}
	}

	return res, nil
}

// parseAddress returns the row's address when any address column is filled in.
func parseAddress(record []string, index map[string]int) (customersvc.AddressInput, bool) {
	addr := customersvc.AddressInput{
		Street:  pick(record, index, "street"),
		City:    pick(record, index, "city"),
		State:   pick(record, index, "state"),
		ZipCode: pick(record, index, "zipCode"),
		Country: pick(record, index, "country"),
	}
	for _, col := range addressColumns {
		if pick(record, index, col) != "" {
			primary := true
			addr.IsPrimary = &primary
			return addr, true
		}
	}
	return addr, false
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
