package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Tagihan-api/internal/domain/cycle"
	"github.com/jhoicas/Tagihan-api/internal/domain/entity"
)

// Columnas esperadas del CSV exportado de la hoja de cálculo (separador ';'):
// nama;telepon;email;alamat;paket;tanggal_pasang;biaya;bulan_lunas
const columnCount = 8

type seedRow struct {
	line       int
	input      entity.CustomerInput
	paidMonths int
}

// readRows decodifica el CSV. Con latin1 el archivo se lee como ISO-8859-1 (exportaciones de Excel).
// La primera fila es cabecera y se ignora.
func readRows(r io.Reader, latin1 bool) ([]seedRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []seedRow
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row, err := parseRow(line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(line int, rec []string) (seedRow, error) {
	if len(rec) < columnCount-1 {
		return seedRow{}, fmt.Errorf("línea %d: se esperaban %d columnas, hay %d", line, columnCount, len(rec))
	}
	installed, err := cycle.ParseDate(rec[5])
	if err != nil {
		return seedRow{}, fmt.Errorf("línea %d: %w", line, err)
	}
	fee, err := decimal.NewFromString(normalizeAmount(rec[6]))
	if err != nil {
		return seedRow{}, fmt.Errorf("línea %d: biaya %q inválida: %w", line, rec[6], err)
	}
	paid := 0
	if len(rec) >= columnCount && strings.TrimSpace(rec[7]) != "" {
		paid, err = strconv.Atoi(strings.TrimSpace(rec[7]))
		if err != nil || paid < 0 {
			return seedRow{}, fmt.Errorf("línea %d: bulan_lunas %q inválido", line, rec[7])
		}
	}
	return seedRow{
		line: line,
		input: entity.CustomerInput{
			Name:             rec[0],
			PhoneNumber:      rec[1],
			Email:            rec[2],
			Address:          rec[3],
			Plan:             rec[4],
			InstallationDate: installed,
			MonthlyFee:       fee,
		},
		paidMonths: paid,
	}, nil
}

// normalizeAmount acepta "Rp 150.000" o "150000": el punto es separador de miles en IDR.
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	return strings.ReplaceAll(s, ",", ".")
}
