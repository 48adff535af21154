package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/locvowork/xlsxport/internal/config"
	"github.com/locvowork/xlsxport/internal/httpapi"
	"github.com/locvowork/xlsxport/internal/logger"
	"github.com/locvowork/xlsxport/pkg/xlsxport"
	"github.com/locvowork/xlsxport/pkg/xlsxport/source"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()

	serve := flag.Bool("serve", false, "run the HTTP export server instead of a one-shot export")
	in := flag.String("in", "", "input records file (.json or .csv)")
	query := flag.String("query", "", "SQL query to export (requires DB_DSN)")
	out := flag.String("out", "", "output workbook path")
	tplPath := flag.String("template", "", "YAML export template")
	sheet := flag.String("sheet", "", "target sheet name")
	title := flag.String("title", "", "title cell above the header")
	columns := flag.String("columns", "", "comma-separated header columns")
	appendRows := flag.Bool("append", false, "append below existing data")
	autoSize := flag.Bool("autosize", false, "auto-size columns")
	flag.Parse()

	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		panic(err)
	}

	// Initialize logging
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_DEBUG)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	if *serve {
		server := httpapi.NewServer()
		if err := server.Initialize(ctx); err != nil {
			logger.ErrorLog(ctx, "Failed to initialize server: %v", err)
			panic(err)
		}
		if err := server.Run(); err != nil {
			logger.ErrorLog(ctx, "Server stopped: %v", err)
			panic(err)
		}
		return
	}

	opts, err := buildOptions(*tplPath, *sheet, *title, *columns, *appendRows, *autoSize)
	if err != nil {
		logger.ErrorLog(ctx, "Invalid export configuration: %v", err)
		panic(err)
	}

	data, cols, err := loadData(ctx, *in, *query)
	if err != nil {
		logger.ErrorLog(ctx, "Failed to load export data: %v", err)
		panic(err)
	}
	if len(cols) > 0 && *columns == "" {
		opts = append(opts, xlsxport.WithColumns(cols...))
	}

	path := *out
	if path == "" {
		path = config.DefaultEnvConfig.EXPORT_OUTPUT_PATH
	}
	if err := xlsxport.Export(ctx, data, path, opts...); err != nil {
		logger.ErrorLog(ctx, "Export failed: %v", err)
		panic(err)
	}
	logger.InfoLog(ctx, "Export written to %s", path)
}

func buildOptions(tplPath, sheet, title, columns string, appendRows, autoSize bool) ([]xlsxport.Option, error) {
	var opts []xlsxport.Option
	if tplPath != "" {
		tpl, err := xlsxport.LoadTemplate(tplPath)
		if err != nil {
			return nil, err
		}
		opts = tpl.Options()
	}
	if sheet == "" {
		sheet = config.DefaultEnvConfig.EXPORT_SHEET_NAME
	}
	opts = append(opts, xlsxport.WithSheetName(sheet))
	if locale := config.DefaultEnvConfig.EXPORT_LOCALE; locale != "" {
		opts = append(opts, xlsxport.WithLocale(locale))
	}
	if title != "" {
		opts = append(opts, xlsxport.WithTitle(title))
	}
	if columns != "" {
		opts = append(opts, xlsxport.WithColumns(strings.Split(columns, ",")...))
	}
	if appendRows {
		opts = append(opts, xlsxport.WithAppend())
	}
	if autoSize {
		opts = append(opts, xlsxport.WithAutoSize())
	}
	return opts, nil
}

// loadData resolves the record stream from either a file or a SQL query. The
// returned columns, when non-empty, pin the header order for map records.
func loadData(ctx context.Context, in, query string) (interface{}, []string, error) {
	switch {
	case in != "" && query != "":
		return nil, nil, fmt.Errorf("-in and -query are mutually exclusive")
	case query != "":
		dsn := config.DefaultEnvConfig.DB_DSN
		if dsn == "" {
			return nil, nil, fmt.Errorf("-query requires DB_DSN")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		src, err := source.Query(ctx, db, query)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Columns(), nil
	case in != "":
		switch filepath.Ext(in) {
		case ".json":
			recs, err := loadJSON(in)
			return recs, nil, err
		case ".csv":
			return loadCSV(in)
		default:
			return nil, nil, fmt.Errorf("unsupported input format %q", filepath.Ext(in))
		}
	}
	return nil, nil, fmt.Errorf("one of -in, -query or -serve is required")
}

func loadJSON(path string) ([]map[string]interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	dec.UseNumber()
	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}

// loadCSV reads the first row as the header and yields the remaining rows as
// map records. Values stay text; the export's own parsing decides which cells
// become numbers or dates.
func loadCSV(path string) ([]map[string]interface{}, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: empty input", path)
	}

	header := rows[0]
	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]interface{}, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, header, nil
}
