package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/xlsxport/internal/config"
	"github.com/locvowork/xlsxport/internal/logger"
	"github.com/locvowork/xlsxport/pkg/xlsxport"
	"github.com/locvowork/xlsxport/pkg/xlsxport/source"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	db *sql.DB
}

func NewExportHandler(db *sql.DB) *ExportHandler {
	return &ExportHandler{db: db}
}

// ExportHandler turns a posted JSON array of records into a workbook
// download. Sheet shape is controlled by query parameters.
func (h *ExportHandler) ExportHandler(c echo.Context) error {
	records, err := decodeRecords(c)
	if err != nil {
		return responseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	opts := optionsFromQuery(c)
	return h.respondWorkbook(c, records, opts)
}

// ExportTemplateHandler accepts a YAML export template together with the
// records, so callers can drive the full option surface.
func (h *ExportHandler) ExportTemplateHandler(c echo.Context) error {
	var req struct {
		Template string          `json:"template"`
		Records  json.RawMessage `json:"records"`
	}
	if err := c.Bind(&req); err != nil {
		return responseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	tpl, err := xlsxport.LoadTemplateFromString(req.Template)
	if err != nil {
		return responseError(c, http.StatusBadRequest, "Invalid export template", err)
	}

	records, err := decodeRecordsJSON(req.Records)
	if err != nil {
		return responseError(c, http.StatusBadRequest, "Invalid records payload", err)
	}

	return h.respondWorkbook(c, records, tpl.Options())
}

// ExportQueryHandler streams a SQL query result straight into a workbook.
func (h *ExportHandler) ExportQueryHandler(c echo.Context) error {
	if h.db == nil {
		return responseError(c, http.StatusServiceUnavailable, "No database configured", nil)
	}
	query := c.QueryParam("q")
	if query == "" {
		return responseError(c, http.StatusBadRequest, "Missing query parameter q", nil)
	}

	src, err := source.Query(c.Request().Context(), h.db, query)
	if err != nil {
		return responseError(c, http.StatusInternalServerError, "Failed to run export query", err)
	}

	opts := optionsFromQuery(c)
	// The result set's column order pins the header; map records alone
	// carry none.
	opts = append(opts, xlsxport.WithColumns(src.Columns()...))
	return h.respondWorkbook(c, src, opts)
}

func (h *ExportHandler) respondWorkbook(c echo.Context, data interface{}, opts []xlsxport.Option) error {
	ctx := c.Request().Context()

	wb := xlsxport.NewWorkbook()
	defer wb.Close()

	if err := wb.Export(ctx, data, opts...); err != nil {
		return responseError(c, http.StatusInternalServerError, "Failed to generate excel file", err)
	}

	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		return responseError(c, http.StatusInternalServerError, "Failed to serialize excel file", err)
	}

	filename := c.QueryParam("filename")
	if filename == "" {
		filename = "export.xlsx"
	}
	logger.InfoLog(ctx, "Export generated: %s (%d bytes)", filename, buf.Len())

	c.Response().Header().Set("Content-Type", xlsxContentType)
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	_, err := c.Response().Write(buf.Bytes())
	return err
}

// decodeRecords reads the request body as a JSON array of objects. Numbers
// stay json.Number so integer identifiers survive untouched.
func decodeRecords(c echo.Context) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

func decodeRecordsJSON(raw json.RawMessage) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

// optionsFromQuery lowers the common query parameters to export options.
func optionsFromQuery(c echo.Context) []xlsxport.Option {
	var opts []xlsxport.Option

	sheet := c.QueryParam("sheet")
	if sheet == "" {
		sheet = config.DefaultEnvConfig.EXPORT_SHEET_NAME
	}
	opts = append(opts, xlsxport.WithSheetName(sheet))

	if locale := config.DefaultEnvConfig.EXPORT_LOCALE; locale != "" {
		opts = append(opts, xlsxport.WithLocale(locale))
	}
	if title := c.QueryParam("title"); title != "" {
		opts = append(opts, xlsxport.WithTitle(title))
	}
	if cols := c.QueryParam("columns"); cols != "" {
		opts = append(opts, xlsxport.WithColumns(strings.Split(cols, ",")...))
	}
	if queryBool(c, "autofilter") {
		opts = append(opts, xlsxport.WithAutoFilter())
	}
	if queryBool(c, "freeze") {
		opts = append(opts, xlsxport.WithFreezeTopRow())
	}
	if queryBool(c, "bold") {
		opts = append(opts, xlsxport.WithBoldTopRow())
	}
	if queryBool(c, "autosize") {
		opts = append(opts, xlsxport.WithAutoSize())
	}
	if table := c.QueryParam("table"); table != "" {
		opts = append(opts, xlsxport.WithTable(table, ""))
	}
	if password := c.QueryParam("password"); password != "" {
		opts = append(opts, xlsxport.WithPassword(password))
	}
	return opts
}

func queryBool(c echo.Context, name string) bool {
	b, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && b
}

func responseError(c echo.Context, status int, message string, err error) error {
	logger.ErrorLog(c.Request().Context(), "%s: %v", message, err)
	body := map[string]interface{}{
		"status":  "error",
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.JSON(status, body)
}
