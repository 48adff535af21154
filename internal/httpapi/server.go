// Package httpapi exposes the export engine over HTTP: callers post records
// and get a finished workbook back as a file download.
package httpapi

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/xlsxport/internal/config"
	"github.com/locvowork/xlsxport/internal/logger"

	_ "github.com/lib/pq"
)

type Server struct {
	Echo *echo.Echo
	DB   *sql.DB
}

func NewServer() *Server {
	return &Server{
		Echo: echo.New(),
	}
}

func (s *Server) Initialize(ctx context.Context) error {
	// The SQL-backed endpoint is optional; without a DSN the JSON endpoints
	// still work.
	if dsn := config.DefaultEnvConfig.DB_DSN; dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		s.DB = db
		logger.InfoLog(ctx, "Database connection established successfully")
	}

	exportHandler := NewExportHandler(s.DB)

	// Register Middlewares
	s.RegisterMiddlewares()

	// Register Routes
	s.RegisterRoutes(exportHandler)

	return nil
}

func (s *Server) RegisterMiddlewares() {
	s.Echo.Use(middleware.Logger())
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.CORS())
}

func (s *Server) RegisterRoutes(h *ExportHandler) {
	exportGroup := s.Echo.Group("/export")
	exportGroup.POST("", h.ExportHandler)
	exportGroup.POST("/template", h.ExportTemplateHandler)
	exportGroup.GET("/query", h.ExportQueryHandler)
}

func (s *Server) Run() error {
	if s.DB != nil {
		defer s.DB.Close()
	}
	s.Echo.Server.ReadTimeout = config.DefaultEnvConfig.HTTP_READ_TIMEOUT
	s.Echo.Server.WriteTimeout = config.DefaultEnvConfig.HTTP_WRITE_TIMEOUT
	return s.Echo.Start(config.DefaultEnvConfig.HTTP_LISTEN_ADDR)
}
