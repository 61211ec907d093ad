// Package server exposes the pricing and calibration commands over HTTP.
package server

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/meenmo/hw2c/cmd/hw2c/internal/pricing"
	"github.com/meenmo/hw2c/config"
)

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", ":8080", "Listen address")
	origins := fs.String("origins", "*", "Comma-separated CORS origins")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	logger := slog.New(slog.NewJSONHandler(stderr, nil))
	if os.Getenv("HW2C_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewHandler(logger, strings.Split(*origins, ",")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("starting api server", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "err", err)
		return 1
	}
	return 0
}

// NewHandler returns the API router wrapped in the CORS policy.
func NewHandler(logger *slog.Logger, origins []string) http.Handler {
	router := gin.New()
	router.Use(requestLogger(logger))
	router.Use(errorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/swap/npv", swapNPV)
		api.POST("/swaption/npv", swaptionNPV)
		api.POST("/calibrate", calibrateHandler(logger))
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "NOT_FOUND", Message: "Not found"}})
	})

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

func swapNPV(c *gin.Context) {
	var req pricing.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	out, err := pricing.PriceSwap(req)
	if err != nil {
		badRequest(c, "PRICING_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func swaptionNPV(c *gin.Context) {
	var req pricing.SwaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	out, err := pricing.PriceSwaption(req)
	if err != nil {
		badRequest(c, "PRICING_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// calibrateHandler runs a calibration request. Requests may not replace the
// process-wide numerics, so the numerics block is ignored.
func calibrateHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req config.CalibrationFile
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "INVALID_REQUEST", err)
			return
		}
		req.Numerics = nil
		out, err := pricing.Calibrate(&req, logger.With("request_id", c.Writer.Header().Get("X-Request-ID")))
		if err != nil {
			badRequest(c, "CALIBRATION_ERROR", err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

// requestLogger tags each request with an X-Request-ID, reusing the caller's
// when present.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
		logger.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// errorHandler turns panics into a 500 JSON body.
func errorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: msg}})
		c.Abort()
	})
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  hw2c serve [-addr :8080] [-origins https://a.example,https://b.example]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  GET  /health")
	fmt.Fprintln(w, "  POST /api/v1/swap/npv")
	fmt.Fprintln(w, "  POST /api/v1/swaption/npv")
	fmt.Fprintln(w, "  POST /api/v1/calibrate")
}
