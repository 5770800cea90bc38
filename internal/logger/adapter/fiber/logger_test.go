package fiber_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/churchadmin/churchadmin/internal/logger/adapter/fiber"

	"github.com/churchadmin/churchadmin/internal/logger"
)

// accessLine is the json shape of one access log line.
type accessLine struct {
	IP           string  `json:"ip"`
	Method       string  `json:"method"`
	Path         string  `json:"path"`
	Status       int     `json:"status"`
	Duration     float64 `json:"duration"`
	Host         string  `json:"host"`
	RequestID    string  `json:"request_id"`
	Operator     string  `json:"operator"`
	ForwardedFor string  `json:"forwarded_for"`
	Error        string  `json:"error"`
}

var consoleJSON = logger.Log{
	EnableAccessLogToConsole: true,
	Console:                  logger.Console{Enabled: true},
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config adapter.Config
		want   *accessLine
	}{
		{
			name: "no outputs",
			path: "/",
		},
		{
			name:   "root",
			path:   "/",
			config: adapter.Config{Log: consoleJSON},
			want:   &accessLine{IP: "0.0.0.0", Method: fiber.MethodGet, Path: "/", Status: 200, Host: "example.com"},
		},
		{
			name:   "duplicate slashes are kept",
			path:   "//test",
			config: adapter.Config{Log: consoleJSON},
			want:   &accessLine{IP: "0.0.0.0", Method: fiber.MethodGet, Path: "//test", Status: 404, Host: "example.com"},
		},
		{
			name:   "query string",
			path:   "/?q=grace",
			config: adapter.Config{Log: consoleJSON},
			want:   &accessLine{IP: "0.0.0.0", Method: fiber.MethodGet, Path: "/?q=grace", Status: 200, Host: "example.com"},
		},
		{
			name:   "unknown path with query",
			path:   "/no_path//?q=1",
			config: adapter.Config{Log: consoleJSON},
			want:   &accessLine{IP: "0.0.0.0", Method: fiber.MethodGet, Path: "/no_path//?q=1", Status: 404, Host: "example.com"},
		},
		{
			name: "request id and operator",
			path: "/",
			config: adapter.Config{
				Log:          consoleJSON,
				RequestIDKey: "requestid",
				OperatorKey:  "operator",
			},
			want: &accessLine{
				IP: "0.0.0.0", Method: fiber.MethodGet, Path: "/", Status: 200, Host: "example.com",
				RequestID: "req-1", Operator: "0803-555-0101",
			},
		},
		{
			name:   "handler error is logged with the handled status",
			path:   "/fail",
			config: adapter.Config{Log: consoleJSON},
			want: &accessLine{
				IP: "0.0.0.0", Method: fiber.MethodGet, Path: "/fail", Status: 418, Host: "example.com",
				Error: "teapot",
			},
		},
		{
			name:   "skipped path",
			path:   "/checkalive",
			config: adapter.Config{Log: consoleJSON, SkipPaths: []string{"/checkalive"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, resp := serve(t, tt.path, tt.config)
			assert.NotEmpty(t, resp.Header.Get(adapter.HeaderResponseTime))

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			require.NotEmpty(t, output)

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(output), &got))

			assert.GreaterOrEqual(t, got.Duration, 0.0)
			got.Duration = 0

			if tt.want.Error == "" {
				got.Error = ""
			}

			assert.Equal(t, *tt.want, got)
		})
	}
}

// serve runs one request through the middleware and returns what it wrote to stdout.
func serve(t *testing.T, target string, cfg adapter.Config) (string, *http.Response) {
	t.Helper()

	stdout := os.Stdout

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusTeapot

			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}

			return c.Status(code).SendString(err.Error())
		},
	})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals("operator", "0803-555-0101")

		return c.Next()
	})

	app.Use(adapter.New(cfg))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("hello")
	})
	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/fail", func(*fiber.Ctx) error {
		return errors.New("teapot")
	})

	resp, testErr := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)

	_ = w.Close()
	os.Stdout = stdout

	require.NoError(t, testErr)

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)

	return buf.String(), resp
}
