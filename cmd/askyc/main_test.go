package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askyc/askyc-go/internal/backend/echo"
	"github.com/askyc/askyc-go/internal/config"
	"github.com/askyc/askyc-go/internal/server"
	"github.com/askyc/askyc-go/internal/sources"
)

func TestParseSources(t *testing.T) {
	got, err := parseSources([]string{"A=https://a", "B=https://b=c"})
	require.NoError(t, err)
	assert.Equal(t, []sources.Source{{Title: "A", URL: "https://a"}, {Title: "B", URL: "https://b=c"}}, got)

	_, err = parseSources([]string{"no-equals"})
	assert.Error(t, err)
	_, err = parseSources([]string{"=https://a"})
	assert.Error(t, err)
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", localURL(":3000"))
	assert.Equal(t, "http://10.0.0.1:3000", localURL("10.0.0.1:3000"))
}

func TestRunChatOneShot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := httptest.NewServer(echo.New(echo.WithSources([]sources.Source{{Title: "pmf.txt", URL: "https://a"}})).Handler())
	defer backend.Close()
	cfg = &config.Config{BackendURL: backend.URL, MaxBodyBytes: 1 << 20}
	front := httptest.NewServer(server.New(cfg, nil).Handler())
	defer front.Close()

	logger = zap.NewNop()
	relayURL, model, webSearch = front.URL, "", false
	var out bytes.Buffer
	chatCmd.SetOut(&out)
	chatCmd.SetContext(context.Background())

	require.NoError(t, runChat(chatCmd, []string{"what", "is", "pmf"}))
	assert.Equal(t, "Echo: what is pmf\n\nSources (1):\n  [1] pmf <https://a>\n", out.String())
}

func TestRunChatUnknownModel(t *testing.T) {
	logger = zap.NewNop()
	cfg = &config.Config{}
	relayURL, model = "http://unused", "nope/none"
	defer func() { model = "" }()
	chatCmd.SetContext(context.Background())

	err := runChat(chatCmd, []string{"hi"})
	assert.ErrorContains(t, err, "unknown model")
}

func TestModelsCommand(t *testing.T) {
	cfg = &config.Config{}
	var out bytes.Buffer
	modelsCmd.SetOut(&out)

	require.NoError(t, modelsCmd.RunE(modelsCmd, nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "* openai/gpt-4o"))
}
