package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/config"
	"shouldibuy/internal/pile"
	"shouldibuy/internal/server"
	"shouldibuy/internal/store"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"
)

// chatServer answers every chat completion with reply.
func chatServer(t *testing.T, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	c := config.DefaultConfig()
	c.LLM.Provider = config.ProviderOpenAI
	c.LLM.APIKey = "sk-test"
	c.LLM.BaseURL = baseURL
	c.Store.Enabled = false
	return c
}

func outputOf(cmd *cobra.Command) (*bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return &out, &errOut
}

func TestBagRow(t *testing.T) {
	assert.Equal(t, "(no bags)", bagRow(0))
	assert.Equal(t, "💰💰💰", bagRow(3))
	assert.Equal(t, 40, strings.Count(bagRow(300), "💰"))
	assert.True(t, strings.HasSuffix(bagRow(41), "…"))
}

func TestPileOptions(t *testing.T) {
	pc := config.DefaultConfig().Pile
	pc.LogBase = 4
	pc.PoolLimit = 9
	pc.Seed = 42

	opts := pileOptions(pc)
	assert.Equal(t, pile.Curve{LogBase: 4, Multiplier: 2, Max: 300}, opts.Curve)
	assert.Equal(t, time.Second, opts.ExitDuration)
	assert.Equal(t, 250*time.Millisecond, opts.EnterDuration)
	assert.Equal(t, 9, opts.PoolLimit)
	assert.Equal(t, uint64(42), opts.Seed)

	pc.Seed = 0
	assert.NotZero(t, pileOptions(pc).Seed)
}

func TestBuildAdvisor(t *testing.T) {
	c := testConfig("http://127.0.0.1:1")
	a, err := buildAdvisor(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", a.Provider())

	c.LLM.APIKey = ""
	_, err = buildAdvisor(context.Background(), c, nil)
	require.Error(t, err)
	assert.Equal(t, advice.KindConfig, advice.KindOf(err))

	c = testConfig("")
	c.LLM.PromptTemplate = "{{.Nope"
	_, err = buildAdvisor(context.Background(), c, nil)
	require.Error(t, err)
}

func TestAsk(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Sail away."}}]}`)
	c := testConfig(srv.URL)

	hs, err := store.Open(":memory:")
	require.NoError(t, err)
	defer hs.Close()

	a, err := buildAdvisor(context.Background(), c, hs)
	require.NoError(t, err)

	cmd := &cobra.Command{}
	out, _ := outputOf(cmd)
	req := advice.Request{
		MonthlyIncome: advice.NewAmount("4000"),
		ItemName:      "boat",
		ItemPrice:     advice.NewAmount("2000"),
	}
	require.NoError(t, ask(context.Background(), cmd, a, curveFromConfig(c.Pile), req))
	assert.Contains(t, out.String(), "(8 bags)")
	assert.Contains(t, out.String(), "Sail away.")

	recent, err := hs.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "boat", recent[0].ItemName)
	assert.True(t, recent[0].Success)
}

func TestAsk_Failure(t *testing.T) {
	srv := chatServer(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`)
	c := testConfig(srv.URL)
	a, err := buildAdvisor(context.Background(), c, nil)
	require.NoError(t, err)

	cmd := &cobra.Command{}
	out, errOut := outputOf(cmd)
	req := advice.Request{
		MonthlyIncome: advice.NewAmount("4000"),
		ItemName:      "boat",
		ItemPrice:     advice.NewAmount("4000"),
	}
	err = ask(context.Background(), cmd, a, curveFromConfig(c.Pile), req)
	require.Error(t, err)
	assert.Equal(t, advice.KindStatus, advice.KindOf(err))
	assert.Contains(t, out.String(), "(no bags)")
	assert.Contains(t, errOut.String(), advice.UserMessage)
}

func TestPlayPile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	opts := pile.DefaultOptions()
	opts.Seed = 1
	opts.EnterDuration = time.Millisecond
	opts.ExitDuration = time.Millisecond
	a := pile.NewAnimator(pile.New(opts), pile.RealClock{})
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, playPile(ctx, &out, a, "4000", []string{"0", " 4000 "}, time.Millisecond))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "price 0 -> target 16", lines[0])
	assert.Contains(t, out.String(), "[16/16 pool=0] "+strings.Repeat("💰", 16))
	assert.Contains(t, out.String(), "price 4000 -> target 0")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "[0/0 pool=16]"), lines[len(lines)-1])
}

func TestPlayPile_ContextCancelled(t *testing.T) {
	opts := pile.DefaultOptions()
	opts.EnterDuration = time.Hour
	a := pile.NewAnimator(pile.New(opts), pile.RealClock{})
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := playPile(ctx, io.Discard, a, "4000", []string{"0"}, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintHistory(t *testing.T) {
	hs, err := store.Open(":memory:")
	require.NoError(t, err)
	defer hs.Close()

	cmd := &cobra.Command{}
	out, _ := outputOf(cmd)
	require.NoError(t, printHistory(context.Background(), cmd, hs, 10))
	assert.Contains(t, out.String(), "No advice recorded yet.")

	ctx := context.Background()
	require.NoError(t, hs.RecordExchange(ctx, &advice.Exchange{
		ID: "a", Provider: "openai", ItemName: "boat", ItemPrice: "2000", MonthlyIncome: "4000",
		Response: "Sail\naway.", Success: true, DurationMs: 100, Timestamp: time.Now(),
	}))
	require.NoError(t, hs.RecordExchange(ctx, &advice.Exchange{
		ID: "b", Provider: "openai", ItemName: "car", ErrorKind: "status", DurationMs: 300, Timestamp: time.Now(),
	}))

	out.Reset()
	require.NoError(t, printHistory(ctx, cmd, hs, 10))
	s := out.String()
	assert.Contains(t, s, "2 exchanges, 1 failed, avg 200ms")
	assert.Contains(t, s, "Sail away.")
	assert.Contains(t, s, "error: status")
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b", oneLine("a\nb", 10))
	assert.Equal(t, "abcd…", oneLine("abcdefgh", 5))
}

func TestReloadServer(t *testing.T) {
	c := testConfig("http://127.0.0.1:1")
	srv := server.New(c.Server, nil, curveFromConfig(c.Pile))
	h := srv.Handler()

	target := func() string {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/target?income=4000&price=0", nil))
		return strings.TrimSpace(rec.Body.String())
	}
	assert.JSONEq(t, `{"target":16}`, target())

	next := testConfig("http://127.0.0.1:1")
	next.Pile.LogBase = 4
	next.LLM.APIKey = ""
	reloadServer(context.Background(), srv, next, nil)
	assert.JSONEq(t, `{"target":11}`, target())
}

func TestRootCommand(t *testing.T) {
	t.Setenv("SHOULDIBUY_LOG_LEVEL", "error")
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, _ := outputOf(rootCmd)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"--config", path, "target", "--income", "4000", "--price", "2000"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "8\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"--config", path, "version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "shouldibuy dev\n", out.String())
}

func TestRootPreRun_QuietForInteractive(t *testing.T) {
	t.Setenv("SHOULDIBUY_LOG_LEVEL", "error")
	prevPath, prevLogger := configPath, logger
	t.Cleanup(func() { configPath, logger = prevPath, prevLogger })
	configPath = filepath.Join(t.TempDir(), "config.yaml")

	// The bare root command launches the TUI, which must not log to stderr.
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))

	require.NoError(t, rootCmd.PersistentPreRunE(targetCmd, nil))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
