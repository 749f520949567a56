package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottoq/internal/history"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// startDrawServer serves draws 1..latest; games in fail answer 503.
func startDrawServer(t *testing.T, latest int, fail ...int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := latest
		if s := r.URL.Query().Get("drwNo"); s != "" {
			n, _ = strconv.Atoi(s)
		}
		for _, f := range fail {
			if n == f {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		fmt.Fprintf(w, `<div class="win_result"><h4><strong>%d회</strong></h4><p>(2021년 05월 %02d일 추첨)</p>
<div class="nums"><div class="num win"><p>
<span class="ball_645">%d</span><span class="ball_645">40</span><span class="ball_645">2</span>
</p></div></div></div>`, n, n%28+1, n%30+5)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeConfig(t *testing.T, baseURL string) (cfgPath, historyPath string) {
	t.Helper()
	dir := t.TempDir()
	historyPath = filepath.Join(dir, "history.json")
	cfgPath = filepath.Join(dir, "lottoq.yml")
	body := fmt.Sprintf("scheduler:\n  concurrency: 3\nfetch:\n  base_url: %s\n  timeout_ms: 2000\n  history_path: %s\nlog:\n  level: error\n",
		baseURL, historyPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath, historyPath
}

func TestFetch_FillsAndUpdatesHistory(t *testing.T) {
	cfgPath, historyPath := writeConfig(t, startDrawServer(t, 8))

	out, err := execute(t, "fetch", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Fetched 8 games: 8 games, last game 8")

	games, err := history.Load(historyPath)
	require.NoError(t, err)
	require.Len(t, games, 8)
	for i, g := range games {
		assert.Equal(t, i+1, g.GameNumber)
		assert.IsIncreasing(t, g.GameResult)
	}

	out, err = execute(t, "fetch", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "History up to date: 8 games, last game 8")
}

func TestFetch_KeepsPrefixOnFailure(t *testing.T) {
	cfgPath, historyPath := writeConfig(t, startDrawServer(t, 6, 4))
	tracePath := filepath.Join(t.TempDir(), "trace.csv")

	out, err := execute(t, "fetch", "--config", cfgPath, "--concurrency", "1", "--trace", tracePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch game 4")
	assert.Contains(t, out, "Fetched 3 games")

	games, err := history.Load(historyPath)
	require.NoError(t, err)
	assert.Equal(t, 3, history.LastGame(games))

	trace, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Contains(t, string(trace), "Done")
}

func TestFetch_LatestUnavailable(t *testing.T) {
	cfgPath, _ := writeConfig(t, startDrawServer(t, 5, 5))

	_, err := execute(t, "fetch", "--config", cfgPath)
	assert.ErrorContains(t, err, "fetch latest draw")
}

var taskLine = regexp.MustCompile(`task (\d+)`)

func taskOrder(out string) []string {
	var order []string
	for _, m := range taskLine.FindAllStringSubmatch(out, -1) {
		order = append(order, m[1])
	}
	return order
}

func TestDemo_Modes(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yml")

	out, err := execute(t, "demo", "--config", cfgPath, "--mode", "fifo", "--concurrency", "2", "30ms", "10ms", "20")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, taskOrder(out))
	assert.Contains(t, out, "done: 3 tasks, mode fifo, concurrency 2")

	out, err = execute(t, "demo", "--config", cfgPath, "--mode", "asap", "--concurrency", "2", "60ms", "10ms", "20ms")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1"}, taskOrder(out))
}

func TestDemo_Failures(t *testing.T) {
	out, err := execute(t, "demo", "--config", filepath.Join(t.TempDir(), "none.yml"),
		"--concurrency", "1", "--fail", "2", "1ms", "1ms", "1ms")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, taskOrder(out))
	assert.Contains(t, out, "task 2  failed")
}

func TestDemo_InvalidInput(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "none.yml")

	_, err := execute(t, "demo", "--config", cfgPath, "soon")
	assert.ErrorContains(t, err, `invalid delay "soon"`)

	_, err = execute(t, "demo", "--config", cfgPath, "--mode", "sideways", "1ms")
	assert.Error(t, err)

	_, err = execute(t, "demo", "--config", cfgPath, "--concurrency", "0", "1ms")
	assert.ErrorContains(t, err, "concurrency must be positive")
}
