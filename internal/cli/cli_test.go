package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/lptrack/internal/apperr"
)

var t0 = time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	dir     string
	db      string
	cfgPath string
	clock   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "timezone: UTC\ndefault_decay: 30\nbackup_file: " + filepath.Join(dir, "backup.json") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &harness{t: t, dir: dir, db: filepath.Join(dir, "lptrack.db"), cfgPath: cfgPath, clock: t0}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	a := &app{now: func() time.Time { return h.clock }}
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--db", h.db, "--config", h.cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func (h *harness) wantKind(kind apperr.Kind, args ...string) {
	h.t.Helper()
	_, err := h.run(args...)
	if err == nil {
		h.t.Fatalf("%v: expected %s error", args, kind)
	}
	if !apperr.Is(err, kind) {
		h.t.Fatalf("%v: got %v, want %s error", args, err, kind)
	}
}

func wantContains(t *testing.T, out string, subs ...string) {
	t.Helper()
	for _, s := range subs {
		if !strings.Contains(out, s) {
			t.Fatalf("output missing %q:\n%s", s, out)
		}
	}
}

// ==================== Init ====================

func TestInitCreatesDefaultSeason(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("init")
	wantContains(t, out, `Created season "Default Season"`, "30.00/day", "UTC")

	out = h.mustRun("init")
	wantContains(t, out, "Already initialized")
}

func TestCommandsBeforeInit(t *testing.T) {
	h := newHarness(t)
	h.wantKind(apperr.State, "status")
	h.wantKind(apperr.State, "add", "something")
}

func TestInitForceNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")

	h.wantKind(apperr.ConfirmationRequired, "init", "--force")

	out := h.mustRun("init", "--force", "--yes")
	wantContains(t, out, "Created season")
	out = h.mustRun("log")
	wantContains(t, out, "No completed tasks yet.")
}

// ==================== Tasks ====================

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")

	out := h.mustRun("add", "Write", "report", "-d", "med", "-p", "work")
	wantContains(t, out, "Added task 1: Write report")

	out = h.mustRun("list")
	wantContains(t, out, "Write report", "created")

	out = h.mustRun("start", "1")
	wantContains(t, out, "Started task 1 at 09:00")

	h.clock = h.clock.Add(50 * time.Minute)
	out = h.mustRun("stop", "1")
	wantContains(t, out, "Stopped task 1 at 09:50")

	out = h.mustRun("done", "1")
	wantContains(t, out, "Completed task 1", "+3.00 LP")

	out = h.mustRun("list")
	wantContains(t, out, "No open tasks.")

	out = h.mustRun("log")
	wantContains(t, out, "Write report", "50m", "3.00")
}

func TestLogShowsSeasonStatus(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")

	out := h.mustRun("log")
	wantContains(t, out, "No completed tasks yet.", "Net LP", "Decay")

	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "90")
	out = h.mustRun("log")
	wantContains(t, out, "Gym", "24.00", "Total gain", "Net LP", "Decay", "Today")
}

func TestStopRequiresRunningTask(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Read")
	h.wantKind(apperr.Validation, "stop", "1")
	h.wantKind(apperr.NotFound, "start", "42")
	h.wantKind(apperr.Validation, "start", "abc")
}

func TestDoneWithoutDifficulty(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Errands")

	out := h.mustRun("done", "1")
	wantContains(t, out, "no difficulty")
	h.wantKind(apperr.Validation, "done", "1")
}

func TestAddValidation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.wantKind(apperr.Validation, "add", "x", "-d", "extreme")
	h.wantKind(apperr.Validation, "add", "x", "--duration=-5")
	h.wantKind(apperr.Validation, "add", "x", "--finish", "2025-06-12 08:00")
}

func TestUpdateRecomputesGain(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	out := h.mustRun("add", "Study", "-d", "med", "--completed", "--duration", "30")
	wantContains(t, out, "+2.00 LP")

	out = h.mustRun("update", "1", "--duration", "60", "--reflection", "focused")
	wantContains(t, out, "Updated task 1", "LP 4.00")

	out = h.mustRun("log")
	wantContains(t, out, "focused", "4.00")

	h.wantKind(apperr.Validation, "update", "1")
}

// ==================== Status ====================

func TestStatusAppliesDecay(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")

	out := h.mustRun("status")
	wantContains(t, out, "Default Season", "16.00", "(1 completed)")

	h.clock = h.clock.Add(48 * time.Hour)
	out = h.mustRun("status")
	wantContains(t, out, "60.00 (2 days x 30.00)", "-44.00")
}

func TestStatusWeek(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")

	out := h.mustRun("status", "--week", "0")
	wantContains(t, out, "Week of 2025-06-09", "2025-06-12", "Total 16.00")

	out = h.mustRun("status", "--week", "1")
	wantContains(t, out, "Week of 2025-06-02", "Total 0.00")

	h.wantKind(apperr.Validation, "status", "--week=-1")
}

func TestPlot(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")
	h.clock = h.clock.Add(24 * time.Hour)

	out := h.mustRun("plot", "--width", "40", "--height", "8")
	wantContains(t, out, "Daily LP", "06-12", "06-13", "net ")

	h.wantKind(apperr.Validation, "plot", "--width", "5")
}

// ==================== Seasons ====================

func TestSeasonCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")

	out := h.mustRun("season", "start", "Summer", "Push")
	wantContains(t, out, `Started season "Summer Push" (id 2)`)
	h.wantKind(apperr.Validation, "season", "start", "Summer Push")

	out = h.mustRun("season", "list")
	wantContains(t, out, "Default Season", "Summer Push")

	out = h.mustRun("season", "switch", "1")
	wantContains(t, out, `Switched to season "Default Season"`)
	h.wantKind(apperr.NotFound, "season", "switch", "9")

	h.mustRun("season", "set-decay", "10")
	out = h.mustRun("season", "current")
	wantContains(t, out, "Default Season", "10.00 LP/day")

	h.wantKind(apperr.Validation, "season", "set-decay", "lots")
	h.wantKind(apperr.Validation, "season", "set-timezone", "Mars/Olympus")

	out = h.mustRun("season", "set-timezone", "Europe/Berlin")
	wantContains(t, out, "Updated timezone")
}

func TestSeasonRecalcNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")

	h.wantKind(apperr.ConfirmationRequired, "season", "recalc")
	out := h.mustRun("season", "recalc", "--yes")
	wantContains(t, out, "Recalculated 0 task(s)")
}

// ==================== Backup ====================

func TestBackupRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")

	out := h.mustRun("backup", "export")
	wantContains(t, out, "Exported 1 season(s) and 1 task(s)", "backup.json")

	h.mustRun("init", "--force", "--yes")
	h.wantKind(apperr.ConfirmationRequired, "backup", "import")

	out = h.mustRun("backup", "import", "--yes")
	wantContains(t, out, "Imported 1 season(s) and 1 task(s)")

	out = h.mustRun("log")
	wantContains(t, out, "Gym", "16.00")
}

func TestBackupImportRejectsBadFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	bad := filepath.Join(h.dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"schema_version": 99, "seasons": [], "tasks": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	h.wantKind(apperr.Format, "backup", "import", bad, "--yes")

	out := h.mustRun("season", "current")
	wantContains(t, out, "Default Season")
}

func TestBackupCSV(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("add", "Gym", "-d", "hard", "--completed", "--duration", "60")

	path := filepath.Join(h.dir, "tasks.csv")
	out := h.mustRun("backup", "csv", path)
	wantContains(t, out, "Wrote 1 task(s)")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	wantContains(t, string(data), "Duration (min)", "Gym", "16.00")
}

// ==================== Config ====================

func TestConfigShowAndInit(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("config", "show")
	wantContains(t, out, "timezone: UTC", "default_decay: 30")

	other := filepath.Join(h.dir, "nested", "other.yaml")
	out = h.mustRun("--config", other, "config", "init")
	wantContains(t, out, "Wrote "+other)

	if _, err := h.run("--config", other, "config", "init"); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("second config init: %v", err)
	}
	h.mustRun("--config", other, "config", "init", "--force")
}

func TestPrintErrorLabelsKind(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, apperr.NotFoundf("task %d", 9))
	wantContains(t, buf.String(), "not found: ", "task 9")

	buf.Reset()
	printError(&buf, os.ErrPermission)
	wantContains(t, buf.String(), "error: ")
}
