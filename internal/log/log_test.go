package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testEntry() *logrus.Entry {
	return &logrus.Entry{
		Time:    time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "capture started",
		Data:    logrus.Fields{},
	}
}

func TestFormatterPattern(t *testing.T) {
	f := &formatter{pattern: "%time [%level] %msg%n", time: "2006-01-02 15:04:05"}
	out, err := f.Format(testEntry())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	want := "2026-08-25 10:30:00 [info] capture started\n"
	if string(out) != want {
		t.Errorf("Format = %q, want %q", out, want)
	}
}

func TestFormatterFieldsSorted(t *testing.T) {
	entry := testEntry()
	entry.Data = logrus.Fields{"iface": "eth0", "backend": "pcap"}

	f := &formatter{pattern: "%level %field %msg%n", time: "15:04:05"}
	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	want := "info backend=pcap,iface=eth0 capture started\n"
	if string(out) != want {
		t.Errorf("Format = %q, want %q", out, want)
	}
}

func TestFormatterCallerWithoutCallerInfo(t *testing.T) {
	f := &formatter{pattern: "%caller %msg%n", time: "15:04:05"}
	out, err := f.Format(testEntry())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "unknown ") {
		t.Errorf("Expected unknown caller placeholder, got %q", out)
	}
}

func TestMultiWriterFanOut(t *testing.T) {
	var a, b bytes.Buffer
	w := NewMultiWriter().Add(&a).Add(&b)

	n, err := w.Write([]byte("line\n"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 bytes reported, got %d", n)
	}
	if a.String() != "line\n" || b.String() != "line\n" {
		t.Errorf("Both writers must receive the line, got %q and %q", a.String(), b.String())
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriterKeepsWritingAfterFailure(t *testing.T) {
	var ok bytes.Buffer
	w := NewMultiWriter().Add(failWriter{}).Add(&ok)

	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("Expected the appender error to be reported")
	}
	if ok.String() != "x" {
		t.Error("A failing appender must not stop the others")
	}
}

func TestAdapterLevelFallback(t *testing.T) {
	a := newAdapter(&LoggerConfig{Level: "nonsense"}).(*logrusAdapter)
	if a.IsDebugEnabled() {
		t.Error("Unparseable level must fall back to info")
	}
	if !a.IsInfoEnabled() {
		t.Error("Info must be enabled at the fallback level")
	}
}

func TestAdapterOutput(t *testing.T) {
	a := newAdapter(&LoggerConfig{Level: "debug"}).(*logrusAdapter)
	var buf bytes.Buffer
	a.entry.Logger.SetOutput(&buf)

	a.Infof("opened %s", "eth0")
	got := buf.String()
	if !strings.Contains(got, "[info] opened eth0\n") {
		t.Errorf("Unexpected log line: %q", got)
	}
}

func TestWithFieldChaining(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&formatter{pattern: "%field %msg%n", time: defaultTime})

	var lg Logger = &logrusAdapter{entry: logrus.NewEntry(l)}
	lg.WithField("iface", "eth0").WithField("proto", "udp").Info("packet")

	want := "iface=eth0,proto=udp packet\n"
	if buf.String() != want {
		t.Errorf("Log line = %q, want %q", buf.String(), want)
	}
}

func TestGetLoggerNeverNil(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger must build a default logger")
	}
	// Safe to call without prior Init.
	GetLogger().Debug("noop")
}
