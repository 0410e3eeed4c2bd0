package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogUsableBeforeInit(t *testing.T) {
	if Log == nil {
		t.Fatal("Log is nil before Init")
	}
	// Must not panic when a package logs before any service main runs.
	Log.WithField("k", "v").Debug("pre-init entry")
}

func TestInitAttachesServiceName(t *testing.T) {
	Init("test-service")

	entry := logrus.NewEntry(Log)
	entry.Data = logrus.Fields{}
	hook := &serviceHook{service: "test-service"}
	if err := hook.Fire(entry); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if entry.Data["service"] != "test-service" {
		t.Errorf("service field = %v, want test-service", entry.Data["service"])
	}
}
