package browser

import (
	"testing"
	"time"

	"github.com/deletia/deletia/internal/model"
)

func TestSnapshotURL(t *testing.T) {
	t.Parallel()

	capture := model.Capture{
		Post:      model.MustNewPostID("1354852772606152705"),
		Timestamp: "20210128160247",
		URL:       "https://twitter.com/alice/status/1354852772606152705",
	}

	got := SnapshotURL("https://web.archive.org", capture)
	want := "https://web.archive.org/web/20210128160247if_/https://twitter.com/alice/status/1354852772606152705"
	if got != want {
		t.Errorf("SnapshotURL() = %q, want %q", got, want)
	}
}

func TestNewCapturerDefaults(t *testing.T) {
	t.Parallel()

	c := NewCapturer(Config{})
	defer c.Close()

	if c.cfg.NavigationTimeout != 45*time.Second {
		t.Errorf("NavigationTimeout = %v, want 45s", c.cfg.NavigationTimeout)
	}
	if c.cfg.Width != 1280 || c.cfg.Height != 1024 {
		t.Errorf("viewport = %dx%d, want 1280x1024", c.cfg.Width, c.cfg.Height)
	}
}
