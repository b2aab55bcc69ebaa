package browser

import (
	"fmt"
	"os"
	"time"

	"mailfetch/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const profilePattern = "rod-mailfetch-*"

type RodBrowser struct {
	headless bool
	timeout  time.Duration
}

// NewRodBrowser creates a RodBrowser. Each page load gets a fresh browser and profile.
func NewRodBrowser(headless bool, timeout time.Duration) *RodBrowser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RodBrowser{
		headless: headless,
		timeout:  timeout,
	}
}

// PageTitle launches a browser, loads url, and returns the document title
func (rb *RodBrowser) PageTitle(url string) (string, error) {
	locallog := logging.Log.WithField("url", url)

	tmpDir, err := os.MkdirTemp("", profilePattern)
	if err != nil {
		return "", fmt.Errorf("creating browser profile dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			locallog.WithError(err).Warn("failed to remove temp user data dir")
		}
	}()

	l := launcher.New().
		Headless(rb.headless).
		NoSandbox(true).
		UserDataDir(tmpDir)
	defer l.Cleanup()

	u, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connecting to browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Timeout(rb.timeout).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", url, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("loading %s: %w", url, err)
	}

	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("reading page info: %w", err)
	}

	locallog.Debug("Page loaded")
	return info.Title, nil
}
