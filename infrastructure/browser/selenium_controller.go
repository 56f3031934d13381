package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ui_autoid/domain/entities"
	"ui_autoid/domain/interfaces"
	"ui_autoid/infrastructure/config"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// SeleniumBrowser drives Chrome through ChromeDriver and finds inserted
// elements by polling the page.
type SeleniumBrowser struct {
	wd       selenium.WebDriver
	service  *selenium.Service
	logger   *logrus.Logger
	interval time.Duration

	wdMu sync.Mutex

	mu      sync.Mutex
	polling bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ interfaces.ObservedBrowser = (*SeleniumBrowser)(nil)

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set BROWSER_DRIVER_PATH environment variable")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}

	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// NewSeleniumBrowser - starts ChromeDriver and opens a browser session
func NewSeleniumBrowser(cfg *config.Config, logger *logrus.Logger) (*SeleniumBrowser, error) {
	driverPath, err := findChromeDriver(cfg.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	chromeBinary := findChromeBinary(cfg.ChromeBinary)
	if chromeBinary != "" {
		logger.Infof("Using Chrome binary at: %s", chromeBinary)
	}

	service, err := selenium.NewChromeDriverService(driverPath, cfg.DriverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	caps := selenium.Capabilities{
		"browserName": "chrome",
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
	}
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	chromeCaps := chrome.Capabilities{Args: args}
	if chromeBinary != "" {
		chromeCaps.Path = chromeBinary
	}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", cfg.DriverPort))
	if err != nil {
		service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	return &SeleniumBrowser{
		wd:       wd,
		service:  service,
		logger:   logger,
		interval: cfg.PollInterval,
	}, nil
}

// Navigate - navigates browser to specified URL
func (s *SeleniumBrowser) Navigate(ctx context.Context, url string) error {
	s.logger.Infof("Navigating to: %s", url)

	s.wdMu.Lock()
	defer s.wdMu.Unlock()

	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL - returns current page URL
func (s *SeleniumBrowser) CurrentURL(ctx context.Context) (string, error) {
	s.wdMu.Lock()
	defer s.wdMu.Unlock()
	return s.wd.CurrentURL()
}

// Identifiers - returns the generated identifiers on the current page
func (s *SeleniumBrowser) Identifiers(ctx context.Context) ([]string, error) {
	s.wdMu.Lock()
	defer s.wdMu.Unlock()

	elements, err := s.wd.FindElements(selenium.ByCSSSelector, generatedSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}

	ids := make([]string, 0, len(elements))
	for _, elem := range elements {
		id, err := elem.GetAttribute(entities.IdentifierAttribute)
		if err != nil {
			s.logger.Debugf("Failed to read identifier: %v", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Subscribe - starts polling the page for unlabeled elements
func (s *SeleniumBrowser) Subscribe(handler interfaces.BatchHandler) (interfaces.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, interfaces.ErrSourceClosed
	}
	if s.polling {
		return nil, interfaces.ErrAlreadySubscribed
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.polling = true
	s.cancel = cancel
	s.wg.Add(1)
	go s.poll(ctx, handler)

	s.logger.Debugf("Polling every %s", s.interval)
	return &subscription{stop: s.stopPolling}, nil
}

// poll - runs the collect script on every tick
func (s *SeleniumBrowser) poll(ctx context.Context, handler interfaces.BatchHandler) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.collect(handler)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// collect - fetches one batch, if any, and hands it to handler. Refs of a
// batch that fails here are collected again once their lease runs out.
func (s *SeleniumBrowser) collect(handler interfaces.BatchHandler) {
	batch, ok, err := collectBatch(s.execute, s)
	if err != nil {
		s.logger.Debugf("Poll failed: %v", err)
		return
	}
	if ok {
		handler(batch)
	}
}

// execute - runs a script body with the driver lock held
func (s *SeleniumBrowser) execute(script string, args []interface{}) (interface{}, error) {
	s.wdMu.Lock()
	defer s.wdMu.Unlock()
	return s.wd.ExecuteScript(script, args)
}

// scriptExecutor runs a WebDriver script body
type scriptExecutor func(script string, args []interface{}) (interface{}, error)

// collectBatch runs the poll script once. ok is false when the page had
// nothing new to report.
func collectBatch(exec scriptExecutor, writer RefWriter) (batch entities.MutationBatch, ok bool, err error) {
	result, err := exec(pollScript, nil)
	if err != nil {
		return batch, false, err
	}

	payload, _ := result.(string)
	if payload == "" {
		return batch, false, nil
	}

	batch, err = DecodeBatch([]byte(payload), writer)
	if err != nil {
		return batch, false, err
	}
	return batch, true, nil
}

func (s *SeleniumBrowser) stopPolling() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.polling = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
	return nil
}

// WriteRef - sets the attribute on the element carrying ref
func (s *SeleniumBrowser) WriteRef(ref, name, value string) error {
	result, err := s.execute(seleniumWriteScript, []interface{}{ref, name, value})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if ok, _ := result.(bool); !ok {
		return fmt.Errorf("element with ref %s is no longer attached", ref)
	}
	return nil
}

// Close - stops polling, closes browser and stops ChromeDriver service
func (s *SeleniumBrowser) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stopPolling()

	var closeErr error
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil {
			closeErr = fmt.Errorf("failed to quit webdriver: %w", err)
		}
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop chromedriver: %w", err)
		}
	}
	return closeErr
}
