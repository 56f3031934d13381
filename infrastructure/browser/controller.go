package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ui_autoid/domain/interfaces"
	"ui_autoid/infrastructure/config"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const batchQueueSize = 64

// PlaywrightBrowser drives Chromium through playwright and reports inserted
// elements from a MutationObserver installed in every document.
type PlaywrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *logrus.Logger

	queue chan []byte

	mu        sync.Mutex
	handler   interfaces.BatchHandler
	installed bool
	closed    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ interfaces.ObservedBrowser = (*PlaywrightBrowser)(nil)

// NewPlaywrightBrowser - launches Chromium and opens a page
func NewPlaywrightBrowser(cfg *config.Config, logger *logrus.Logger) (*PlaywrightBrowser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Dismiss()
	})

	logger.Infof("Playwright browser started (headless=%t)", cfg.Headless)

	return &PlaywrightBrowser{
		pw:      pw,
		browser: browser,
		context: context,
		page:    page,
		logger:  logger,
		queue:   make(chan []byte, batchQueueSize),
	}, nil
}

// Navigate - navigates to the specified URL
func (b *PlaywrightBrowser) Navigate(ctx context.Context, url string) error {
	_, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL - returns the current page URL
func (b *PlaywrightBrowser) CurrentURL(ctx context.Context) (string, error) {
	return b.page.URL(), nil
}

// Identifiers - returns the generated identifiers on the current page
func (b *PlaywrightBrowser) Identifiers(ctx context.Context) ([]string, error) {
	result, err := b.page.Evaluate(listExpr)
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}

	values, _ := result.([]interface{})
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Subscribe - installs the observer and delivers batches to handler on one goroutine
func (b *PlaywrightBrowser) Subscribe(handler interfaces.BatchHandler) (interfaces.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, interfaces.ErrSourceClosed
	}
	if b.handler != nil {
		return nil, interfaces.ErrAlreadySubscribed
	}

	if !b.installed {
		if err := b.page.ExposeFunction(reportBinding, b.onReport); err != nil {
			return nil, fmt.Errorf("failed to expose report binding: %w", err)
		}
		if err := b.page.AddInitScript(playwright.Script{Content: playwright.String(observerScript)}); err != nil {
			return nil, fmt.Errorf("failed to add observer script: %w", err)
		}
		b.installed = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.handler = handler
	b.cancel = cancel
	b.wg.Add(1)
	go b.deliver(ctx, handler)

	// the init script only runs on the next navigation
	if _, err := b.page.Evaluate(strings.TrimSuffix(observerScript, ";")); err != nil {
		b.logger.Warnf("Failed to install observer in current document: %v", err)
	}

	return &subscription{stop: b.unsubscribe}, nil
}

// onReport - receives payloads from the page; runs on playwright's goroutine
func (b *PlaywrightBrowser) onReport(args ...interface{}) interface{} {
	if len(args) == 0 {
		return nil
	}
	payload, ok := args[0].(string)
	if !ok {
		b.logger.Warnf("Unexpected report payload type %T", args[0])
		return nil
	}

	select {
	case b.queue <- []byte(payload):
	default:
		b.logger.Warn("Batch queue full, dropped batch is rescanned after the ref lease")
	}
	return nil
}

// deliver - decodes queued payloads and calls handler, one batch at a time
func (b *PlaywrightBrowser) deliver(ctx context.Context, handler interfaces.BatchHandler) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-b.queue:
			batch, err := DecodeBatch(payload, b)
			if err != nil {
				b.logger.Warnf("Failed to decode batch: %v", err)
				continue
			}
			handler(batch)
		}
	}
}

func (b *PlaywrightBrowser) unsubscribe() error {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.handler = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		b.wg.Wait()
	}
	return nil
}

// WriteRef - sets the attribute on the element carrying ref
func (b *PlaywrightBrowser) WriteRef(ref, name, value string) error {
	result, err := b.page.Evaluate(playwrightWriteExpr, []interface{}{ref, name, value})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if ok, _ := result.(bool); !ok {
		return fmt.Errorf("element with ref %s is no longer attached", ref)
	}
	return nil
}

// Close - stops observation and closes the browser
func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.unsubscribe()

	var closeErr error

	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosedError(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		b.context = nil
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedError(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		b.pw = nil
	}

	return closeErr
}

// isClosedError - reports errors caused by an already closed target
func isClosedError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

// subscription stops delivery once
type subscription struct {
	once sync.Once
	stop func() error
	err  error
}

func (s *subscription) Stop() error {
	s.once.Do(func() {
		s.err = s.stop()
	})
	return s.err
}
