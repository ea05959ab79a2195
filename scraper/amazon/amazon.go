package amazon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"asin-lister/config"
	"asin-lister/models"
	"asin-lister/utils"
)

// Enricher renders product detail pages in a headless browser and reads the
// source marketplace data the pipeline needs.
type Enricher struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use browser Enricher.
func New(cfg *config.Config, logger *utils.Logger) *Enricher {
	return &Enricher{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// detailData is what the in-page script returns.
type detailData struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Prime    bool   `json:"prime"`
	Sellers  string `json:"sellers"`
	Delivery string `json:"delivery"`

	// DeliveryType is the delivery block's declared type, "" when the page has none.
	DeliveryType string `json:"deliveryType"`
}

// Lookup fetches every identifier's detail page. A page that cannot be read
// leaves that identifier out of the result. Lookup only fails when nothing
// could be read at all.
func (e *Enricher) Lookup(ctx context.Context, asins []string) ([]models.SourceItemInfo, error) {
	unique := utils.NewStringSet(asins...).Values()
	if len(unique) == 0 {
		return []models.SourceItemInfo{}, nil
	}

	e.logger.Info("[amazon] Looking up %d items, concurrency %d, rate %dms",
		len(unique), e.cfg.MaxConcurrency, e.cfg.RateLimitMs)

	chromeBin := findChromeBinary(e.cfg.ChromeBin)
	e.logger.Debug("[amazon] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	pool := utils.NewWorkerPool(e.cfg.MaxConcurrency, e.cfg.RateLimitMs)

	var (
		mu      sync.Mutex
		items   = make([]models.SourceItemInfo, 0, len(unique))
		lastErr error
	)
	now := time.Now()

	for _, asin := range unique {
		asin := asin
		pool.Submit(func() {
			if browserCtx.Err() != nil {
				return
			}
			d, err := e.scrapeDetailPage(browserCtx, asin)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Warn("[amazon] Detail page failed for %s: %v", asin, err)
				lastErr = err
				return
			}
			items = append(items, toSourceInfo(asin, d, now))
		})
	}
	pool.Wait()

	if len(items) == 0 && lastErr != nil {
		return nil, fmt.Errorf("amazon: no items could be read: %w", lastErr)
	}
	if err := ctx.Err(); err != nil && len(items) == 0 {
		return nil, fmt.Errorf("amazon: %w", err)
	}

	e.logger.Info("[amazon] Lookup complete: %d of %d items read", len(items), len(unique))
	return items, nil
}

// scrapeDetailPage visits one product page and extracts the raw fields.
func (e *Enricher) scrapeDetailPage(browserCtx context.Context, asin string) (detailData, error) {
	var details detailData
	url := e.cfg.ProductBaseURL + asin

	err := e.retry.Do(browserCtx, "detail-page "+asin, func(context.Context) error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(detailScript, &details),
		)
		if err != nil {
			return fmt.Errorf("chromedp detail extract: %w", err)
		}
		if details.Title == "" && details.Price == "" {
			return fmt.Errorf("empty product page for %s", asin)
		}
		return nil
	})

	return details, err
}

const detailScript = `
(function() {
	var result = {title: '', price: '', image: '', prime: false, sellers: '', delivery: '', deliveryType: ''};

	var titleEl = document.querySelector('#productTitle') ||
	              document.querySelector('h1');
	if (titleEl) result.title = titleEl.innerText.trim();

	var priceEl = document.querySelector('#corePrice_feature_div .a-offscreen') ||
	              document.querySelector('#corePriceDisplay_desktop_feature_div .a-price-whole') ||
	              document.querySelector('#priceblock_ourprice') ||
	              document.querySelector('.a-price .a-offscreen');
	if (priceEl) result.price = (priceEl.innerText || priceEl.textContent || '').trim();

	var imgEl = document.querySelector('#landingImage') ||
	            document.querySelector('#imgBlkFront');
	if (imgEl) result.image = imgEl.getAttribute('data-old-hires') || imgEl.src || '';

	result.prime = !!(document.querySelector('#primeBadge') ||
	                  document.querySelector('i.a-icon-prime') ||
	                  document.querySelector('[data-csa-c-delivery-type="prime"]'));

	var sellersEl = document.querySelector('#olpLinkWidget_feature_div') ||
	                document.querySelector('#buybox-see-all-buying-choices');
	if (sellersEl) result.sellers = sellersEl.innerText.trim();

	var deliveryEl = document.querySelector('#mir-layout-DELIVERY_BLOCK-slot-PRIMARY_DELIVERY_MESSAGE_LARGE') ||
	                 document.querySelector('#deliveryBlockMessage');
	if (deliveryEl) result.delivery = deliveryEl.innerText.trim();

	var typeEl = document.querySelector('[data-csa-c-delivery-type]');
	if (typeEl) result.deliveryType = typeEl.getAttribute('data-csa-c-delivery-type') || '';

	return result;
})()
`

// findChromeBinary locates a Chrome/Chromium binary, preferring the configured one.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
