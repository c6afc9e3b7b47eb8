package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/infrastructure/metrics"
	"trillion-shopify-app/internal/ports"
	"trillion-shopify-app/internal/templates"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ProvisioningService orchestrates the remote writes that make a shop try-on
// ready: theme files, the product metafield definition, the landing page, and
// on demand the per-product SKU flags and 3D media.
type ProvisioningService struct {
	store       ports.ShopStore
	admin       ports.AdminClient
	vendor      ports.VendorClient
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	concurrency int
}

// NewProvisioningService creates the provisioning service. concurrency bounds
// the per-product fan-out during SKU import and media attachment.
func NewProvisioningService(
	store ports.ShopStore,
	admin ports.AdminClient,
	vendor ports.VendorClient,
	m *metrics.Metrics,
	logger zerolog.Logger,
	concurrency int,
) *ProvisioningService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ProvisioningService{
		store:       store,
		admin:       admin,
		vendor:      vendor,
		metrics:     m,
		logger:      logger,
		concurrency: concurrency,
	}
}

// provisionRun carries the per-run state the steps share: shop credentials and
// lazily resolved theme ids, so a full run resolves the live theme once.
type provisionRun struct {
	shop   string
	token  string
	apiKey string

	themeID     string
	restThemeID int64
}

func (s *ProvisioningService) newRun(ctx context.Context, shopDomain, apiKey string) (*provisionRun, error) {
	if shopDomain == "" {
		return nil, domain.NewValidationError("missing shop domain")
	}
	token, err := s.store.GetAccessToken(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return &provisionRun{shop: shopDomain, token: token, apiKey: apiKey}, nil
}

// vendorRun builds a run from the stored vendor key, for operations that
// require the shop to already be configured.
func (s *ProvisioningService) vendorRun(ctx context.Context, shopDomain string) (*provisionRun, error) {
	key, err := s.store.GetVendorAPIKey(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, domain.NewValidationError("shop %s has no vendor api key configured", shopDomain)
	}
	return s.newRun(ctx, shopDomain, key)
}

// runFor builds a run from an explicit vendor key when one is supplied, or
// falls back to the stored key. The explicit key lets a failed step be
// retried on its own before a full configure has persisted one.
func (s *ProvisioningService) runFor(ctx context.Context, shopDomain, apiKey string) (*provisionRun, error) {
	if apiKey != "" {
		return s.newRun(ctx, shopDomain, apiKey)
	}
	return s.vendorRun(ctx, shopDomain)
}

func (s *ProvisioningService) themeGID(ctx context.Context, run *provisionRun) (string, error) {
	if run.themeID == "" {
		id, err := s.admin.ActiveThemeID(ctx, run.shop, run.token)
		if err != nil {
			return "", err
		}
		run.themeID = id
	}
	return run.themeID, nil
}

func (s *ProvisioningService) themeRESTID(ctx context.Context, run *provisionRun) (int64, error) {
	if run.restThemeID == 0 {
		id, err := s.admin.ActiveThemeRESTID(ctx, run.shop, run.token)
		if err != nil {
			return 0, err
		}
		run.restThemeID = id
	}
	return run.restThemeID, nil
}

// Configure runs the full provisioning sequence for a shop with the given
// vendor key. The key is persisted only after every step succeeded, so a
// stored key always means a configured shop. On failure the report names the
// failed step; completed steps are upserts and safe to re-run.
func (s *ProvisioningService) Configure(ctx context.Context, shopDomain, apiKey string) (*domain.ProvisionReport, error) {
	if apiKey == "" {
		return nil, domain.NewValidationError("missing vendor api key")
	}

	run, err := s.newRun(ctx, shopDomain, apiKey)
	if err != nil {
		return nil, err
	}

	report := &domain.ProvisionReport{ShopDomain: shopDomain}
	steps := []struct {
		step domain.Step
		fn   func(context.Context, *provisionRun) error
	}{
		{domain.StepUploadTemplate, s.stepUploadTemplate},
		{domain.StepMetafieldDefinition, s.stepMetafieldDefinition},
		{domain.StepUploadViewerAsset, s.stepUploadViewerAsset},
		{domain.StepUploadViewerSnippet, s.stepUploadViewerSnippet},
		{domain.StepPatchThemeLayout, s.stepPatchThemeLayout},
		{domain.StepEnsurePage, s.stepEnsurePage},
	}

	for _, st := range steps {
		if err := s.runStep(ctx, run, st.step, st.fn); err != nil {
			report.Failed = st.step
			return report, err
		}
		report.Completed = append(report.Completed, st.step)
	}

	if err := s.store.SetVendorAPIKey(ctx, shopDomain, apiKey); err != nil {
		return report, err
	}

	s.logger.Info().Str("shop", shopDomain).Msg("shop provisioned for try-on")
	return report, nil
}

func (s *ProvisioningService) runStep(ctx context.Context, run *provisionRun, step domain.Step, fn func(context.Context, *provisionRun) error) error {
	start := time.Now()
	err := fn(ctx, run)
	s.metrics.ObserveStep(string(step), time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Error().Str("shop", run.shop).Str("step", string(step)).Err(err).Msg("provisioning step failed")
		return &domain.StepError{Step: step, Err: err}
	}
	s.logger.Info().Str("shop", run.shop).Str("step", string(step)).Msg("provisioning step completed")
	return nil
}

// single exposes one provisioning step for the per-step API routes. apiKey
// may be empty, in which case the stored vendor key is used.
func (s *ProvisioningService) single(ctx context.Context, shopDomain, apiKey string, step domain.Step, fn func(context.Context, *provisionRun) error) error {
	run, err := s.runFor(ctx, shopDomain, apiKey)
	if err != nil {
		return err
	}
	return s.runStep(ctx, run, step, fn)
}

// UploadTemplate writes the try-on page template into the live theme.
func (s *ProvisioningService) UploadTemplate(ctx context.Context, shopDomain, apiKey string) error {
	return s.single(ctx, shopDomain, apiKey, domain.StepUploadTemplate, s.stepUploadTemplate)
}

// EnsureMetafieldDefinition creates the product sku_exist metafield definition.
func (s *ProvisioningService) EnsureMetafieldDefinition(ctx context.Context, shopDomain, apiKey string) error {
	return s.single(ctx, shopDomain, apiKey, domain.StepMetafieldDefinition, s.stepMetafieldDefinition)
}

// UploadViewerAsset writes the product-model script into the theme assets.
func (s *ProvisioningService) UploadViewerAsset(ctx context.Context, shopDomain, apiKey string) error {
	return s.single(ctx, shopDomain, apiKey, domain.StepUploadViewerAsset, s.stepUploadViewerAsset)
}

// UploadViewerSnippet writes the viewer snippet into the live theme.
func (s *ProvisioningService) UploadViewerSnippet(ctx context.Context, shopDomain, apiKey string) error {
	return s.single(ctx, shopDomain, apiKey, domain.StepUploadViewerSnippet, s.stepUploadViewerSnippet)
}

// PatchThemeLayout injects the viewer render block into theme.liquid.
func (s *ProvisioningService) PatchThemeLayout(ctx context.Context, shopDomain, apiKey string) error {
	return s.single(ctx, shopDomain, apiKey, domain.StepPatchThemeLayout, s.stepPatchThemeLayout)
}

// EnsurePage creates the try-on landing page when it does not exist yet.
func (s *ProvisioningService) EnsurePage(ctx context.Context, shopDomain, apiKey string) error {
	return s.single(ctx, shopDomain, apiKey, domain.StepEnsurePage, s.stepEnsurePage)
}

func (s *ProvisioningService) stepUploadTemplate(ctx context.Context, run *provisionRun) error {
	themeID, err := s.themeGID(ctx, run)
	if err != nil {
		return err
	}
	return s.admin.UpsertThemeFiles(ctx, run.shop, run.token, themeID, []ports.ThemeFile{
		{Filename: templates.TryOnTemplateFilename, Body: templates.TryOnTemplate(run.apiKey)},
	})
}

func (s *ProvisioningService) stepMetafieldDefinition(ctx context.Context, run *provisionRun) error {
	created, err := s.admin.CreateMetafieldDefinition(ctx, run.shop, run.token, ports.MetafieldDefinition{
		Namespace:   "trillion",
		Key:         "sku_exist",
		Name:        "Trillion 3D model exists",
		Type:        "boolean",
		Description: "Set when the product's SKU has a 3D model in the Trillion catalog",
	})
	if err != nil {
		return err
	}
	if !created {
		s.logger.Debug().Str("shop", run.shop).Msg("metafield definition already present")
	}
	return nil
}

func (s *ProvisioningService) stepUploadViewerAsset(ctx context.Context, run *provisionRun) error {
	themeID, err := s.themeRESTID(ctx, run)
	if err != nil {
		return err
	}
	return s.admin.PutThemeAsset(ctx, run.shop, run.token, themeID, templates.ViewerAssetFilename, templates.ViewerAsset())
}

func (s *ProvisioningService) stepUploadViewerSnippet(ctx context.Context, run *provisionRun) error {
	themeID, err := s.themeGID(ctx, run)
	if err != nil {
		return err
	}
	return s.admin.UpsertThemeFiles(ctx, run.shop, run.token, themeID, []ports.ThemeFile{
		{Filename: templates.ViewerSnippetFilename, Body: templates.ViewerSnippet(run.apiKey)},
	})
}

func (s *ProvisioningService) stepPatchThemeLayout(ctx context.Context, run *provisionRun) error {
	body, err := s.admin.ThemeFileContent(ctx, run.shop, run.token, templates.ThemeLayoutFilename)
	if err != nil {
		return err
	}
	patched, changed, ok := templates.PatchThemeLayout(body)
	if !ok {
		return fmt.Errorf("theme layout %s has no closing body tag", templates.ThemeLayoutFilename)
	}
	if !changed {
		s.logger.Debug().Str("shop", run.shop).Msg("theme layout already patched")
		return nil
	}
	themeID, err := s.themeGID(ctx, run)
	if err != nil {
		return err
	}
	return s.admin.UpsertThemeFiles(ctx, run.shop, run.token, themeID, []ports.ThemeFile{
		{Filename: templates.ThemeLayoutFilename, Body: patched},
	})
}

func (s *ProvisioningService) stepEnsurePage(ctx context.Context, run *provisionRun) error {
	page, err := s.admin.FindPageByHandle(ctx, run.shop, run.token, templates.PageHandle)
	if err != nil {
		return err
	}
	if page != nil {
		s.logger.Debug().Str("shop", run.shop).Str("page_id", page.ID).Msg("try-on page already exists")
		return nil
	}
	created, err := s.admin.CreatePage(ctx, run.shop, run.token, templates.PageTitle, templates.PageHandle, templates.PageTemplateSuffix)
	if err != nil {
		return err
	}
	s.logger.Info().Str("shop", run.shop).Str("page_id", created.ID).Msg("created try-on page")
	return nil
}

// ImportSKUs fetches the vendor's SKU catalog, matches it against the shop's
// products, and flags every matched product with the sku_exist metafield. A
// per-product failure is recorded and never aborts the batch.
func (s *ProvisioningService) ImportSKUs(ctx context.Context, shopDomain, apiKey string) (*domain.BatchSummary, error) {
	run, err := s.runFor(ctx, shopDomain, apiKey)
	if err != nil {
		return nil, err
	}

	vendorSKUs, err := s.vendor.SKUList(ctx, run.apiKey)
	if err != nil {
		return nil, &domain.StepError{Step: domain.StepImportSKUs, Err: err}
	}

	var matched []domain.Product
	err = s.admin.ListProducts(ctx, run.shop, run.token, func(products []domain.Product) error {
		matched = append(matched, MatchBySKU(products, vendorSKUs)...)
		return nil
	})
	if err != nil {
		return nil, &domain.StepError{Step: domain.StepImportSKUs, Err: err}
	}

	summary := &domain.BatchSummary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, p := range matched {
		p := p
		summary.Matched = append(summary.Matched, p.ID)
		g.Go(func() error {
			err := s.admin.SetProductFlag(gctx, run.shop, run.token, p.ID, true)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed = append(summary.Failed, domain.ItemFailure{ProductID: p.ID, Reason: err.Error()})
				return nil
			}
			summary.Succeeded = append(summary.Succeeded, p.ID)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().
		Str("shop", shopDomain).
		Int("matched", len(summary.Matched)).
		Int("succeeded", len(summary.Succeeded)).
		Int("failed", len(summary.Failed)).
		Msg("sku import finished")
	return summary, nil
}

// AttachMedia resolves a 3D model for every flagged product and attaches it as
// product media. Products without a published model are skipped; individual
// upload failures are recorded and never abort the batch.
func (s *ProvisioningService) AttachMedia(ctx context.Context, shopDomain, apiKey string) (*domain.BatchSummary, error) {
	run, err := s.runFor(ctx, shopDomain, apiKey)
	if err != nil {
		return nil, err
	}

	var flagged []domain.Product
	err = s.admin.ListProducts(ctx, run.shop, run.token, func(products []domain.Product) error {
		for _, p := range products {
			if p.TryOnFlagged {
				flagged = append(flagged, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &domain.StepError{Step: domain.StepAttachMedia, Err: err}
	}

	summary := &domain.BatchSummary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, p := range flagged {
		p := p
		summary.Matched = append(summary.Matched, p.ID)
		g.Go(func() error {
			result := s.attachOne(gctx, run, p)
			mu.Lock()
			defer mu.Unlock()
			if result != nil {
				summary.Failed = append(summary.Failed, *result)
				return nil
			}
			summary.Succeeded = append(summary.Succeeded, p.ID)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().
		Str("shop", shopDomain).
		Int("matched", len(summary.Matched)).
		Int("succeeded", len(summary.Succeeded)).
		Int("failed", len(summary.Failed)).
		Msg("media attachment finished")
	return summary, nil
}

func (s *ProvisioningService) attachOne(ctx context.Context, run *provisionRun, p domain.Product) *domain.ItemFailure {
	sku := p.FirstSKU()
	if sku == "" {
		return &domain.ItemFailure{ProductID: p.ID, Reason: "product has no variant sku"}
	}

	modelURL, err := s.vendor.ModelURL(ctx, run.apiKey, run.shop, sku)
	if err != nil {
		return &domain.ItemFailure{ProductID: p.ID, Reason: err.Error()}
	}
	if modelURL == "" {
		return &domain.ItemFailure{ProductID: p.ID, Reason: "no published 3d model for sku " + sku}
	}

	if err := s.admin.AttachProductModel(ctx, run.shop, run.token, p.ID, sku, modelURL); err != nil {
		return &domain.ItemFailure{ProductID: p.ID, Reason: err.Error()}
	}
	return nil
}
